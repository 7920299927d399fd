package server

import (
	"strings"
	"time"

	"github.com/depictapp/depict/internal/subjectctx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HeaderSubject carries the authenticated subject id set by the identity
// proxy in front of this service.
const HeaderSubject = "X-Subject-ID"

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// SubjectRequired rejects requests without a subject header and provisions
// the subject row (with the one-time signup bonus) on first sight.
func (s *Server) SubjectRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID := strings.TrimSpace(c.GetHeader(HeaderSubject))
		if subjectID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := subjectctx.WithSubjectID(c.Request.Context(), subjectID)
		if err := s.signupSvc.EnsureSubject(ctx, subjectID); err != nil {
			s.log.Warn("subject provisioning failed",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func subjectFrom(c *gin.Context) (string, bool) {
	return subjectctx.SubjectIDFromContext(c.Request.Context())
}
