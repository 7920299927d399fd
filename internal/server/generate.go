package server

import (
	"errors"
	"net/http"
	"strconv"

	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	"github.com/gin-gonic/gin"
)

type generateRequest struct {
	ChallengeID      string `json:"challenge_id"`
	ArticulationText string `json:"articulation_text"`
}

func (s *Server) Generate(c *gin.Context) {
	subjectID, ok := subjectFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, generationdomain.NewValidationError("body", "invalid_json", "request body must be valid JSON"))
		return
	}

	result, err := s.generationSvc.Run(c.Request.Context(), generationdomain.RunRequest{
		SubjectID:        subjectID,
		ChallengeID:      req.ChallengeID,
		ArticulationText: req.ArticulationText,
	})
	if err != nil {
		var rlErr *generationdomain.RateLimitedError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
			seconds := int(rlErr.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
