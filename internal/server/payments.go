package server

import (
	"errors"
	"io"
	"net/http"

	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// HandlePaymentWebhook verifies the provider signature, parses the event
// and applies the credits at most once. Replays return 200 so providers
// stop retrying.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := c.Param("provider")
	adapter, err := s.registry.Adapter(provider)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	ctx := c.Request.Context()
	if err := adapter.Verify(ctx, payload, c.Request.Header); err != nil {
		s.log.Warn("webhook signature rejected",
			zap.String("provider", provider),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		AbortWithError(c, err)
		return
	}

	applied, err := s.recorder.RecordPaymentIfNew(ctx, *event)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.metrics.RecordPayment(event.Provider, applied)

	c.JSON(http.StatusOK, gin.H{"received": true, "applied": applied})
}

type verifyPaymentRequest struct {
	SessionID string `json:"session_id"`
}

// VerifyPayment resolves a checkout session directly against the provider
// API. It backs the redirect landing page where webhook delivery is not
// available, and shares the same idempotent recorder as the webhook path.
func (s *Server) VerifyPayment(c *gin.Context) {
	subjectID, ok := subjectFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	provider := c.Param("provider")
	client, err := s.registry.CheckoutClient(provider)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	event, err := client.ResolveSession(ctx, req.SessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The session must belong to the caller; otherwise anyone holding a
	// session id could claim the credits.
	if event.SubjectID != subjectID {
		AbortWithError(c, paymentdomain.ErrSessionMismatch)
		return
	}

	applied, err := s.recorder.RecordPaymentIfNew(ctx, *event)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.metrics.RecordPayment(event.Provider, applied)

	c.JSON(http.StatusOK, gin.H{
		"credits": event.Credits,
		"applied": applied,
	})
}
