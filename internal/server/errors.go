package server

import (
	"errors"
	"net/http"

	challengedomain "github.com/depictapp/depict/internal/challenge/domain"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	signupdomain "github.com/depictapp/depict/internal/signup/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type     string                             `json:"type"`
	Message  string                             `json:"message"`
	Balance  *float64                           `json:"balance,omitempty"`
	Needed   *float64                           `json:"needed,omitempty"`
	Refunded bool                               `json:"refunded,omitempty"`
	Errors   []generationdomain.ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInternal           = errors.New("internal_error")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var vErr *generationdomain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []generationdomain.ValidationError{*vErr},
		}
	}

	var fundsErr *generationdomain.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		balance := fundsErr.Balance
		needed := fundsErr.Needed
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_funds",
			Message: "insufficient credits",
			Balance: &balance,
			Needed:  &needed,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, paymentdomain.ErrSessionMismatch):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, generationdomain.ErrChallengeLocked):
		return http.StatusForbidden, errorPayload{
			Type:    "challenge_locked",
			Message: "challenge is locked",
		}
	case errors.Is(err, generationdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests, wait a moment and try again",
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, generationdomain.ErrChallengeNotFound),
		errors.Is(err, challengedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, creditdomain.ErrInvalidSubject),
		errors.Is(err, creditdomain.ErrInvalidAmount),
		errors.Is(err, signupdomain.ErrInvalidSubject),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent),
		errors.Is(err, paymentdomain.ErrMissingMetadata),
		errors.Is(err, paymentdomain.ErrPaymentIncomplete):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, generationdomain.ErrGenerationFailed):
		return http.StatusInternalServerError, errorPayload{
			Type:     "generation_failed",
			Message:  "generation failed, credits have been refunded",
			Refunded: true,
		}
	case errors.Is(err, generationdomain.ErrStoreUnavailable),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
