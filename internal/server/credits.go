package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetBalance(c *gin.Context) {
	subjectID, ok := subjectFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	balance, err := s.creditSvc.GetBalance(c.Request.Context(), subjectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (s *Server) ListAttempts(c *gin.Context) {
	subjectID, ok := subjectFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	attempts, err := s.generationSvc.History(c.Request.Context(), subjectID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
