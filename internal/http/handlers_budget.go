package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"spendwise/internal/core"
)

func (s *Server) handleGetBudget(c *gin.Context) {
	month, year, ok := requiredPeriod(c)
	if !ok {
		return
	}

	budget, err := s.store.GetBudget(c.Request.Context(), userID(c), month, year)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to fetch budget",
			"month", month, "year", year, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch budget"})
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (s *Server) handleSetBudget(c *gin.Context) {
	var b core.Budget
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	b.UserID = userID(c)

	if err := b.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	saved, err := s.store.UpsertBudget(c.Request.Context(), b)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidMonth) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to set budget", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set budget"})
		return
	}

	s.reports.Invalidate(b.UserID)
	c.JSON(http.StatusOK, saved)
}
