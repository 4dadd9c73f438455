package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"spendwise/internal/core"
)

func (s *Server) handleListRecurring(c *gin.Context) {
	defs, err := s.store.ListRecurring(c.Request.Context(), userID(c))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to list recurring expenses", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recurring expenses"})
		return
	}
	c.JSON(http.StatusOK, defs)
}

func (s *Server) handleCreateRecurring(c *gin.Context) {
	var re core.RecurringExpense
	if err := c.ShouldBindJSON(&re); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	re.ID = uuid.NewString()
	re.UserID = userID(c)
	re.Category = core.NormalizeCategory(string(re.Category))
	if re.NextDate.IsZero() {
		re.NextDate = re.StartDate
	}

	if err := re.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.CreateRecurring(c.Request.Context(), re); err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to create recurring expense", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recurring expense"})
		return
	}
	c.JSON(http.StatusCreated, re)
}

func (s *Server) handleDeleteRecurring(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteRecurring(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring expense not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to delete recurring expense", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recurring expense"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recurring expense deleted successfully"})
}

func (s *Server) handleRunAutomation(c *gin.Context) {
	user := userID(c)
	result, err := s.processor.Run(c.Request.Context(), user, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Recurring roll-forward failed",
			"user_id", user, "processed", result.Processed, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to process recurring expenses",
			"processed": result.Processed,
		})
		return
	}

	if result.Processed > 0 {
		s.reports.Invalidate(user)
	}
	c.JSON(http.StatusOK, result)
}
