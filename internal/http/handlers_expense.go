package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spendwise/internal/core"
	"spendwise/internal/export"
	"spendwise/internal/services"
)

func (s *Server) handleListExpenses(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	expenses, err := s.expenses.List(c.Request.Context(), userID(c), filter)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to list expenses", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) handleExportExpenses(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	expenses, err := s.expenses.List(c.Request.Context(), userID(c), filter)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to list expenses for export", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export expenses"})
		return
	}

	csv, err := export.ExpensesCSV(expenses)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to render expenses CSV", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export expenses"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="SpendWise_Expenses.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", csv)
}

// listFilter assembles the expense filter from query params, rejecting an
// out-of-range period with a 400.
func listFilter(c *gin.Context) (services.ExpenseFilter, bool) {
	filter := services.ExpenseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	m, y, present, valid := optionalPeriod(c)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month or year"})
		return services.ExpenseFilter{}, false
	}
	if present {
		filter.Month, filter.Year = m, y
	}
	return filter, true
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	var e core.Expense
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	e.UserID = userID(c)

	created, err := s.expenses.Create(c.Request.Context(), e)
	if err != nil {
		if errors.Is(err, core.ErrEmptyTitle) || errors.Is(err, core.ErrInvalidAmount) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to create expense", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add expense"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(c *gin.Context) {
	var e core.Expense
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	e.ID = c.Param("id")
	e.UserID = userID(c)

	updated, err := s.expenses.Update(c.Request.Context(), e)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		case errors.Is(err, core.ErrEmptyTitle), errors.Is(err, core.ErrInvalidAmount):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(c.Request.Context(), "Failed to update expense", "id", e.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update expense"})
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	id := c.Param("id")
	if err := s.expenses.Delete(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to delete expense", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

func (s *Server) handleClearExpenses(c *gin.Context) {
	n, err := s.expenses.Clear(c.Request.Context(), userID(c))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to clear expenses", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear expenses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// optionalPeriod reads the month and year query params. present is false
// when neither is given; valid is false when anything is given but the pair
// does not form an in-range period.
func optionalPeriod(c *gin.Context) (month, year int, present, valid bool) {
	rawM, rawY := c.Query("month"), c.Query("year")
	if rawM == "" && rawY == "" {
		return 0, 0, false, true
	}
	m, errM := strconv.Atoi(rawM)
	y, errY := strconv.Atoi(rawY)
	if errM != nil || errY != nil || m < 1 || m > 12 || y < 1970 || y > 9999 {
		return 0, 0, true, false
	}
	return m, y, true, true
}

// requiredPeriod reads month and year query params, rejecting the request
// when either is missing or out of range.
func requiredPeriod(c *gin.Context) (month, year int, ok bool) {
	m, y, present, valid := optionalPeriod(c)
	if !present || !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month and year are required"})
		return 0, 0, false
	}
	return m, y, true
}
