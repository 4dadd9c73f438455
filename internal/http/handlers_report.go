package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spendwise/internal/export"
)

func (s *Server) handleMonthlyReport(c *gin.Context) {
	month, year, ok := requiredPeriod(c)
	if !ok {
		return
	}

	summary, err := s.reports.Monthly(c.Request.Context(), userID(c), month, year)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to build monthly report",
			"month", month, "year", year, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleComparison(c *gin.Context) {
	month, year, ok := requiredPeriod(c)
	if !ok {
		return
	}

	cmp, err := s.reports.Comparison(c.Request.Context(), userID(c), month, year)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to build comparison",
			"month", month, "year", year, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build comparison"})
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (s *Server) handleTrends(c *gin.Context) {
	month, year, ok := requiredPeriod(c)
	if !ok {
		return
	}

	points, err := s.reports.Trend(c.Request.Context(), userID(c), month, year)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to build trend series",
			"month", month, "year", year, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build trends"})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) handleExportReport(c *gin.Context) {
	month, year, ok := requiredPeriod(c)
	if !ok {
		return
	}

	summary, err := s.reports.Monthly(c.Request.Context(), userID(c), month, year)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to build report for export",
			"month", month, "year", year, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}

	csv, err := export.ReportCSV(summary.MonthlyReport)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to render report CSV", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}

	monthName := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January")
	filename := fmt.Sprintf("SpendWise_Report_%s_%d.csv", monthName, year)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", csv)
}
