// Package http exposes the REST API.
package http

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"spendwise/internal/services"
)

// defaultUser scopes requests that carry no X-User-ID header. Identity is
// the front proxy's concern; the API only needs a stable owner key.
const defaultUser = "default"

type Server struct {
	engine    *gin.Engine
	limiter   *rateLimiter
	expenses  *services.ExpenseService
	reports   *services.ReportService
	processor *services.RecurringProcessor
	store     services.Store
}

type Options struct {
	CORSOrigins []string
	// RateLimitPerMinute caps requests per client IP. Zero means the
	// default of 60.
	RateLimitPerMinute int
}

func NewServer(
	opts Options,
	expenses *services.ExpenseService,
	reports *services.ReportService,
	processor *services.RecurringProcessor,
	store services.Store,
) *Server {
	perMinute := opts.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	limiter := newRateLimiter(perMinute)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	engine.Use(limiter.middleware())

	corsCfg := cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.CORSOrigins) == 1 && opts.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowOrigins = nil
	}
	engine.Use(cors.New(corsCfg))

	s := &Server{
		engine:    engine,
		limiter:   limiter,
		expenses:  expenses,
		reports:   reports,
		processor: processor,
		store:     store,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.GET("/expenses", s.handleListExpenses)
		api.GET("/expenses/export", s.handleExportExpenses)
		api.POST("/expenses", s.handleCreateExpense)
		api.PUT("/expenses/:id", s.handleUpdateExpense)
		api.DELETE("/expenses/:id", s.handleDeleteExpense)
		api.DELETE("/expenses", s.handleClearExpenses)

		api.GET("/reports/monthly", s.handleMonthlyReport)
		api.GET("/reports/comparison", s.handleComparison)
		api.GET("/reports/trends", s.handleTrends)
		api.GET("/reports/export", s.handleExportReport)

		api.GET("/budget", s.handleGetBudget)
		api.POST("/budget", s.handleSetBudget)

		api.GET("/recurring", s.handleListRecurring)
		api.POST("/recurring", s.handleCreateRecurring)
		api.DELETE("/recurring/:id", s.handleDeleteRecurring)

		api.POST("/automation/run", s.handleRunAutomation)
	}
}

// Handler returns the root http.Handler for mounting in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close stops the server's background goroutines.
func (s *Server) Close() {
	s.limiter.stop()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "spendwise"})
}

// userID resolves the owner of the request.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return defaultUser
}

// requestLogger stamps each request with a random id and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := newRequestID()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		slog.InfoContext(c.Request.Context(), "HTTP request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
