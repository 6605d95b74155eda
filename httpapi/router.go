package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"mealresolver"
	"mealresolver/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ParseMealPath   = "/api/parse-meal"
	HealthPath      = "/healthz"
	RequestIDHeader = "X-Request-ID"
)

// NewRouter wires the meal endpoint and health check onto a gin engine.
func NewRouter(resolver mealresolver.MealResolver) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestID(), requestLogger())

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	r.GET(HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(ParseMealPath, NewHandler(resolver).ParseMeal)

	return r
}

// requestID propagates or assigns a request id and attaches it to the request context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(pipeline.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP: Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.Writer.Header().Get(RequestIDHeader),
		)
	}
}
