package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mealresolver"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	resolver mealresolver.MealResolver
}

func NewHandler(resolver mealresolver.MealResolver) *Handler {
	return &Handler{resolver: resolver}
}

type parseMealRequest struct {
	Query string `json:"query"`
}

// ParseMeal resolves {"query": "..."} into items and totals.
func (h *Handler) ParseMeal(c *gin.Context) {
	var req parseMealRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	}

	res, err := h.resolver.Resolve(c.Request.Context(), req.Query)
	if err != nil {
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, res)
}

// errorResponse maps resolver errors to a status and a body that never leaks internal detail.
func errorResponse(err error) (int, gin.H) {
	if errors.Is(err, mealresolver.ErrInvalidInput) {
		return http.StatusBadRequest, gin.H{"error": mealresolver.PublicMessage(err)}
	}
	slog.Error("HTTP: Resolution failed", "error", err)
	return http.StatusInternalServerError, gin.H{"error": mealresolver.PublicMessage(err)}
}
