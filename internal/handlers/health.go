// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

type HealthHandler struct {
	version  string
	checkers map[string]Checker
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:  version,
		checkers: make(map[string]Checker),
	}
}

// Register must be called before the router starts serving.
func (h *HealthHandler) Register(name string, checker Checker) {
	h.checkers[name] = checker
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	checks := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checkers[name](ctx); err != nil {
			status = "unhealthy"
			checks[name] = gin.H{"status": "down", "error": err.Error()}
			continue
		}
		checks[name] = gin.H{"status": "up"}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	})
}
