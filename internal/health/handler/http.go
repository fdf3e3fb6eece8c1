// Package handler serves readiness/liveness for Kubernetes, load balancers, and CI.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports storage reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves GET /healthz. A nil pinger skips the storage check, which is
// how the in-memory configuration runs.
type Handler struct {
	pinger Pinger
}

// New returns a health handler. pinger may be nil.
func New(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

// Register mounts the health route on the router.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.Check)
}

// Check handles GET /healthz.
func (h *Handler) Check(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
