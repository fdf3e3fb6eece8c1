// Package server assembles the HTTP router from handler dependencies.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	healthhandler "nexty-pairing-service/internal/health/handler"
	pairinghandler "nexty-pairing-service/internal/pairing/handler"
	pairingservice "nexty-pairing-service/internal/pairing/service"
	"nexty-pairing-service/internal/server/middleware"
)

// serviceName identifies this service in spans and metrics.
const serviceName = "nexty-pairing-service"

// Deps holds the handler dependencies for the HTTP server.
type Deps struct {
	// Logger is required.
	Logger *zap.Logger
	// Pairing is the pairing coordinator; required.
	Pairing *pairingservice.Service
	// HealthPinger reports storage reachability (e.g. *sql.DB). Nil skips the DB check.
	HealthPinger healthhandler.Pinger
}

// NewRouter builds the gin engine with the middleware chain and all routes.
//
// Route → handler mapping:
//   - POST /api/generate-code  → internal/pairing/handler
//   - POST /api/pair-device    → internal/pairing/handler
//   - POST /api/check-status   → internal/pairing/handler
//   - POST /api/new-session    → internal/pairing/handler
//   - GET  /healthz            → internal/health/handler
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestLogger(deps.Logger),
		middleware.Tracing(serviceName),
	)

	pairinghandler.New(deps.Logger, deps.Pairing).Register(r.Group("/api"))
	healthhandler.New(deps.HealthPinger).Register(r)

	return r
}
