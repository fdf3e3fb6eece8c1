// Package handler exposes the pairing coordinator over the JSON HTTP API
// consumed by the pairing clients.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexty-pairing-service/internal/pairing/service"
)

// Handler serves the pairing endpoints.
type Handler struct {
	logger *zap.Logger
	svc    *service.Service
}

// New returns a pairing HTTP handler.
func New(logger *zap.Logger, svc *service.Service) *Handler {
	return &Handler{logger: logger.Named("pairing_handler"), svc: svc}
}

// Register mounts the pairing routes on the router group.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/generate-code", h.GenerateCode)
	r.POST("/pair-device", h.PairDevice)
	r.POST("/check-status", h.CheckStatus)
	r.POST("/new-session", h.NewSession)
}

type generateCodeRequest struct {
	SessionID  string          `json:"session_id"`
	DeviceInfo json.RawMessage `json:"device_info,omitempty"`
}

type generateCodeResponse struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// GenerateCode handles POST /api/generate-code.
func (h *Handler) GenerateCode(c *gin.Context) {
	var req generateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.svc.GenerateCode(c.Request.Context(), req.SessionID, req.DeviceInfo)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, generateCodeResponse{
		Code:      res.Code,
		SessionID: res.SessionID,
		Message:   res.Message,
	})
}

type pairDeviceRequest struct {
	PairingCode string `json:"pairing_code"`
	SessionID   string `json:"session_id"`
}

type pairDeviceResponse struct {
	Message      string `json:"message"`
	PairedWith   string `json:"paired_with"`
	ConnectionID string `json:"connection_id"`
}

// PairDevice handles POST /api/pair-device.
func (h *Handler) PairDevice(c *gin.Context) {
	var req pairDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.svc.PairDevice(c.Request.Context(), req.PairingCode, req.SessionID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, pairDeviceResponse{
		Message:      res.Message,
		PairedWith:   res.PairedWith,
		ConnectionID: res.ConnectionID,
	})
}

type checkStatusRequest struct {
	SessionID string `json:"session_id"`
}

type activeCode struct {
	Code       string `json:"code"`
	Paired     bool   `json:"paired"`
	PairedWith string `json:"paired_with,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

type pairingStatus struct {
	PairedWith  string `json:"paired_with"`
	PairingCode string `json:"pairing_code"`
	PairedAt    int64  `json:"paired_at"`
}

type checkStatusResponse struct {
	ActiveCodes   []activeCode    `json:"active_codes"`
	PairingStatus []pairingStatus `json:"pairing_status"`
}

// CheckStatus handles POST /api/check-status. Timestamps are Unix seconds.
func (h *Handler) CheckStatus(c *gin.Context) {
	var req checkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	st, err := h.svc.CheckStatus(c.Request.Context(), req.SessionID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	resp := checkStatusResponse{
		ActiveCodes:   make([]activeCode, 0, len(st.ActiveCodes)),
		PairingStatus: make([]pairingStatus, 0, len(st.Connections)),
	}
	for _, cs := range st.ActiveCodes {
		resp.ActiveCodes = append(resp.ActiveCodes, activeCode{
			Code:       cs.Code,
			Paired:     cs.Paired,
			PairedWith: cs.PairedWith,
			CreatedAt:  cs.CreatedAt.Unix(),
		})
	}
	for _, conn := range st.Connections {
		resp.PairingStatus = append(resp.PairingStatus, pairingStatus{
			PairedWith:  conn.PairedWith,
			PairingCode: conn.PairingCode,
			PairedAt:    conn.PairedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

type newSessionRequest struct {
	DeviceInfo json.RawMessage `json:"device_info,omitempty"`
}

type newSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// NewSession handles POST /api/new-session.
func (h *Handler) NewSession(c *gin.Context) {
	var req newSessionRequest
	// Body is optional for this endpoint.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	s, err := h.svc.NewSession(c.Request.Context(), req.DeviceInfo)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse{
		SessionID: s.ID,
		Message:   "session created",
	})
}

// renderError maps service errors to HTTP statuses. The stable error kind
// travels in the error string; unexpected errors are logged and masked.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSessionID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCodeExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCodeConsumed), errors.Is(err, service.ErrSelfPairing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
