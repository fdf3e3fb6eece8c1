// Package service implements the pairing coordinator: code generation, code
// redemption, and per-session status aggregation across the session, code,
// and connection stores.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	connectiondomain "nexty-pairing-service/internal/connection/domain"
	"nexty-pairing-service/internal/paircode"
	paircodedomain "nexty-pairing-service/internal/paircode/domain"
	paircoderepo "nexty-pairing-service/internal/paircode/repository"
	sessiondomain "nexty-pairing-service/internal/session/domain"
)

// Sentinel errors for the pairing service; the handler maps them to HTTP statuses.
var (
	ErrInvalidSessionID   = errors.New("session id must be non-empty and start with " + sessiondomain.IDPrefix)
	ErrCodeNotFound       = errors.New("pairing code not found")
	ErrCodeExpired        = errors.New("pairing code expired")
	ErrCodeConsumed       = errors.New("pairing code already used")
	ErrSelfPairing        = errors.New("cannot pair a session with itself")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique pairing code")
)

// SessionRepo is the minimal session repository needed by the pairing service.
type SessionRepo interface {
	Upsert(ctx context.Context, id string, deviceInfo json.RawMessage) (*sessiondomain.Session, error)
}

// CodeRepo is the minimal pairing code repository needed by the pairing service.
type CodeRepo interface {
	Create(ctx context.Context, c *paircodedomain.PairingCode) error
	Consume(ctx context.Context, code, redeemerSessionID string, now time.Time) (*paircodedomain.PairingCode, error)
	ListActiveByOwner(ctx context.Context, ownerSessionID string, now time.Time) ([]*paircodedomain.PairingCode, error)
}

// ConnectionRepo is the minimal connection repository needed by the pairing service.
type ConnectionRepo interface {
	Create(ctx context.Context, c *connectiondomain.Connection) error
	ListFor(ctx context.Context, sessionID string) ([]*connectiondomain.Connection, error)
	FindByCode(ctx context.Context, code string) (*connectiondomain.Connection, error)
}

// GenerateResult is the outcome of GenerateCode.
type GenerateResult struct {
	Code      string
	SessionID string
	Message   string
}

// PairResult is the outcome of PairDevice.
type PairResult struct {
	Message      string
	PairedWith   string
	ConnectionID string
}

// CodeStatus annotates one active code in a status report. Paired and
// PairedWith derive from the connection ledger, not the consumed flag, so a
// consumed code whose ledger append was lost reads as not paired rather than
// pointing at a connection that does not exist.
type CodeStatus struct {
	Code       string
	Paired     bool
	PairedWith string
	CreatedAt  time.Time
}

// ConnectionStatus describes one established connection from the caller's side.
type ConnectionStatus struct {
	PairedWith  string
	PairingCode string
	PairedAt    time.Time
}

// Status is the outcome of CheckStatus.
type Status struct {
	ActiveCodes []CodeStatus
	Connections []ConnectionStatus
}

// Service coordinates sessions, pairing codes, and connections. Stores are
// passed in explicitly; there is no process-wide state, so tests construct
// isolated instances.
type Service struct {
	sessions SessionRepo
	codes    CodeRepo
	conns    ConnectionRepo

	codeTTL     time.Duration
	codeLength  int
	maxAttempts int

	logger *zap.Logger
	nowF   func() time.Time

	codesGenerated metric.Int64Counter
	redeems        metric.Int64Counter
}

// New returns a pairing service with the given stores and code tunables.
func New(
	sessions SessionRepo,
	codes CodeRepo,
	conns ConnectionRepo,
	codeTTL time.Duration,
	codeLength, maxAttempts int,
	logger *zap.Logger,
) *Service {
	meter := otel.Meter("nexty-pairing-service/pairing")
	codesGenerated, _ := meter.Int64Counter("pairing.codes.generated",
		metric.WithDescription("Pairing codes successfully generated."))
	redeems, _ := meter.Int64Counter("pairing.redeems",
		metric.WithDescription("Pairing code redemption attempts by outcome."))
	return &Service{
		sessions:       sessions,
		codes:          codes,
		conns:          conns,
		codeTTL:        codeTTL,
		codeLength:     codeLength,
		maxAttempts:    maxAttempts,
		logger:         logger,
		nowF:           func() time.Time { return time.Now().UTC() },
		codesGenerated: codesGenerated,
		redeems:        redeems,
	}
}

// WithNow replaces the service clock. Tests use it to time-travel expiry.
func (s *Service) WithNow(nowF func() time.Time) *Service {
	s.nowF = nowF
	return s
}

// NewSession mints a fresh namespaced session id and stores the device info.
func (s *Service) NewSession(ctx context.Context, deviceInfo json.RawMessage) (*sessiondomain.Session, error) {
	id := sessiondomain.IDPrefix + uuid.New().String()
	return s.sessions.Upsert(ctx, id, deviceInfo)
}

// GenerateCode creates a pairing code owned by the session, creating the
// session lazily. Collisions with live codes are retried up to the attempt
// budget; exhaustion fails with ErrCodeSpaceExhausted and signals that the
// active-code population is too large for the configured code space.
func (s *Service) GenerateCode(ctx context.Context, sessionID string, deviceInfo json.RawMessage) (*GenerateResult, error) {
	if err := sessiondomain.ValidateID(sessionID); err != nil {
		return nil, ErrInvalidSessionID
	}
	if _, err := s.sessions.Upsert(ctx, sessionID, deviceInfo); err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	now := s.nowF()
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		value, err := paircode.Generate(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("generate code value: %w", err)
		}
		code := &paircodedomain.PairingCode{
			Code:           value,
			OwnerSessionID: sessionID,
			CreatedAt:      now,
			ExpiresAt:      now.Add(s.codeTTL),
		}
		err = s.codes.Create(ctx, code)
		if errors.Is(err, paircoderepo.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store code: %w", err)
		}
		s.codesGenerated.Add(ctx, 1)
		return &GenerateResult{
			Code:      value,
			SessionID: sessionID,
			Message:   fmt.Sprintf("pairing code generated; valid for %d seconds", int(s.codeTTL.Seconds())),
		}, nil
	}
	s.logger.Error("code generation retries exhausted",
		zap.Int("attempts", s.maxAttempts), zap.Int("code_length", s.codeLength))
	return nil, ErrCodeSpaceExhausted
}

// PairDevice redeems a pairing code on behalf of the session and records the
// connection. The consume transition is atomic in the code store; the ledger
// append that follows is not part of that transaction, so a failure here
// leaves the code consumed with no connection. That is surfaced as an error,
// never retried, and CheckStatus reads the ledger so the half-completed state
// shows as unpaired rather than inventing a connection.
func (s *Service) PairDevice(ctx context.Context, codeValue, sessionID string) (*PairResult, error) {
	if err := sessiondomain.ValidateID(sessionID); err != nil {
		return nil, ErrInvalidSessionID
	}
	codeValue = paircode.Normalize(codeValue)
	if codeValue == "" {
		return nil, ErrCodeNotFound
	}
	// Redeemers get a session record lazily too, so their status queries work.
	if _, err := s.sessions.Upsert(ctx, sessionID, nil); err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	code, err := s.codes.Consume(ctx, codeValue, sessionID, s.nowF())
	if err != nil {
		s.recordRedeem(ctx, err)
		switch {
		case errors.Is(err, paircoderepo.ErrCodeNotFound):
			return nil, ErrCodeNotFound
		case errors.Is(err, paircoderepo.ErrCodeExpired):
			return nil, ErrCodeExpired
		case errors.Is(err, paircoderepo.ErrCodeConsumed):
			return nil, ErrCodeConsumed
		case errors.Is(err, paircoderepo.ErrSelfPairing):
			return nil, ErrSelfPairing
		default:
			return nil, fmt.Errorf("consume code: %w", err)
		}
	}
	s.recordRedeem(ctx, nil)

	conn := &connectiondomain.Connection{
		ID:            uuid.New().String(),
		SessionA:      code.OwnerSessionID,
		SessionB:      sessionID,
		PairingCode:   code.Code,
		EstablishedAt: s.nowF(),
	}
	if err := s.conns.Create(ctx, conn); err != nil {
		s.logger.Error("connection append failed after code consume",
			zap.String("code", code.Code),
			zap.String("owner", code.OwnerSessionID),
			zap.String("redeemer", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("record connection: %w", err)
	}

	return &PairResult{
		Message:      fmt.Sprintf("successfully paired with %s", code.OwnerSessionID),
		PairedWith:   code.OwnerSessionID,
		ConnectionID: conn.ID,
	}, nil
}

// CheckStatus aggregates the session's active codes and connections. Read-only.
func (s *Service) CheckStatus(ctx context.Context, sessionID string) (*Status, error) {
	if err := sessiondomain.ValidateID(sessionID); err != nil {
		return nil, ErrInvalidSessionID
	}
	now := s.nowF()

	codes, err := s.codes.ListActiveByOwner(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("list active codes: %w", err)
	}
	conns, err := s.conns.ListFor(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	st := &Status{
		ActiveCodes: make([]CodeStatus, 0, len(codes)),
		Connections: make([]ConnectionStatus, 0, len(conns)),
	}
	for _, c := range codes {
		cs := CodeStatus{Code: c.Code, CreatedAt: c.CreatedAt}
		conn, err := s.conns.FindByCode(ctx, c.Code)
		if err != nil {
			return nil, fmt.Errorf("find connection by code: %w", err)
		}
		// Guard against recycled code values: the connection must involve us.
		if conn != nil && conn.Counterpart(sessionID) != "" {
			cs.Paired = true
			cs.PairedWith = conn.Counterpart(sessionID)
		}
		st.ActiveCodes = append(st.ActiveCodes, cs)
	}
	for _, conn := range conns {
		st.Connections = append(st.Connections, ConnectionStatus{
			PairedWith:  conn.Counterpart(sessionID),
			PairingCode: conn.PairingCode,
			PairedAt:    conn.EstablishedAt,
		})
	}
	return st, nil
}

func (s *Service) recordRedeem(ctx context.Context, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, paircoderepo.ErrCodeNotFound):
		outcome = "not_found"
	case errors.Is(err, paircoderepo.ErrCodeExpired):
		outcome = "expired"
	case errors.Is(err, paircoderepo.ErrCodeConsumed):
		outcome = "already_consumed"
	case errors.Is(err, paircoderepo.ErrSelfPairing):
		outcome = "self_pairing"
	default:
		outcome = "error"
	}
	s.redeems.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
