package paircode

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// sweepTimeout is the max time allowed for a single reclamation pass.
const sweepTimeout = 5 * time.Second

// ExpiredDeleter reclaims storage for codes past their TTL.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired codes from storage. It is a storage
// reclamation aid only; expiry is enforced lazily at consume and list time.
type Sweeper struct {
	store    ExpiredDeleter
	interval time.Duration
	logger   *zap.Logger
	nowF     func() time.Time
	done     chan struct{}
}

// NewSweeper returns a sweeper running one pass every interval.
func NewSweeper(store ExpiredDeleter, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		nowF:     func() time.Time { return time.Now().UTC() },
		done:     make(chan struct{}),
	}
}

// Run sweeps until ctx is cancelled or Stop is called. Errors are logged and
// the loop keeps going; a failed pass only delays reclamation.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop terminates the Run loop. Safe to call once.
func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	n, err := s.store.DeleteExpired(sweepCtx, s.nowF())
	if err != nil {
		s.logger.Warn("expired code sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("reclaimed expired pairing codes", zap.Int64("count", n))
	}
}
