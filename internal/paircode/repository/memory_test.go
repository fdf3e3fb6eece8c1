package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"nexty-pairing-service/internal/paircode/domain"
)

func newCode(code, owner string, createdAt time.Time, ttl time.Duration) *domain.PairingCode {
	return &domain.PairingCode{
		Code:           code,
		OwnerSessionID: owner,
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(ttl),
	}
}

func TestMemoryRepository_Create_RejectsLiveDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~B", now, 5*time.Minute))
	if !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("Create duplicate = %v, want ErrDuplicateCode", err)
	}
}

func TestMemoryRepository_Create_ReplacesExpiredLeftover(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now.Add(-10*time.Minute), 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~B", now, 5*time.Minute)); err != nil {
		t.Errorf("Create over expired leftover = %v, want nil", err)
	}

	list, err := repo.ListActiveByOwner(ctx, "Nexty~B", now)
	if err != nil {
		t.Fatalf("ListActiveByOwner: %v", err)
	}
	if len(list) != 1 || list[0].Code != "7F3K9Q" {
		t.Errorf("list = %+v, want the replacement code", list)
	}
}

func TestMemoryRepository_Consume_Success(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	c, err := repo.Consume(ctx, "7F3K9Q", "Nexty~B", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !c.Consumed {
		t.Error("Consumed should be true")
	}
	if c.ConsumerSessionID != "Nexty~B" {
		t.Errorf("ConsumerSessionID = %q, want %q", c.ConsumerSessionID, "Nexty~B")
	}
	if c.OwnerSessionID != "Nexty~A" {
		t.Errorf("OwnerSessionID = %q, want %q", c.OwnerSessionID, "Nexty~A")
	}
}

func TestMemoryRepository_Consume_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.Consume(context.Background(), "NOSUCH", "Nexty~B", time.Now().UTC())
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Consume = %v, want ErrCodeNotFound", err)
	}
}

func TestMemoryRepository_Consume_Expired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Consume(ctx, "7F3K9Q", "Nexty~B", now.Add(5*time.Minute))
	if !errors.Is(err, ErrCodeExpired) {
		t.Errorf("Consume at TTL boundary = %v, want ErrCodeExpired", err)
	}
	// The lazy cleanup removed the row.
	_, err = repo.Consume(ctx, "7F3K9Q", "Nexty~B", now.Add(5*time.Minute))
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Consume after cleanup = %v, want ErrCodeNotFound", err)
	}
}

func TestMemoryRepository_Consume_AlreadyConsumed(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Consume(ctx, "7F3K9Q", "Nexty~B", now); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	_, err := repo.Consume(ctx, "7F3K9Q", "Nexty~C", now)
	if !errors.Is(err, ErrCodeConsumed) {
		t.Errorf("second Consume = %v, want ErrCodeConsumed", err)
	}
}

func TestMemoryRepository_Consume_SelfPairing(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Consume(ctx, "7F3K9Q", "Nexty~A", now)
	if !errors.Is(err, ErrSelfPairing) {
		t.Errorf("Consume by owner = %v, want ErrSelfPairing", err)
	}
	// The rejection must not consume the code.
	if _, err := repo.Consume(ctx, "7F3K9Q", "Nexty~B", now); err != nil {
		t.Errorf("Consume after self-pair rejection = %v, want nil", err)
	}
}

func TestMemoryRepository_Consume_ExactlyOnceUnderContention(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("7F3K9Q", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 64
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = repo.Consume(ctx, "7F3K9Q", fmt.Sprintf("Nexty~redeemer-%d", i), now)
		}(i)
	}
	close(start)
	wg.Wait()

	var successes, consumed int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrCodeConsumed):
			consumed++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if consumed != n-1 {
		t.Errorf("ErrCodeConsumed count = %d, want %d", consumed, n-1)
	}
}

func TestMemoryRepository_ListActiveByOwner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("AAAAAA", "Nexty~A", now.Add(-2*time.Minute), 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newCode("BBBBBB", "Nexty~A", now.Add(-time.Minute), 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newCode("CCCCCC", "Nexty~A", now.Add(-10*time.Minute), 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newCode("DDDDDD", "Nexty~other", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Consumed codes stay listed until they expire.
	if _, err := repo.Consume(ctx, "BBBBBB", "Nexty~B", now); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	list, err := repo.ListActiveByOwner(ctx, "Nexty~A", now)
	if err != nil {
		t.Fatalf("ListActiveByOwner: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2 (expired and foreign codes excluded)", len(list))
	}
	if list[0].Code != "AAAAAA" || list[1].Code != "BBBBBB" {
		t.Errorf("list order = %q, %q; want AAAAAA, BBBBBB", list[0].Code, list[1].Code)
	}
	if !list[1].Consumed {
		t.Error("consumed code should remain listed with Consumed set")
	}
}

func TestMemoryRepository_DeleteExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("AAAAAA", "Nexty~A", now.Add(-10*time.Minute), 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newCode("BBBBBB", "Nexty~A", now, 5*time.Minute)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired = %d, want 1", n)
	}

	list, err := repo.ListActiveByOwner(ctx, "Nexty~A", now)
	if err != nil {
		t.Fatalf("ListActiveByOwner: %v", err)
	}
	if len(list) != 1 || list[0].Code != "BBBBBB" {
		t.Errorf("list after sweep = %+v, want only BBBBBB", list)
	}
}
