package repository

import (
	"context"
	"testing"
	"time"

	"nexty-pairing-service/internal/connection/domain"
)

func TestMemoryRepository_ListFor_BothSides(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	conn := &domain.Connection{
		ID:            "conn-1",
		SessionA:      "Nexty~A",
		SessionB:      "Nexty~B",
		PairingCode:   "7F3K9Q",
		EstablishedAt: now,
	}
	if err := repo.Create(ctx, conn); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, side := range []string{"Nexty~A", "Nexty~B"} {
		list, err := repo.ListFor(ctx, side)
		if err != nil {
			t.Fatalf("ListFor(%s): %v", side, err)
		}
		if len(list) != 1 {
			t.Fatalf("ListFor(%s) = %d connections, want 1", side, len(list))
		}
		if list[0].ID != "conn-1" {
			t.Errorf("ListFor(%s) ID = %q, want conn-1", side, list[0].ID)
		}
	}

	list, err := repo.ListFor(ctx, "Nexty~C")
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListFor(nonparticipant) = %d connections, want 0", len(list))
	}
}

func TestMemoryRepository_Counterpart(t *testing.T) {
	conn := &domain.Connection{SessionA: "Nexty~A", SessionB: "Nexty~B"}
	if got := conn.Counterpart("Nexty~A"); got != "Nexty~B" {
		t.Errorf("Counterpart(A) = %q, want Nexty~B", got)
	}
	if got := conn.Counterpart("Nexty~B"); got != "Nexty~A" {
		t.Errorf("Counterpart(B) = %q, want Nexty~A", got)
	}
	if got := conn.Counterpart("Nexty~C"); got != "" {
		t.Errorf("Counterpart(C) = %q, want empty", got)
	}
}

func TestMemoryRepository_FindByCode_NewestWins(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	old := &domain.Connection{ID: "conn-1", SessionA: "Nexty~A", SessionB: "Nexty~B", PairingCode: "7F3K9Q", EstablishedAt: now.Add(-time.Hour)}
	recent := &domain.Connection{ID: "conn-2", SessionA: "Nexty~C", SessionB: "Nexty~D", PairingCode: "7F3K9Q", EstablishedAt: now}
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, recent); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.FindByCode(ctx, "7F3K9Q")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if got == nil || got.ID != "conn-2" {
		t.Errorf("FindByCode = %+v, want conn-2", got)
	}
}

func TestMemoryRepository_FindByCode_Missing(t *testing.T) {
	repo := NewMemoryRepository()

	got, err := repo.FindByCode(context.Background(), "NOSUCH")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if got != nil {
		t.Errorf("FindByCode = %+v, want nil", got)
	}
}
