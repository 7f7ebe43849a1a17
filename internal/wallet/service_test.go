package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/savanna-labs/savanna/internal/ledger"
)

func TestCreateProvisionsLedgerAccount(t *testing.T) {
	led := ledger.NewInMemory(nil)
	svc := NewService(NewMemoryRepository(), led)
	ctx := context.Background()

	w, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.AccountCode != "acct:"+w.ID {
		t.Fatalf("unexpected account code: %s", w.AccountCode)
	}

	balance, err := svc.Balance(ctx, w.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Amount != 0 {
		t.Fatalf("expected zero starting balance, got %d", balance.Amount)
	}
}

func TestCreateRejectsInvalidOwner(t *testing.T) {
	led := ledger.NewInMemory(nil)
	svc := NewService(NewMemoryRepository(), led)

	if _, err := svc.Create(context.Background(), CreateInput{OwnerID: "not-a-uuid"}); err == nil {
		t.Fatalf("expected owner validation error")
	}
}

func TestPositionReflectsLedger(t *testing.T) {
	led := ledger.NewInMemory(nil)
	svc := NewService(NewMemoryRepository(), led)
	ctx := context.Background()

	w, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ledger.SeedBalance(led, w.AccountCode, 10_000)
	if _, err := led.Stake(ctx, w.AccountCode, 4_000); err != nil {
		t.Fatalf("stake: %v", err)
	}

	pos, err := svc.Position(ctx, w.ID)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.WalletBalance != 6_000 || pos.StakedAmount != 4_000 {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestGetByOwner(t *testing.T) {
	led := ledger.NewInMemory(nil)
	svc := NewService(NewMemoryRepository(), led)
	ctx := context.Background()

	owner := uuid.NewString()
	w, err := svc.Create(ctx, CreateInput{OwnerID: owner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := svc.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("get by owner: %v", err)
	}
	if found.ID != w.ID {
		t.Fatalf("expected %s, got %s", w.ID, found.ID)
	}

	if _, err := svc.GetByOwner(ctx, uuid.NewString()); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
