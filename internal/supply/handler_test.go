package supply

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/wallet"
)

func TestMintRequiresToken(t *testing.T) {
	led := ledger.NewInMemory(nil)
	walletSvc := wallet.NewService(wallet.NewMemoryRepository(), led)
	svc := NewService(led, walletSvc, nil, 1_000)
	h := NewHandler(svc, "genesis-secret")

	app := fiber.New()
	app.Post("/supply/mint", h.Mint)

	w, err := walletSvc.Create(context.Background(), wallet.CreateInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	body := `{"wallet_id":"` + w.ID + `"}`

	send := func(token string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/supply/mint", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(mintTokenHeader, token)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	if status := send(""); status != fiber.StatusForbidden {
		t.Fatalf("expected %d without token, got %d", fiber.StatusForbidden, status)
	}
	if status := send("wrong-secret"); status != fiber.StatusForbidden {
		t.Fatalf("expected %d with wrong token, got %d", fiber.StatusForbidden, status)
	}
	if status := send("genesis-secret"); status != fiber.StatusCreated {
		t.Fatalf("expected %d with token, got %d", fiber.StatusCreated, status)
	}

	// Supply must be untouched by the rejected attempts.
	info, _ := svc.Info(context.Background())
	if info.TotalSupply != 1_000 {
		t.Fatalf("expected one mint of 1000, got supply %d", info.TotalSupply)
	}
}
