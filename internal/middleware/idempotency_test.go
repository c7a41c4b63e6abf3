package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bazaarpay/bazaar_wallet/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	logger := logging.Discard()
	app.Use(Idempotency(cache, time.Minute, logger))

	calls := 0
	app.Post("/wallets/u1/transactions", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"calls": calls})
	})

	requests := 0
	app.Post("/requests", func(c *fiber.Ctx) error {
		requests++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"requests": requests})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/wallets/u1/transactions", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	post := func() (int, map[string]int) {
		req := httptest.NewRequest(fiber.MethodPost, "/wallets/u1/transactions", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set("Idempotency-Key", "post-1")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		var decoded map[string]int
		_ = json.Unmarshal(body, &decoded)
		return resp.StatusCode, decoded
	}

	status, first := post()
	if status != fiber.StatusCreated || first["calls"] != 1 {
		t.Fatalf("unexpected first response: %d %v", status, first)
	}

	status, second := post()
	if status != fiber.StatusCreated || second["calls"] != 1 {
		t.Fatalf("expected replayed response, got %d %v", status, second)
	}
}

func TestIdempotencyKeyScopedPerRoute(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	post := func(path string) map[string]int {
		req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set("Idempotency-Key", "shared-key")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		var decoded map[string]int
		_ = json.Unmarshal(body, &decoded)
		return decoded
	}

	// The same client key on two routes must not replay across them.
	first := post("/wallets/u1/transactions")
	second := post("/requests")
	if first["calls"] != 1 || second["requests"] != 1 {
		t.Fatalf("expected both routes to execute, got %v and %v", first, second)
	}
}

func TestIdempotencyDistinctKeysExecute(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	for i, key := range []string{"key-a", "key-b"} {
		req := httptest.NewRequest(fiber.MethodPost, "/wallets/u1/transactions", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set("Idempotency-Key", key)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		var decoded map[string]int
		_ = json.Unmarshal(body, &decoded)
		if decoded["calls"] != i+1 {
			t.Fatalf("expected call %d to execute, got %v", i+1, decoded)
		}
	}
}
