package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

type body struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func newErrorTestApp() *fiber.App {
	app := fiber.New(fiber.Config{})
	app.Use(NewErrorMiddleware(log.New(io.Discard, "", 0)).Middleware())

	app.Get("/panic", func(c fiber.Ctx) error {
		panic("boom")
	})
	app.Get("/bad", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusBadRequest, "", map[string]string{"field": "user_id"}, nil)
	})
	app.Get("/gateway", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusBadGateway, "Sync to matching service failed", map[string]string{"leak": "x"}, errors.New("dial tcp"))
	})
	app.Get("/plain", func(c fiber.Ctx) error {
		return errors.New("unexpected")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, body) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var b body
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("GET %s: decode: %v", path, err)
	}
	return resp.StatusCode, b
}

func TestErrorMiddleware(t *testing.T) {
	app := newErrorTestApp()

	tests := []struct {
		path    string
		status  int
		message string
		hasData bool
	}{
		{path: "/panic", status: 500, message: "internal server error"},
		{path: "/bad", status: 400, message: "bad request", hasData: true},
		{path: "/gateway", status: 502, message: "Sync to matching service failed"},
		{path: "/plain", status: 500, message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, b := get(t, app, tt.path)
			if status != tt.status || b.Status != tt.status {
				t.Fatalf("expected status %d, got http=%d body=%d", tt.status, status, b.Status)
			}
			if b.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, b.Message)
			}
			if (b.Data != nil) != tt.hasData {
				t.Fatalf("unexpected data: %v", b.Data)
			}
		})
	}
}

func TestBearerTokenFromHeader(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "bearer   abc  ", token: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}
	for _, tt := range tests {
		token, ok := bearerTokenFromHeader(tt.header)
		if ok != tt.ok || token != tt.token {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tt.header, token, ok, tt.token, tt.ok)
		}
	}
}
