package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"waste-billing/internal/api/handler"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := handler.NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), discardLogger())
		rec := httptest.NewRecorder()
		h.Health(rec, newRequest(http.MethodGet, "/health", ""))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		h := handler.NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") }), discardLogger())
		rec := httptest.NewRecorder()
		h.Health(rec, newRequest(http.MethodGet, "/health", ""))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"degraded"}`, rec.Body.String())
	})
}
