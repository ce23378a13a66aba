package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := checkerFunc(func(context.Context) error { return nil })
	down := checkerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checkers   map[string]Checker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all ok",
			checkers:   map[string]Checker{"mongo": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK","data":{"mongo":"ok","redis":"ok","status":"ok"}}`,
		},
		{
			name:       "redis down",
			checkers:   map[string]Checker{"mongo": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"Error","error":"service unavailable","data":{"mongo":"ok","redis":"unavailable"}}`,
		},
		{
			name:       "no dependencies",
			checkers:   nil,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK","data":{"status":"ok"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(log, tt.checkers).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
