package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerStub struct {
	err   error
	calls int
}

func (p *pingerStub) Ping(_ context.Context) error {
	p.calls++
	return p.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLive_Always200(t *testing.T) {
	t.Parallel()

	db := &pingerStub{err: errors.New("connection refused")}
	h := NewHealthHandler(db, "test-version")

	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Equal(t, 0, db.calls, "liveness must not touch dependencies")
}

func TestReadyAndHealth(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection refused")

	tests := []struct {
		name       string
		dbErr      error
		redisErr   error
		wantStatus int
		wantBody   string
		wantDown   []string
	}{
		{"all up", nil, nil, http.StatusOK, "ok", nil},
		{"database down", refused, nil, http.StatusServiceUnavailable, "down", []string{"database"}},
		{"redis down", nil, refused, http.StatusServiceUnavailable, "down", []string{"redis"}},
		{"both down", refused, refused, http.StatusServiceUnavailable, "down", []string{"database", "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(&pingerStub{err: tt.dbErr}, "v1.0.0").
				WithComponent("redis", &pingerStub{err: tt.redisErr})

			t.Run("ready", func(t *testing.T) {
				rec := httptest.NewRecorder()
				h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

				assert.Equal(t, tt.wantStatus, rec.Code)
				resp := decodeHealth(t, rec)
				assert.Equal(t, tt.wantBody, resp.Status)
				assert.Empty(t, resp.Version)
				assert.Len(t, resp.Components, len(tt.wantDown))
				for _, name := range tt.wantDown {
					assert.Equal(t, "down", resp.Components[name].Status, name)
				}
			})

			t.Run("health", func(t *testing.T) {
				rec := httptest.NewRecorder()
				h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

				assert.Equal(t, tt.wantStatus, rec.Code)
				resp := decodeHealth(t, rec)
				assert.Equal(t, tt.wantBody, resp.Status)
				assert.Equal(t, "v1.0.0", resp.Version)
				require.Len(t, resp.Components, 2)
				for name, c := range resp.Components {
					if assert.Contains(t, []string{"ok", "down"}, c.Status) && c.Status == "ok" {
						assert.NotEmpty(t, c.Latency, name)
					} else {
						assert.Empty(t, c.Latency, name)
					}
				}
				for _, name := range tt.wantDown {
					assert.Equal(t, "down", resp.Components[name].Status, name)
				}
			})
		})
	}
}

func TestHealth_TimestampUTC(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&pingerStub{}, "v1.0.0")

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	ts, ok := raw["timestamp"].(string)
	require.True(t, ok)
	assert.Regexp(t, `Z$`, ts)
}

func TestHealth_PingHonorsRequestContext(t *testing.T) {
	t.Parallel()

	var sawDeadline bool
	h := NewHealthHandler(pingerFunc(func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return ctx.Err()
	}), "v1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil).WithContext(ctx))

	assert.True(t, sawDeadline)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
