package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emissioncoresupport/evidence-ledger/internal/config"
)

func TestCORS_Preflight(t *testing.T) {
	cfg := config.CORSConfig{
		AllowedOrigins:   "https://console.example.com",
		AllowedMethods:   "GET,POST,PATCH,OPTIONS",
		AllowedHeaders:   "Authorization,Content-Type",
		AllowCredentials: true,
		MaxAge:           86400,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for preflight")
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/evidence", nil)
	req.Header.Set("Origin", "https://console.example.com")
	rec := httptest.NewRecorder()

	CORS(cfg)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST,PATCH,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Authorization,Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name        string
		allowed     string
		credentials bool
		origin      string
		wantOrigin  string
		wantCreds   string
	}{
		{"listed origin", "https://a.example.com, https://b.example.com", true, "https://b.example.com", "https://b.example.com", "true"},
		{"unlisted origin", "https://a.example.com", true, "https://evil.example.com", "", ""},
		{"wildcard echoes origin", "*", false, "https://any.example.com", "https://any.example.com", ""},
		{"no origin header", "*", true, "", "", ""},
		{"empty allow list", "", false, "https://a.example.com", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.CORSConfig{
				AllowedOrigins:   tt.allowed,
				AllowedMethods:   "GET,POST",
				AllowedHeaders:   "Authorization",
				AllowCredentials: tt.credentials,
				MaxAge:           3600,
			}

			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/evidence", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()

			CORS(cfg)(handler).ServeHTTP(rec, req)

			assert.True(t, called, "handler must run for non-preflight requests")
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, rec.Header().Values("Vary"), "Origin")
		})
	}
}

func TestCORS_ExposesLedgerHeaders(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: "https://console.example.com"}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/evidence", nil)
	req.Header.Set("Origin", "https://console.example.com")
	rec := httptest.NewRecorder()

	CORS(cfg)(handler).ServeHTTP(rec, req)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "X-Request-Id")
	assert.Contains(t, exposed, "Retry-After")
}
