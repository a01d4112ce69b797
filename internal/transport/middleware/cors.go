package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/config"
)

// exposedHeaders are response headers browser clients of the ledger read.
const exposedHeaders = RequestIDHeader + ", Retry-After"

// CORS returns middleware that handles Cross-Origin Resource Sharing.
// Allowed origins are echoed back, never "*", so responses vary by Origin.
// Preflight OPTIONS requests are answered without reaching the ledger.
func CORS(cfg config.CORSConfig) Middleware {
	allowAny := false
	allowed := make(map[string]struct{})
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			allowAny = true
		default:
			allowed[o] = struct{}{}
		}
	}
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok || allowAny {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Expose-Headers", exposedHeaders)
					if cfg.AllowCredentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
				}
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				h.Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
