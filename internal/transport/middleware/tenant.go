package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/auth"
	"github.com/emissioncoresupport/evidence-ledger/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (auth.Identity, error)
}

// Tenant resolves the calling tenant and user from the bearer token.
// Unlike the rest of the chain it never lets an anonymous request through:
// every ledger operation is tenant-scoped.
func Tenant(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			id, err := validator.ValidateAccessToken(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			ctx := ctxutil.WithTenantID(r.Context(), id.TenantID)
			ctx = ctxutil.WithUserID(ctx, id.UserID)
			annotateRequest(ctx, id.TenantID, id.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="evidence-ledger"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
