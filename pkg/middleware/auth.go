package middleware

import (
	"context"
	"net/http"
	"strings"

	"glec/pkg/auth"
	apperrors "glec/pkg/errors"
	"glec/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const claimsKey contextKey = "admin_claims"

// TokenParser validates a bearer token.
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// RequireRole wraps an httprouter handle with bearer authentication and a
// minimum role check.
func RequireRole(parser TokenParser, required auth.Role, log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			reject(w, r, log, apperrors.Unauthorized("Authentication required"))
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			log.WarnContext(r.Context(), "Rejected admin token", "error", err, "path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			reject(w, r, log, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		if !claims.Role.Allows(required) {
			log.WarnContext(r.Context(), "Admin role too low",
				"subject", claims.Subject,
				"role", claims.Role,
				"required", required,
			)
			reject(w, r, log, apperrors.Forbidden("Insufficient role"))
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)), ps)
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
