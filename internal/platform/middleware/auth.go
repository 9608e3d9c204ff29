package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator validates a bearer token and returns the operator identity
// it carries. The concrete implementation lives in internal/token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

// OperatorClaims is the identity extracted from a validated token.
type OperatorClaims struct {
	OperatorID string
}

type contextKeyOperatorID struct{}

// GetOperatorID retrieves the authenticated operator ID from the context.
func GetOperatorID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyOperatorID{}).(string); ok {
		return id
	}
	return ""
}

// WithOperatorID injects an operator ID into a context. Useful for service
// unit tests that don't run the full HTTP middleware chain.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, contextKeyOperatorID{}, operatorID)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// operator identity in the request context. Whether that operator is on an
// authorization list is a separate concern handled by the dispatcher guard.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyOperatorID{}, claims.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
