package auth

import (
	"context"
	"net/http"

	"eventhub/internal/models"
	"eventhub/internal/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Middleware verifies the request's JWT and puts the user id into the
// request context. Requests without a valid token get a 401.
func Middleware(secret, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r, cookieName)
			if err != nil {
				utils.WriteError(w, models.ErrUnauthenticated)
				return
			}

			claims, err := VerifyToken(secret, rawToken)
			if err != nil {
				utils.WriteError(w, models.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id set by Middleware.
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}

// WithUserID is used by tests to simulate an authenticated request.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
