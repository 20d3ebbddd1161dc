package handler

import (
	"context"
	"errors"
	"go-dating-api/common"
	"go-dating-api/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
	UserRoleKey  contextKey = "userRole"
)

// NewAuthMiddleware returns a middleware that authorizes every protected
// request: the bearer token must not be blacklisted and its claims must
// verify. On success the caller's identity lands in the request context.
func NewAuthMiddleware(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				appErr := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
				appErr.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				appErr.Send(w)
				return
			}

			claims, err := sessions.ValidateAccessToken(r.Context(), headerParts[1])
			if err != nil {
				message := "Invalid or expired token"
				if errors.Is(err, service.ErrTokenRevoked) {
					message = "Token has been revoked"
				}
				appErr := common.NewAppError(http.StatusUnauthorized, message, err)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID())
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
