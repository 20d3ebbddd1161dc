package router

import (
	"go-dating-api/handler"
	"go-dating-api/service"
	"net/http"
)

// NewRouter wires the HTTP surface of the auth module. Product endpoints
// (discovery, chat, matches) live in sibling services that consume this
// module's session manager.
func NewRouter(sessions *service.SessionService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthCheck)

	authMiddleware := handler.NewAuthMiddleware(sessions)
	mux.Handle("/api/me", authMiddleware(handler.ErrorHandlingMiddleware(handler.Me)))

	return mux
}
