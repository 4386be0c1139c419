package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/novatech/management-backend/pkg/config"
)

// CORS applies the configured origin allow-list. Bearer tokens travel in the
// Authorization header, so credentials (cookies) are not allowed.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
