package httpserver

import (
	"net/http"

	"github.com/fdg312/fitness-hub/internal/config"
	"github.com/rs/cors"
)

const corsMaxAgeSeconds = 600

// CORS wraps next with the configured origin allow-list.
func CORS(cfg *config.Config, next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           corsMaxAgeSeconds,
	})
	return c.Handler(next)
}
