package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler applies CORS headers for allowedOrigins. Idempotency-Key is exposed to
// browsers so clients can retry writes safely.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key"},
	})
	return c.Handler
}
