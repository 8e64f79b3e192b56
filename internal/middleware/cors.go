package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS 允许 origins 中的来源访问 API；为空时允许任意来源。
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !allowAll,
		MaxAge:           300,
	})
}
