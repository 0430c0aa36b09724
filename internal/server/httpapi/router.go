package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router builds the handler tree. Every route is reachable both at the root
// and under /api.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chiMiddleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(s.opts.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "access_token"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Group(s.routes)
	r.Route("/api", s.routes)

	return r
}

func (s *HTTPServer) routes(r chi.Router) {
	r.Get("/health", s.health)

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", s.signup)
		r.Post("/login", s.login)
		r.With(s.accessTokenMiddleware).Get("/me", s.me)
	})

	r.Route("/media", func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)
		r.Post("/add", s.addMedia)
		r.Post("/delete", s.deleteMedia)
		r.Post("/update", s.updateMedia)
		r.Post("/search", s.searchMedia)
		r.Get("/{mediaId}", s.getMedia)
	})
}

func (s *HTTPServer) allowedOrigins() []string {
	if len(s.opts.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.opts.AllowedOrigins
}
