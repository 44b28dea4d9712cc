package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studytrack/pkg/db"
)

// Routes constructs the chi router containing all API endpoints. The
// middleware chain is fixed: rate-limit runs before auth, auth before the
// handler, so short-circuit behavior is uniform per route group.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	allowed := a.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReady)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.Limit(a.config.AuthRateLimitPerMinute, time.Minute))
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Post("/refresh", a.handleRefresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(a.config.RateLimitPerMinute, time.Minute))
		r.Use(a.requireAuth)

		r.Route("/subjects", func(r chi.Router) {
			r.Post("/", a.handleCreateSubject)
			r.Get("/", a.handleListSubjects)
			r.Get("/{id}", a.handleGetSubject)
			r.Put("/{id}", a.handleUpdateSubject)
			r.Delete("/{id}", a.handleDeleteSubject)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.handleCreateSession)
			r.Get("/", a.handleListSessions)
			r.Get("/{id}", a.handleGetSession)
			r.Put("/{id}", a.handleUpdateSession)
			r.Delete("/{id}", a.handleDeleteSession)
		})
	})

	return r, nil
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if a.store.DB != nil {
		if err := db.Ping(ctx, a.store.DB); err != nil {
			respondError(w, http.StatusServiceUnavailable, err)
			return
		}
	} else {
		sqlDB, err := a.store.ORM.DB()
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, err)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, err)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
