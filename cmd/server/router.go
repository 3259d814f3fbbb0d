package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/physlab/physlab-api/internal/api/middleware"
	"github.com/physlab/physlab-api/internal/domain"
)

// setupRouter configures the route tree and middleware chain.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Public authentication endpoints.
		r.Post("/auth/register", app.authHandler.Register)
		r.Post("/auth/login", app.authHandler.Login)
		r.Post("/auth/refresh", app.authHandler.Refresh)

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(app.authMiddleware.Authenticate)

			r.Get("/users/me", app.userHandler.GetProfile)
			r.Put("/users/me", app.userHandler.UpdateProfile)

			r.Get("/simulations", app.simulationHandler.List)
			r.Get("/simulations/{simulationID}", app.simulationHandler.Get)

			r.Post("/sessions/start", app.sessionHandler.Start)
			r.Post("/sessions/{sessionID}/snapshot", app.sessionHandler.Snapshot)
			r.Post("/sessions/{sessionID}/end", app.sessionHandler.End)
			r.Get("/sessions/analytics", app.sessionHandler.Analytics)
			r.Get("/sessions/{sessionID}", app.sessionHandler.Get)
			r.Get("/sessions", app.sessionHandler.List)

			r.Post("/progress", app.progressHandler.Save)
			r.Get("/progress/stats", app.progressHandler.Stats)
			r.Get("/progress", app.progressHandler.List)
			r.Delete("/progress/{progressID}", app.progressHandler.Delete)

			r.Get("/achievements", app.achievementHandler.List)
			r.Get("/achievements/leaderboard", app.achievementHandler.Leaderboard)

			r.Post("/reports", app.reportHandler.Create)
			r.Get("/reports", app.reportHandler.List)
			r.Get("/reports/{reportID}", app.reportHandler.Get)
			r.Put("/reports/{reportID}", app.reportHandler.Update)

			// Manual awards are restricted to administrators.
			r.Group(func(r chi.Router) {
				r.Use(app.roleMiddleware.RequireRole(domain.RoleAdmin))
				r.Post("/achievements/award", app.achievementHandler.Award)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response",
				"error", err)
		}
	})

	return r
}
