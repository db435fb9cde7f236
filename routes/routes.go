package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/in4everyall/tennisclub-league/handlers"
	"github.com/in4everyall/tennisclub-league/metrics"
	"github.com/in4everyall/tennisclub-league/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/in4everyall/tennisclub-league/docs"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Recorder       *metrics.Recorder
	MetricsHandler http.Handler // nil disables /metrics
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	matchHandler *handlers.MatchHandler,
	rankingHandler *handlers.RankingHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler)
	}

	// WebSocket без метрик: обёртка ответа не должна мешать Upgrade
	router.With(middleware.Authenticate(opts.JWTSecret)).Get("/ws/phases/{phaseCode}", webSocketHandler.ServeWs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Metrics(opts.Recorder))
		r.Use(middleware.Authenticate(opts.JWTSecret))

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", matchHandler.SubmitMatch)
			r.Get("/me", matchHandler.MyMatches)
			r.Get("/me/phases", matchHandler.MyPhaseCodes)
			r.Get("/pending", matchHandler.PendingExists)
			r.Post("/{matchID}/confirm", matchHandler.ConfirmMatch)
			r.Post("/{matchID}/reject", matchHandler.RejectMatch)
		})

		r.Route("/standings", func(r chi.Router) {
			r.Get("/me", rankingHandler.MyStandings)
			r.Get("/groups/{groupNo}", rankingHandler.GroupStandings)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/matches", matchHandler.AdminSubmitMatch)
			r.Post("/matches/{matchID}/cancel", matchHandler.CancelMatch)
			r.Get("/players", adminHandler.ListPlayers)

			r.Route("/phases", func(r chi.Router) {
				r.Get("/", adminHandler.PhaseCodes)
				r.Post("/advance", adminHandler.AdvancePhase)
				r.Post("/{phaseCode}/close", adminHandler.ClosePhase)
				r.Get("/{phaseCode}/movements", adminHandler.PreviewMovements)
				r.Get("/{phaseCode}/summary", adminHandler.MatchesSummary)
				r.Post("/{phaseCode}/confirm-all", adminHandler.ConfirmAll)
				r.Get("/{phaseCode}/standings", rankingHandler.PhaseStandings)
			})
		})
	})
}
