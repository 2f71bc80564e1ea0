package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-pairing/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router chi.Router,
	allowedOrigins []string,
	tournamentHandler *handlers.TournamentHandler,
	pairingHandler *handlers.PairingHandler,
	knockoutHandler *handlers.KnockoutHandler,
	standingsHandler *handlers.StandingsHandler,
	resultHandler *handlers.ResultHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Post("/formats", tournamentHandler.CreateFormat)

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.CreateTournament)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetTournament)
			r.Post("/competitors", tournamentHandler.AddCompetitor)

			r.Post("/bracket", knockoutHandler.CreateBracket)

			r.Get("/standings", standingsHandler.GetStandings)
			r.Post("/standings", standingsHandler.RecalculateStandings)

			r.Route("/rounds/{roundNumber}", func(r chi.Router) {
				r.Post("/pairings", pairingHandler.GeneratePairings)
				r.Delete("/pairings", pairingHandler.DeletePairings)
				r.Post("/advance", knockoutHandler.Advance)

				r.Route("/pairings/{pairingOrder}", func(r chi.Router) {
					r.Put("/games/{board}", resultHandler.RecordResult)
					r.Put("/tiebreak", resultHandler.SetManualTiebreak)
				})
			})
		})
	})
}
