package routes

import (
	"github.com/courtsync/tournament-system/handlers"
	"github.com/courtsync/tournament-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires every handler into the router. All tenant data sits
// behind JWT auth; only the websocket stream is open, it carries no more
// than what the public scoreboard shows.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	tournamentHandler *handlers.TournamentHandler,
	stagingHandler *handlers.StagingHandler,
	matchHandler *handlers.MatchHandler,
	schedulingHandler *handlers.SchedulingHandler,
	standingsHandler *handlers.StandingsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
			r.Get("/{tournamentID}/detail", tournamentHandler.GetDetailHandler)

			r.Get("/{tournamentID}/couples", tournamentHandler.ListCouplesHandler)
			r.Post("/{tournamentID}/couples", tournamentHandler.CreateCoupleHandler)

			r.Get("/{tournamentID}/stages", stagingHandler.ListStagesHandler)
			r.Post("/{tournamentID}/stages", stagingHandler.CreateStageHandler)

			r.Get("/{tournamentID}/matches", matchHandler.ListByTournamentHandler)
			r.Get("/{tournamentID}/standings", standingsHandler.TournamentStandingsHandler)
			r.Post("/{tournamentID}/stats/rebuild", standingsHandler.RebuildStatsHandler)
		})

		r.Route("/stages", func(r chi.Router) {
			r.Get("/{stageID}", stagingHandler.GetStageHandler)
			r.Put("/{stageID}/config", stagingHandler.UpdateStageConfigHandler)
			r.Delete("/{stageID}", stagingHandler.DeleteStageHandler)

			r.Get("/{stageID}/groups", stagingHandler.ListGroupsHandler)
			r.Post("/{stageID}/groups", stagingHandler.CreateGroupHandler)
			r.Get("/{stageID}/brackets", stagingHandler.ListBracketsHandler)
			r.Post("/{stageID}/brackets", stagingHandler.CreateBracketHandler)

			r.Post("/{stageID}/generate", stagingHandler.GenerateStageHandler)
			r.Delete("/{stageID}/matches", stagingHandler.DeleteUnplayedMatchesHandler)
			r.Post("/{stageID}/schedule", schedulingHandler.AutoScheduleHandler)
			r.Post("/{stageID}/advance", standingsHandler.AdvanceHandler)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Delete("/{groupID}", stagingHandler.DeleteGroupHandler)
			r.Post("/{groupID}/couples", stagingHandler.AssignCoupleHandler)
			r.Delete("/{groupID}/couples/{coupleID}", stagingHandler.RemoveCoupleHandler)
			r.Get("/{groupID}/standings", standingsHandler.GroupStandingsHandler)
		})

		r.Route("/brackets", func(r chi.Router) {
			r.Post("/{bracketID}/generate", stagingHandler.GenerateBracketHandler)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/{matchID}", matchHandler.GetHandler)
			r.Post("/{matchID}/result", matchHandler.RecordResultHandler)
			r.Put("/{matchID}/result", matchHandler.CorrectResultHandler)
			r.Post("/{matchID}/forfeit", matchHandler.ForfeitHandler)
			r.Post("/{matchID}/schedule", schedulingHandler.ScheduleHandler)
			r.Delete("/{matchID}/schedule", schedulingHandler.UnscheduleHandler)
		})

		r.Route("/couples", func(r chi.Router) {
			r.Delete("/{coupleID}", tournamentHandler.DeleteCoupleHandler)
		})

		r.Route("/courts", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListCourtsHandler)
			r.Post("/", tournamentHandler.CreateCourtHandler)
			r.Get("/{courtID}/availability", schedulingHandler.CourtAvailabilityHandler)
			r.Put("/{courtID}/availability", tournamentHandler.UpdateCourtAvailabilityHandler)
			r.Delete("/{courtID}", tournamentHandler.DeleteCourtHandler)
		})
	})
}
