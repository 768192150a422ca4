package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtsync/tournament-system/brackets"
	"github.com/courtsync/tournament-system/config"
	"github.com/courtsync/tournament-system/db"
	"github.com/courtsync/tournament-system/handlers"
	"github.com/courtsync/tournament-system/repositories"
	api "github.com/courtsync/tournament-system/routes"
	"github.com/courtsync/tournament-system/services"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	coupleRepo := repositories.NewPostgresCoupleRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(dbConn)
	logger.Info("Repositories initialized")

	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, coupleRepo, courtRepo)
	stagingService := services.NewStagingService(
		dbConn, logger,
		tournamentRepo, stageRepo, groupRepo, bracketRepo, coupleRepo, courtRepo, matchRepo, statsRepo,
	)
	matchService := services.NewMatchService(dbConn, logger, tournamentRepo, stageRepo, matchRepo, statsRepo)
	schedulingService := services.NewSchedulingService(
		dbConn, logger,
		tournamentRepo, stageRepo, courtRepo, matchRepo,
	)
	standingsService := services.NewStandingsService(
		dbConn, logger,
		tournamentRepo, stageRepo, groupRepo, matchRepo, statsRepo,
	)
	progressionService := services.NewProgressionService(
		dbConn, logger,
		tournamentRepo, stageRepo, groupRepo, bracketRepo, courtRepo, matchRepo, statsRepo,
		stagingService,
	)
	logger.Info("Services initialized")

	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	stagingHandler := handlers.NewStagingHandler(stagingService, wsHub)
	matchHandler := handlers.NewMatchHandler(matchService, wsHub)
	schedulingHandler := handlers.NewSchedulingHandler(schedulingService, wsHub)
	standingsHandler := handlers.NewStandingsHandler(standingsService, progressionService, wsHub)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		tournamentHandler,
		stagingHandler,
		matchHandler,
		schedulingHandler,
		standingsHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shut down gracefully")
	}
}
