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

	"github.com/Dosada05/tournament-pairing/config"
	"github.com/Dosada05/tournament-pairing/db"
	"github.com/Dosada05/tournament-pairing/handlers"
	"github.com/Dosada05/tournament-pairing/oracle"
	"github.com/Dosada05/tournament-pairing/repositories"
	api "github.com/Dosada05/tournament-pairing/routes"
	"github.com/Dosada05/tournament-pairing/services"
	"github.com/Dosada05/tournament-pairing/storage"
	"github.com/Dosada05/tournament-pairing/swiss"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("archive", cfg.ArchiveEnabled()))

	// Подключение к базе данных
	dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, 5*time.Second)
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

	// Архив обменов с оракулом (Cloudflare R2), если настроен
	var archive *storage.ExchangeArchive
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archive = storage.NewExchangeArchive(uploader)
		logger.Info("oracle exchange archive initialized", slog.String("bucket", cfg.R2BucketName))
	}

	pairingOracle := oracle.NewProcessOracle(cfg.OracleCommand)
	pairingOracle.TempDir = cfg.OracleTempDir
	pairingOracle.Timeout = cfg.OracleTimeout
	pairingOracle.HeuristicFlags = cfg.OracleHeuristicFlags
	pairingOracle.DeterministicFlags = cfg.OracleDeterministicFlags
	generator := swiss.NewGenerator(pairingOracle)

	// Инициализация репозиториев
	transactor := repositories.NewPostgresTransactor(dbConn, logger)
	formatRepo := repositories.NewPostgresFormatRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	competitorRepo := repositories.NewPostgresCompetitorRepository(dbConn)
	rosterRepo := repositories.NewPostgresRosterRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	standingRepo := repositories.NewPostgresTournamentStandingRepository(dbConn)
	exchangeRepo := repositories.NewPostgresOracleExchangeRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(
		transactor, tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo, logger,
	)
	pairingService := services.NewPairingService(
		transactor, tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo, exchangeRepo,
		generator, archive, logger,
	)
	knockoutService := services.NewKnockoutService(
		transactor, tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo, bracketRepo, logger,
	)
	standingsService := services.NewStandingsService(
		transactor, tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo, standingRepo, logger,
	)
	resultService := services.NewResultService(transactor, tournamentRepo, roundRepo, logger)
	logger.Info("services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.CORSAllowedOrigins,
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewPairingHandler(pairingService),
		handlers.NewKnockoutHandler(knockoutService),
		handlers.NewStandingsHandler(standingsService),
		handlers.NewResultHandler(resultService),
	)
	logger.Info("routes configured")

	// Генерация тура ждёт оракул, поэтому WriteTimeout больше его таймаута.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.OracleTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
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
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
