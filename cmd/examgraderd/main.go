package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/exam-grader/internal/auth"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/export"
	"github.com/joseph-ayodele/exam-grader/internal/llm"
	"github.com/joseph-ayodele/exam-grader/internal/llm/gemini"
	"github.com/joseph-ayodele/exam-grader/internal/pipeline"
	repo "github.com/joseph-ayodele/exam-grader/internal/repository"
	"github.com/joseph-ayodele/exam-grader/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	examsRepo := repo.NewExamRepository(db, logger)
	answerKeysRepo := repo.NewAnswerKeyRepository(db, logger)
	studentsRepo := repo.NewStudentRepository(db, logger)

	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer geminiClient.Close()

	extractor, err := llm.NewExtractor(geminiClient, cfg.LLM.Timeout, logger)
	if err != nil {
		logger.Error("failed to build extractor", "error", err)
		os.Exit(1)
	}
	decoder := document.NewDecoder(document.Config{
		Pdftoppm: cfg.Decoder.Pdftoppm,
		DPI:      cfg.Decoder.DPI,
		TempDir:  cfg.Decoder.TempDir,
	}, logger)
	persister := pipeline.NewPersister(answerKeysRepo, studentsRepo, logger)
	pipe := pipeline.NewService(decoder, extractor, persister, logger)

	provider := auth.NewGoTrue(auth.GoTrueConfig{
		URL:     cfg.Auth.ProviderURL,
		APIKey:  cfg.Auth.APIKey,
		Timeout: cfg.Auth.Timeout,
	}, logger)

	app := server.New(server.Deps{
		Auth:       provider,
		Exams:      examsRepo,
		AnswerKeys: answerKeysRepo,
		Students:   studentsRepo,
		Pipeline:   pipe,
		Export:     export.NewService(examsRepo, answerKeysRepo, studentsRepo, logger),
	}, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		BodyLimitMB:    cfg.Server.BodyLimitMB,
		CookieSecure:   cfg.Server.CookieSecure,
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTAudience:    cfg.Auth.Audience,
	}, logger)

	// gRPC carries only the health service, for orchestrator health checks
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("exam-grader http listening", "addr", cfg.Server.HTTPAddr)
		return app.Listen(cfg.Server.HTTPAddr)
	})
	g.Go(func() error {
		logger.Info("exam-grader grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
