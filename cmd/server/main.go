package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/agent"
	"github.com/claimpilot/claims-workflow/internal/api"
	"github.com/claimpilot/claims-workflow/internal/config"
	"github.com/claimpilot/claims-workflow/internal/docs"
	"github.com/claimpilot/claims-workflow/internal/engine"
	"github.com/claimpilot/claims-workflow/internal/notify"
	"github.com/claimpilot/claims-workflow/internal/report"
	"github.com/claimpilot/claims-workflow/internal/similarity"
	"github.com/claimpilot/claims-workflow/internal/store"
	"github.com/claimpilot/claims-workflow/pkg/database"
	"github.com/claimpilot/claims-workflow/pkg/logging"
)

func main() {
	// Credentials may live in a local .env during development
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting claims workflow service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	auditLog, err := store.NewSQLiteAuditLog(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize audit log", zap.Error(err))
	}

	llm := agent.NewLLMClient(agent.LLMConfig{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger)

	extractor := docs.NewExtractor(cfg.Documents.BaseDir, logger)

	agents := []agent.Agent{
		agent.NewValidator(llm, logger),
		agent.NewFraudDetector(llm, logger),
		agent.NewPolicyChecker(llm, nil, logger),
		agent.NewDocumentAnalyzer(llm, extractor, logger),
		agent.NewDecisionMaker(llm, logger),
	}

	var searcher engine.SimilaritySearcher
	if cfg.Similarity.Enabled {
		searcher = similarity.NewClient(similarity.Config{
			BaseURL:        cfg.Similarity.BaseURL,
			APIKey:         cfg.Similarity.APIKey,
			Collection:     cfg.Similarity.Collection,
			TopK:           cfg.Similarity.TopK,
			Timeout:        cfg.Similarity.Timeout,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
		}, cfg.OpenAI.APIKey, logger)
	}

	var notifier notify.Notifier
	if cfg.Lark.Enabled {
		notifier = notify.NewLarkNotifier(notify.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			SIUChatID: cfg.Lark.SIUChatID,
		}, logger)
	}

	workflows, err := engine.NewEngine(engine.Deps{
		Agents:   agents,
		Searcher: searcher,
		Notifier: notifier,
		Briefs:   report.NewBriefWriter(cfg.Report.OutputDir, logger),
		States:   store.NewMemoryStore(),
		Audit:    auditLog,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to initialize workflow engine", zap.Error(err))
	}

	server := api.NewServer(api.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflows, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
