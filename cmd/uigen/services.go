package main

import (
	"fmt"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/lexcodex/uigen/catalog"
	"github.com/lexcodex/uigen/config"
	"github.com/lexcodex/uigen/llm"
	"github.com/lexcodex/uigen/persistence"
	"github.com/lexcodex/uigen/retriever"
	"github.com/lexcodex/uigen/validator"
	"github.com/lexcodex/uigen/workflow"
)

// services holds everything a command needs at runtime, plus the handles that
// must be closed on exit.
type services struct {
	orchestrator *workflow.Orchestrator
	sessions     *persistence.SessionStore
	logger       *zap.Logger
}

func (s *services) Close() {
	if s.sessions != nil {
		_ = s.sessions.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// buildServices wires every collaborator from the loaded config. All wiring
// failures are fatal configuration errors.
func buildServices(cfg *config.Config) (*services, error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", zap.String("path", cfg.Catalog), zap.Int("components", cat.Len()))

	index, err := retriever.OpenIndex(cfg.Docs.IndexPath, embeddingFunc(cfg), logger)
	if err != nil {
		return nil, err
	}
	docs := retriever.New(index, retriever.Config{
		MaxSnippetLines: cfg.Retriever.MaxSnippetLines,
		MaxCacheEntries: cfg.Retriever.MaxCacheEntries,
	}, logger)

	val, err := validator.New(validator.Config{
		BaseDir: cfg.Workspace.BaseDir,
		Manifest: validator.Manifest{
			UILibrary: cfg.Workspace.UILibrary,
			UIVersion: cfg.Workspace.UIVersion,
		},
		SkipInstall: cfg.Workspace.SkipInstall,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("prepare compiler workspace: %w", err)
	}

	sessions, err := persistence.NewSessionStore(cfg.Sessions.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	var model llm.Client
	switch cfg.Model.Provider {
	case "", "openai":
		model = llm.NewOpenAIClient(cfg.Model.Endpoint, cfg.APIKey(), cfg.Model.Name, logger)
	case "ollama":
		model = llm.NewOllamaClient(cfg.Model.Endpoint, cfg.Model.Name, logger)
	default:
		sessions.Close()
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}

	orch, err := workflow.New(workflow.Services{
		Model:     model,
		Catalog:   cat,
		Docs:      docs,
		Validator: val,
		Sessions:  sessions,
		Logger:    logger,
	}, workflow.Config{
		MaxIterations: cfg.Workflow.MaxIterations,
		UILibrary:     cfg.Workspace.UILibrary,
	})
	if err != nil {
		sessions.Close()
		return nil, err
	}

	return &services{orchestrator: orch, sessions: sessions, logger: logger}, nil
}

// embeddingFunc selects the embedding backend for the vector index. The same
// function must be used at index build time and query time.
func embeddingFunc(cfg *config.Config) chromem.EmbeddingFunc {
	model := chromem.EmbeddingModelOpenAI3Small
	if cfg.Docs.EmbeddingModel != "" {
		model = chromem.EmbeddingModelOpenAI(cfg.Docs.EmbeddingModel)
	}
	return chromem.NewEmbeddingFuncOpenAI(cfg.APIKey(), model)
}
