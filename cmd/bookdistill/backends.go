package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bookdistill/bookdistill/internal/agents"
	"github.com/bookdistill/bookdistill/internal/batch"
	"github.com/bookdistill/bookdistill/internal/config"
	"github.com/bookdistill/bookdistill/internal/files"
	"github.com/bookdistill/bookdistill/internal/llm"
	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/queue"
	"github.com/bookdistill/bookdistill/internal/store"
	"github.com/bookdistill/bookdistill/internal/worker"
)

// backends bundles every external dependency a command can need. Commands
// build it once from config and wire the parts they use.
type backends struct {
	cfg    *config.Config
	logger *slog.Logger

	books     store.Books
	sections  store.Sections
	distilled store.DistilledPages
	files     files.Store

	sectioningJobs   queue.Queue[models.SectioningJob]
	distillationJobs queue.Queue[models.DistillationJob]

	llm llm.Client
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func buildBackends(ctx context.Context, logger *slog.Logger) (*backends, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	if cfg.GCP.ProjectID == "" {
		return nil, errors.New("gcp.project_id must be configured")
	}
	if cfg.GCP.Bucket == "" {
		return nil, errors.New("gcp.bucket must be configured")
	}

	fsClient, err := store.NewFirestoreClient(ctx, cfg.GCP.ProjectID)
	if err != nil {
		return nil, err
	}

	gcs, err := files.NewGCS(ctx, cfg.GCP.Bucket)
	if err != nil {
		return nil, err
	}

	sectioningJobs, err := queue.NewPubSub[models.SectioningJob](ctx, queue.PubSubConfig{
		Topic:        fmt.Sprintf("projects/%s/topics/%s", cfg.GCP.ProjectID, cfg.GCP.SectioningTopic),
		Subscription: fmt.Sprintf("projects/%s/subscriptions/%s", cfg.GCP.ProjectID, cfg.GCP.SectioningSub),
	})
	if err != nil {
		return nil, err
	}

	distillationJobs, err := queue.NewPubSub[models.DistillationJob](ctx, queue.PubSubConfig{
		Topic:        fmt.Sprintf("projects/%s/topics/%s", cfg.GCP.ProjectID, cfg.GCP.DistillationTopic),
		Subscription: fmt.Sprintf("projects/%s/subscriptions/%s", cfg.GCP.ProjectID, cfg.GCP.DistillationSub),
	})
	if err != nil {
		return nil, err
	}

	llmClient := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:     cfg.ResolvedLLMAPIKey(),
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		BaseURL:    cfg.LLM.BaseURL,
	})

	return &backends{
		cfg:              cfg,
		logger:           logger,
		books:            store.NewFirestoreBooks(fsClient, store.BooksCollection),
		sections:         store.NewFirestoreSections(fsClient, store.SectionsCollection),
		distilled:        store.NewFirestoreDistilledPages(fsClient, store.DistilledPagesCollection),
		files:            gcs,
		sectioningJobs:   sectioningJobs,
		distillationJobs: distillationJobs,
		llm:              llmClient,
	}, nil
}

func (b *backends) runnerConfig() worker.RunnerConfig {
	return worker.RunnerConfig{
		Logger:      b.logger,
		IdleWait:    time.Duration(b.cfg.Worker.IdleWaitSeconds) * time.Second,
		MaxIdleWait: time.Duration(b.cfg.Worker.MaxIdleWaitSeconds) * time.Second,
	}
}

func (b *backends) sectioningRunner() *worker.Runner[models.SectioningJob] {
	processor := worker.NewSectioning(worker.SectioningConfig{
		Files:     b.files,
		Books:     b.books,
		Sections:  b.sections,
		Sectioner: agents.NewSectioner(b.llm, b.cfg.LLM.Model),
		Limits: batch.Limits{
			MaxPages:  b.cfg.Batch.MaxPages,
			MaxTokens: b.cfg.Batch.MaxTokens,
		},
		Logger: b.logger,
	})
	return worker.NewRunner[models.SectioningJob](b.sectioningJobs, processor, b.runnerConfig())
}

func (b *backends) distillationRunner() *worker.Runner[models.DistillationJob] {
	processor := worker.NewDistillation(worker.DistillationConfig{
		Sections:  b.sections,
		Distilled: b.distilled,
		Distiller: agents.NewDistiller(b.llm, b.cfg.LLM.Model),
		Logger:    b.logger,
	})
	return worker.NewRunner[models.DistillationJob](b.distillationJobs, processor, b.runnerConfig())
}
