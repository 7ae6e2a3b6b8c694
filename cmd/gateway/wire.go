package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/mindengage-remedial/internal/authoring"
	"github.com/mind-engage/mindengage-remedial/internal/config"
	"github.com/mind-engage/mindengage-remedial/internal/db"
	"github.com/mind-engage/mindengage-remedial/internal/eventlog"
	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/llm"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/progress"
	"github.com/mind-engage/mindengage-remedial/internal/remediation"
	"github.com/mind-engage/mindengage-remedial/internal/submission"
	"github.com/mind-engage/mindengage-remedial/internal/synth"
)

type app struct {
	db        *sqlx.DB
	lessons   *lesson.SQLStore
	ledger    *progress.SQLLedger
	archive   *remediation.SQLArchive
	events    *eventlog.Repo
	orch      *submission.Orchestrator
	generator *authoring.Generator
	closers   []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	h, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	return h, nil
}

// newApp builds every component from cfg. Nothing is global; the returned app
// owns the database handle and optional redis client.
func newApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	h, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		db:      h,
		lessons: lesson.NewSQLStore(h),
		ledger:  progress.NewSQLLedger(h),
		archive: remediation.NewSQLArchive(h),
		events:  eventlog.NewRepo(h, string(cfg.Mode)),
		closers: []func() error{h.Close},
	}

	provider, err := newProvider(ctx, cfg, a.events, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	sy := synth.New(provider, synth.Options{
		MaxBlocks:     cfg.Remediation.MaxBlocks,
		MaxBlockChars: cfg.Remediation.MaxBlockChars,
		Timeout:       cfg.Remediation.GenerationTimeout,
		MaxTokens:     cfg.LLM.MaxTokens,
		Temperature:   cfg.LLM.Temperature,
	}, log)

	opts := []remediation.Option{remediation.WithArchive(a.archive)}
	if cfg.Redis.Addr != "" {
		rdb, err := remediation.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// the cache is an optimisation; run without it
			log.Warn("redis unavailable, remediation cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.closers = append(a.closers, rdb.Close)
			opts = append(opts, remediation.WithCache(remediation.NewRedisCache(rdb, cfg.Remediation.CacheTTL)))
		}
	}
	sel, err := remediation.NewSelector(remediation.Mode(cfg.Remediation.Mode), a.lessons, sy, log, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.orch = submission.NewOrchestrator(a.lessons, a.ledger, lesson.NewResolver(a.lessons, log), sel, log)
	a.generator = authoring.NewGenerator(a.lessons, provider, a.events, authoring.Options{
		LessonsPerTopic: cfg.Generate.LessonsPerTopic,
		Concurrency:     cfg.Generate.Concurrency,
		RetryAttempts:   cfg.Generate.RetryAttempts,
		RetryDelay:      cfg.Generate.RetryDelay,
		TopicTimeout:    cfg.Generate.TopicTimeout,
		MaxTokens:       cfg.LLM.MaxTokens,
		Temperature:     cfg.LLM.Temperature,
	}, log)
	return a, nil
}

func newProvider(ctx context.Context, cfg config.Config, sink llm.EventSink, log *logger.Logger) (llm.Provider, error) {
	if cfg.LLM.Provider == "mock" {
		log.Warn("mock LLM provider configured; synthesis and generation will report upstream failures")
	}
	return llm.NewProvider(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	}, sink, log)
}
