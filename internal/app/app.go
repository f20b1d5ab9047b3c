package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"AutoPress/internal/config"
	"AutoPress/internal/crawl"
	"AutoPress/internal/infrastructure/llm"
	"AutoPress/internal/infrastructure/scheduler"
	"AutoPress/internal/infrastructure/spider"
	"AutoPress/internal/infrastructure/storage"
	"AutoPress/internal/infrastructure/wechat"
	"AutoPress/internal/logging"
	"AutoPress/internal/ports"
	"AutoPress/internal/rewrite"
	"AutoPress/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	runner *usecase.Runner
	db     *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	fetcher := spider.NewFetcher(nil)
	registry := crawl.NewRegistry()
	registry.Register(spider.NewFeedStrategy(fetcher, baseLogger.With("component", "spider.feed")))
	registry.Register(spider.NewWebStrategy(fetcher, baseLogger.With("component", "spider.web")))
	registry.Register(spider.NewZhihuStrategy(fetcher, baseLogger.With("component", "spider.zhihu")))
	registry.Register(spider.NewWeChatStrategy(fetcher, baseLogger.With("component", "spider.wechat")))

	acquirer := spider.NewAcquirer(registry, baseLogger.With("component", "acquirer"))

	var backends []ports.CompletionBackend
	if cfg.LLM.OpenAI.APIKey != "" {
		backends = append(backends, llm.NewOpenAIClient(cfg.LLM.OpenAI))
	}
	if cfg.LLM.Claude.APIKey != "" {
		backends = append(backends, llm.NewClaudeClient(cfg.LLM.Claude))
	}
	engine := rewrite.NewEngine(backends, baseLogger.With("component", "rewrite"))

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      acquirer,
		Rewriter:    engine,
		Generator:   engine,
		Articles:    storage.NewArticleRepository(db),
		Schedules:   storage.NewScheduleRepository(db),
		Publisher:   wechat.NewClient(cfg.WeChat, baseLogger.With("component", "wechat")),
		Sources:     cfg.Crawler.Sources,
		Style:       cfg.Crawler.Style,
		MaxArticles: cfg.Crawler.MaxArticles,
		Generation:  cfg.Generator,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	crawlHour, crawlMinute := cfg.Scheduler.CrawlAt()
	generateHour, generateMinute := cfg.Scheduler.GenerateAt()
	runner := usecase.NewRunner(
		scheduler.NewDailyScheduler(crawlHour, crawlMinute, cfg.Scheduler.Location()),
		scheduler.NewDailyScheduler(generateHour, generateMinute, cfg.Scheduler.Location()),
		scheduler.NewIntervalScheduler(cfg.Scheduler.PublishInterval),
		pipeline,
		baseLogger.With("component", "runner"),
	)

	return &Application{cfg: cfg, runner: runner, db: db}, nil
}

// Run starts the triggers and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if a.runner == nil {
		return nil
	}
	if err := a.runner.Start(ctx); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}

	<-ctx.Done()

	stopCtx := context.Background()
	if err := a.runner.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop runner: %w", err)
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
