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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/cornip/Rina/common/arangodb"
	"github.com/cornip/Rina/common/id"
	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/common/logger"
	"github.com/cornip/Rina/common/otel"
	"github.com/cornip/Rina/common/typesense"
	"github.com/cornip/Rina/core/config"
	"github.com/cornip/Rina/core/db"
	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/channel/social"
	"github.com/cornip/Rina/internal/channel/trading"
	"github.com/cornip/Rina/internal/execution"
	"github.com/cornip/Rina/internal/gateway"
	"github.com/cornip/Rina/internal/http/handler"
	"github.com/cornip/Rina/internal/http/middleware"
	httprouter "github.com/cornip/Rina/internal/http/router"
	"github.com/cornip/Rina/internal/knowledge"
	"github.com/cornip/Rina/internal/market"
	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/recorder"
	"github.com/cornip/Rina/internal/scheduler"
	"github.com/cornip/Rina/internal/status"
	"github.com/cornip/Rina/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if err := run(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "agent stopped with error", "error", err)
		shutdownTelemetry(telemetry)
		os.Exit(1)
	}

	shutdownTelemetry(telemetry)
	slog.InfoContext(ctx, "shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	slog.InfoContext(ctx, "agent starting",
		"env", cfg.Env,
		"social", cfg.Social.Enabled(),
		"trading", cfg.Trading.Enabled())

	if err := id.Init(1); err != nil {
		return fmt.Errorf("initialize snowflake id generator: %w", err)
	}

	if !cfg.Typesense.Enabled() || !cfg.Embedding.Enabled() {
		return errors.New("semantic store requires TYPESENSE_URL, TYPESENSE_API_KEY and an embedding API key")
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.StatusStream)

	tsClient, err := typesense.New(typesense.Config{URL: cfg.Typesense.URL, APIKey: cfg.Typesense.APIKey})
	if err != nil {
		return err
	}
	embedder, err := llm.NewEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Typesense.EmbeddingDims)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	semantic := knowledge.New(tsClient, embedder, cfg.Typesense.EmbeddingDims)
	if err := semantic.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure typesense schema: %w", err)
	}
	slog.InfoContext(ctx, "semantic store ready")

	records := store.NewActionRecordStore(database.Queries())
	rec := recorder.New(semantic, records)

	llmCfg := llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	}
	prompter, err := llm.NewPrompter(llmCfg)
	if err != nil {
		return fmt.Errorf("create prompter: %w", err)
	}
	slog.InfoContext(ctx, "llm ready", "provider", cfg.LLM.Provider, "model", prompter.Model())

	reporter := status.NewReporter(redisClient, cfg.Redis.StatusStream)

	var schedulers []*scheduler.Scheduler

	if cfg.Social.Enabled() {
		sc, closeFn, err := buildSocial(ctx, cfg, prompter, semantic, redisClient, reporter)
		if err != nil {
			return err
		}
		defer closeFn()
		schedulers = append(schedulers, sc)
	}

	if cfg.Trading.Enabled() {
		sc, err := buildTrading(cfg, prompter, semantic, rec, reporter)
		if err != nil {
			return err
		}
		schedulers = append(schedulers, sc)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: setupRouter(cfg, httprouter.Handlers{
			Health: handler.NewHealthHandler(map[string]handler.Check{
				"postgres": database.Ping,
				"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
				"typesense": func(ctx context.Context) error {
					if !semantic.Healthy(ctx) {
						return errors.New("unhealthy")
					}
					return nil
				},
			}),
			Records:  handler.NewRecordHandler(records),
			Channels: handler.NewChannelHandler(reporter),
			Status:   handler.NewStatusStreamHandler(redisClient, cfg.Redis.StatusStream),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	for _, sc := range schedulers {
		g.Go(func() error {
			slog.InfoContext(gctx, "channel starting", "channel", sc.Channel())
			return sc.Run(gctx)
		})
	}

	g.Go(func() error {
		slog.InfoContext(gctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.InfoContext(ctx, "shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func buildSocial(
	ctx context.Context,
	cfg config.Config,
	prompter llm.Prompter,
	semantic *knowledge.Store,
	redisClient *redis.Client,
	reporter *status.Reporter,
) (*scheduler.Scheduler, func(), error) {
	gw, err := gateway.New(gateway.Config{URL: cfg.Social.GatewayURL, Token: cfg.Social.GatewayToken})
	if err != nil {
		return nil, nil, err
	}

	scoringClient, err := llm.New(llm.Config{
		Provider: cfg.LLM.ScoringProvider,
		APIKey:   cfg.LLM.ScoringAPIKey,
		BaseURL:  cfg.LLM.ScoringBaseURL,
		Model:    cfg.LLM.ScoringModel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create scoring client: %w", err)
	}
	attention := brain.NewAttentionEngine(brain.NewLLMScorer(scoringClient, cfg.Social.Username), cfg.Social.Username)

	closeFn := func() {}
	var cache social.ThreadCache
	if cfg.ArangoDB.Enabled() {
		graph, err := arangodb.New(ctx, arangodb.Config{
			URL:      cfg.ArangoDB.URL,
			Username: cfg.ArangoDB.Username,
			Password: cfg.ArangoDB.Password,
			Database: cfg.ArangoDB.Database,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to arangodb: %w", err)
		}
		if err := ensureGraph(ctx, graph); err != nil {
			_ = graph.Close()
			return nil, nil, err
		}
		cache = graph
		closeFn = func() { _ = graph.Close() }
		slog.InfoContext(ctx, "thread cache ready", "database", cfg.ArangoDB.Database)
	} else {
		slog.InfoContext(ctx, "thread cache disabled (arangodb not configured)")
	}

	ch := social.New(cfg.Social, cfg.Persona, social.Deps{
		Gateway:   gw,
		Messages:  semantic,
		Attention: attention,
		Prompter:  prompter,
		Cache:     cache,
		Seen:      status.NewRedisSeenSet(redisClient, cfg.Redis.SeenKey, cfg.Redis.SeenTTL),
	})

	sc, err := scheduler.New(model.ChannelSocial, ch.Behaviors(), cfg.Social.Pacing, scheduler.WithObserver(reporter))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sc, closeFn, nil
}

func buildTrading(
	cfg config.Config,
	prompter llm.Prompter,
	semantic *knowledge.Store,
	rec *recorder.Recorder,
	reporter *status.Reporter,
) (*scheduler.Scheduler, error) {
	mkt, err := market.New(cfg.Trading.MarketURL)
	if err != nil {
		return nil, err
	}

	var executor execution.Executor
	if cfg.Trading.ExecutorURL != "" {
		executor, err = execution.New(execution.Config{
			URL:    cfg.Trading.ExecutorURL,
			Token:  cfg.Trading.ExecutorToken,
			Wallet: cfg.Trading.WalletAddress,
		})
		if err != nil {
			return nil, err
		}
	}

	ch := trading.New(cfg.Trading, cfg.Persona, trading.Deps{
		Market:   mkt,
		History:  semantic,
		Prompter: prompter,
		Executor: executor,
		Recorder: rec,
	})

	return scheduler.New(model.ChannelTrading, ch.Behaviors(), cfg.Trading.Pacing, scheduler.WithObserver(reporter))
}

func ensureGraph(ctx context.Context, graph arangodb.Client) error {
	if err := graph.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("ensure arangodb database: %w", err)
	}
	if err := graph.EnsureCollections(ctx); err != nil {
		return fmt.Errorf("ensure arangodb collections: %w", err)
	}
	if err := graph.EnsureGraph(ctx); err != nil {
		return fmt.Errorf("ensure arangodb graph: %w", err)
	}
	return nil
}

func setupRouter(cfg config.Config, h httprouter.Handlers) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, h)
	return router
}

func shutdownTelemetry(t *otel.Telemetry) {
	if t == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "otel shutdown error", "error", err)
	}
}

const banner = `
 ____  _
|  _ \(_)_ __   __ _
| |_) | | '_ \ / _' |
|  _ <| | | | | (_| |
|_| \_\_|_| |_|\__,_|
`
