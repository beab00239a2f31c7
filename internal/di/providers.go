package di

import (
	"context"
	"fmt"
	"time"

	"SwingDesk/internal/domain/models"
	"SwingDesk/internal/domain/repository"
	domsvc "SwingDesk/internal/domain/service"
	"SwingDesk/internal/handler/api"
	mid "SwingDesk/internal/middleware"
	internalrepo "SwingDesk/internal/repository"
	"SwingDesk/internal/service/finnhub"
	"SwingDesk/internal/service/marketdata"
	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/internal/services/engine"
	"SwingDesk/internal/services/features"
	"SwingDesk/internal/usecase"
	"SwingDesk/pkg/cache"
	pkgch "SwingDesk/pkg/clickhouse"
	"SwingDesk/pkg/config"
	xhttp "SwingDesk/pkg/http"
	pkgkafka "SwingDesk/pkg/kafka"
	applogger "SwingDesk/pkg/logger"
	"SwingDesk/pkg/metrics"
	"SwingDesk/pkg/server"
)

const redisPrefix = "swingdesk"

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache returns an in-process cache, fronting Redis when it is enabled.
func ProvideCache(cfg *config.Config, log *applogger.Logger) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
	}
	remote, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(redisPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	log.Info("redis cache enabled", applogger.String("addr", cfg.Cache.Redis.Addr))
	return cache.NewLayeredCache(remote,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredL1TTL(time.Minute),
	), nil
}

// ProvideLimiter creates the shared token-bucket limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideTradingCalendar creates the exchange calendar.
func ProvideTradingCalendar(cfg *config.Config) *features.TradingCalendar {
	return features.NewTradingCalendar(cfg.Scanner.CalendarMIC)
}

// ProvideCandleChain orders providers by preference. Keyed providers are
// skipped without a key; Yahoo is always the last resort.
func ProvideCandleChain(cfg *config.Config, limiter *ratelimit.Limiter, m repository.Metrics, log *applogger.Logger) *marketdata.Chain {
	var providers []repository.CandleProvider
	if cfg.Providers.FMP.APIKey != "" {
		providers = append(providers, marketdata.NewFMP(cfg.Providers.FMP, limiter))
	}
	if cfg.Providers.TwelveData.APIKey != "" {
		providers = append(providers, marketdata.NewTwelveData(cfg.Providers.TwelveData, limiter))
	}
	providers = append(providers, marketdata.NewYahoo(cfg.Providers.Yahoo, limiter))
	return marketdata.NewChain(log.Component("marketdata"), m, providers...)
}

// ProvideSnapshotSource composes candles, options and earnings behind the snapshot cache.
func ProvideSnapshotSource(
	cfg *config.Config,
	chain *marketdata.Chain,
	limiter *ratelimit.Limiter,
	cal *features.TradingCalendar,
	c cache.Service,
	log *applogger.Logger,
) *marketdata.CachedSource {
	var earnings repository.EarningsProvider
	if cfg.Providers.Finnhub.APIKey != "" {
		earnings = finnhub.New(cfg.Providers.Finnhub, limiter)
	}
	options := marketdata.NewYahoo(cfg.Providers.Yahoo, limiter)
	src := marketdata.NewSource(chain, options, earnings, cal, log.Component("source"))
	return marketdata.NewCachedSource(src, c, cfg.Cache.SnapshotTTL)
}

// ProvideAnalyzer returns the setup engine.
func ProvideAnalyzer() domsvc.Analyzer {
	return engine.New()
}

// ProvideScanner creates the universe scanner.
func ProvideScanner(cfg *config.Config, src *marketdata.CachedSource, analyzer domsvc.Analyzer, m repository.Metrics, log *applogger.Logger) *usecase.Scanner {
	return usecase.NewScanner(src, analyzer, m, log, cfg.Scanner.Workers, cfg.Scanner.FetchTimeout)
}

// ProvideDecisionSink connects the configured decision backend.
func ProvideDecisionSink(cfg *config.Config, m repository.Metrics, log *applogger.Logger) (*usecase.DecisionSink, error) {
	switch cfg.Sink.Backend {
	case usecase.BackendKafka:
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
			pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		pub := internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.DecisionsTopic)
		return usecase.NewDecisionSink(usecase.BackendKafka, pub, nil, m, log), nil

	case usecase.BackendClickHouse:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := pkgch.NewClient(ctx,
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewCHDecisionStore(client, log)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return usecase.NewDecisionSink(usecase.BackendClickHouse, nil, store, m, log), nil
	}
	return usecase.NewDecisionSink(usecase.BackendNone, nil, nil, m, log), nil
}

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(log *applogger.Logger) *api.Hub {
	return api.NewHub(log)
}

// ProvideAccounts returns the configured account catalog, or the built-in one.
func ProvideAccounts(cfg *config.Config) models.AccountCatalog {
	if len(cfg.Accounts) == 0 {
		return models.DefaultAccounts
	}
	out := make(models.AccountCatalog, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		out = append(out, models.Account{ID: a.ID, Name: a.Name, Strategy: a.Strategy, HoldingPeriod: a.HoldingPeriod})
	}
	return out
}

// ProvideBoardService creates the board and pushes every new board to the hub.
func ProvideBoardService(
	cfg *config.Config,
	scanner *usecase.Scanner,
	sink *usecase.DecisionSink,
	src *marketdata.CachedSource,
	c cache.Service,
	accounts models.AccountCatalog,
	hub *api.Hub,
	log *applogger.Logger,
) *usecase.BoardService {
	board := usecase.NewBoardService(scanner, sink, cfg.Scanner.Symbols, accounts, cfg.Scanner.RefreshInterval, log,
		usecase.WithRefreshLock(c),
		usecase.WithInvalidator(src),
	)
	board.Subscribe(hub.Publish)
	return board
}

// ProvideRefresher creates the periodic rescan loop.
func ProvideRefresher(cfg *config.Config, board *usecase.BoardService, cal *features.TradingCalendar, log *applogger.Logger) *usecase.Refresher {
	return usecase.NewRefresher(board, cal, cfg.Scanner.RefreshInterval, cfg.Scanner.MarketHoursOnly, log)
}

// ProvideBoardHandler creates the board HTTP handler.
func ProvideBoardHandler(
	cfg *config.Config,
	log *applogger.Logger,
	board *usecase.BoardService,
	scanner *usecase.Scanner,
	analyzer domsvc.Analyzer,
	sink *usecase.DecisionSink,
	limiter *ratelimit.Limiter,
) *api.BoardEchoHandler {
	return api.NewBoardEchoHandler(log, board, scanner, analyzer, sink, limiter, api.RefreshLimit{
		Capacity:     cfg.Server.RefreshLimit.Capacity,
		RefillPerSec: cfg.Server.RefreshLimit.RefillPerSec,
	})
}

// ProvideHTTPServer creates the echo server with every route registered.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, bh *api.BoardEchoHandler, hub *api.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{bh, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(log),
	)
}

// ProvideKafkaConsumer creates the snapshots consumer, or nil when no topic is configured.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.SnapshotsTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook(),
		pkgkafka.RejectEmptyHook(),
		pkgkafka.LoggingHook(log),
	))
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	hub *api.Hub,
	refresher *usecase.Refresher,
	sink *usecase.DecisionSink,
	c cache.Service,
	analyzer domsvc.Analyzer,
	m repository.Metrics,
	consumer *pkgkafka.Consumer,
) *server.App {
	app := server.New(cfg, log, httpServer, hub, refresher, sink, c)
	if consumer != nil {
		pipe := mid.NewDecisionPipeline(analyzer, sink, m,
			mid.WithMinInterval(time.Second),
			mid.WithBufferSize(1000),
			mid.WithLogger(log),
		)
		kh := usecase.NewKafkaSnapshotsHandler(cfg.Kafka.SnapshotsTopic, pipe, log)
		app.SetIngestion(pipe, consumer, kh)
	}
	return app
}
