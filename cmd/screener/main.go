package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TrendSentinel/internal/api"
	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/logging"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/output"
	"TrendSentinel/internal/publisher"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scheduler"
	"TrendSentinel/internal/screener"
	"TrendSentinel/internal/snapshot"
	"TrendSentinel/internal/universe"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single screen, write the CSV and exit")
	flag.Parse()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}
	logger.Info("TrendSentinel starting", zap.String("config", cfgPath), zap.Bool("once", *once))

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := newFetcher(ctx, cfg, logger)
	logger.Info("data source", zap.String("fetcher", fetcher.Name()))

	col := collector.NewCollector(fetcher, cfg.Screen.LookbackDays)
	sc := screener.New(col, logger, cfg.Screen.Workers, cfg.Screen.FetchTimeout)
	src := newUniverse(cfg)

	if *once {
		code := runOnce(ctx, sc, src, cfg, logger)
		logger.Sync()
		stop()
		os.Exit(code)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	var pub publisher.Publisher = publisher.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer pub.Close()

	snaps, err := snapshot.NewStore(cfg.Screen.SnapshotPath)
	if err != nil {
		logger.Fatal("load snapshot", zap.Error(err))
	}

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		n = tn
	}

	sched := scheduler.NewScheduler(ctx, sc, src, cfg.Screen.Benchmark, n, rec, pub, snaps, logger)
	sched.OutputPath = cfg.Screen.OutputPath
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		logger.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.SetupRoutes(api.NewHandler(sched, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
		}
	}()

	if cfg.Schedule.RunOnStart {
		logger.Info("run_on_start enabled, screening now")
		go func() {
			if _, err := sched.RunNow(ctx); err != nil {
				logger.Error("startup screen", zap.Error(err))
			}
		}()
	}

	logger.Info("TrendSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func runOnce(ctx context.Context, sc *screener.Screener, src universe.Source, cfg *config.Config, logger *zap.Logger) int {
	tickers, err := src.Tickers(ctx)
	if err != nil {
		logger.Error("resolve universe", zap.String("source", src.Name()), zap.Error(err))
		return 1
	}
	report, err := sc.Run(ctx, cfg.Screen.Benchmark, tickers)
	if err != nil {
		logger.Error("screen failed", zap.Error(err))
		return 1
	}
	if err := output.SaveCSV(cfg.Screen.OutputPath, report.Results); err != nil {
		logger.Error("save csv", zap.Error(err))
		return 1
	}
	logger.Info("results written", zap.String("path", cfg.Screen.OutputPath), zap.Int("rows", len(report.Results)))
	return 0
}

func newFetcher(ctx context.Context, cfg *config.Config, logger *zap.Logger) collector.Fetcher {
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.APIKey, cfg.DataSource.APISecret, cfg.DataSource.Feed)
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RateLimit)
	}

	if cfg.Cache.RedisAddr == "" {
		return fetcher
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.Prefix)
	if err != nil {
		logger.Warn("redis unavailable, fetching without cache", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		return fetcher
	}
	return collector.NewCachedFetcher(fetcher, rc, cfg.Cache.TTL, logger)
}

func newUniverse(cfg *config.Config) universe.Source {
	u := cfg.Screen.Universe
	switch u.Source {
	case "csv":
		return &universe.CSVFile{Path: u.File}
	case "static":
		return universe.Static(u.Tickers)
	default:
		sp := universe.NewSP500()
		if u.URL != "" {
			sp.URL = u.URL
		}
		return sp
	}
}
