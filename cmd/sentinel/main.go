package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/ranker"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
	"SignalSentinel/internal/strategy"
)

func main() {
	once := flag.Bool("once", false, "run a single refresh and rank pass, print the report and exit")
	skipRefresh := flag.Bool("skip-refresh", false, "with -once, rank over the stored bars without downloading")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SignalSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.DataSource.Symbols, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 1.1, Assets: cfg.DataSource.Symbols}
	default:
		fetcher = collector.NewBrokerFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init bar store
	var store recorder.Recorder
	if cfg.Storage.SQLitePath != "" {
		store, err = recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
	} else {
		store, err = recorder.NewCSVRecorder(cfg.Storage.DataDir)
	}
	if err != nil {
		log.Fatalf("[FATAL] init bar store: %v", err)
	}
	defer store.Close()

	// Init metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus()

	// Init pipeline
	engine, err := strategy.NewEngine(cfg.Strategy)
	if err != nil {
		log.Fatalf("[FATAL] init engine: %v", err)
	}
	var provider collector.SeriesProvider = store
	if cfg.Ranking.Source == "live" {
		provider = &collector.LiveProvider{Fetcher: fetcher, Bars: cfg.Ranking.LiveBars}
	}
	log.Printf("[INFO] ranking source: %s", cfg.Ranking.Source)
	col := collector.NewCollector(provider, engine, model.Timeframe(cfg.Ranking.Timeframe), cfg.Ranking.MinBars)
	rk := ranker.New(col, cfg.Ranking.Workers, m)

	timeframes := make([]collector.TimeframeSpec, len(cfg.Refresh.Timeframes))
	for i, tf := range cfg.Refresh.Timeframes {
		timeframes[i] = collector.TimeframeSpec{Timeframe: model.Timeframe(tf.Timeframe), Bars: tf.Bars}
	}
	ref := &collector.Refresher{
		Fetcher:    fetcher,
		Store:      store,
		Timeframes: timeframes,
		Symbols:    cfg.DataSource.Symbols,
		Exclude:    cfg.Refresh.Exclude,
		Retention:  cfg.Storage.Retention,
		AssetsFile: cfg.Storage.AssetsFile,
		Metrics:    m,
	}
	log.Printf("[INFO] refresh excludes: %s", cfg.ExcludeList())

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Println("[WARN] telegram not configured, reports are only logged")
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, rk, ref, store, sender)
	sched.AssetsFile = cfg.Storage.AssetsFile
	sched.Health = health

	if *once {
		if !*skipRefresh {
			if _, err := sched.RunRefreshNow(); err != nil {
				log.Fatalf("[FATAL] refresh: %v", err)
			}
		}
		res, err := sched.RunRankNow()
		if err != nil {
			log.Fatalf("[FATAL] rank: %v", err)
		}
		fmt.Println(notifier.FormatRankReport(res))
		return
	}

	srv := metrics.NewServer(cfg.Metrics.Addr, reg, health)
	srv.Start()

	if err := sched.RegisterAll(cfg.Refresh.Cron, cfg.Ranking.Cron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, refreshing bars now")
		go sched.RunRefreshNow()
	}

	log.Println("[INFO] SignalSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	sched.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	srv.Stop(shutdownCtx)
	log.Println("[INFO] SignalSentinel stopped")
}
