package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"signalbot-go/internal/config"
	"signalbot-go/internal/engine"
	"signalbot-go/internal/exchange"
	"signalbot-go/internal/metrics"
	"signalbot-go/internal/sink"
	"signalbot-go/internal/util"
)

func main() {
	_ = godotenv.Load() // best-effort

	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML configuration")
	flag.Parse()
	if env := os.Getenv("SIGNALBOT_CONFIG"); env != "" {
		*configPath = env
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("signalbot", "info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}

	log := util.NewLogger(cfg.App.Name, cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := sink.NewHub(log)
	queueSize := cfg.Engine.SinkQueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	hub.Register(sink.NewAlertConsumer(log), queueSize)

	var recorder *sink.JSONLRecorder
	if cfg.Risk.SignalsPath != "" {
		recorder, err = sink.NewJSONLRecorder(cfg.Risk.SignalsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Risk.SignalsPath).Msg("open signal recorder")
		}
		hub.Register(recorder, queueSize)
	}

	eng := engine.New(cfg, hub, log)
	eng.Start(ctx)
	for _, sym := range cfg.Feed.Symbols {
		eng.TrackSymbol(sym)
	}

	feedOpts := []exchange.Option{}
	if cfg.Feed.PollIntervalMs > 0 {
		feedOpts = append(feedOpts, exchange.WithPollInterval(time.Duration(cfg.Feed.PollIntervalMs)*time.Millisecond))
	}
	feed := exchange.NewFeed(cfg.Feed.Provider, cfg.Feed.Symbols, log, feedOpts...)

	go func() {
		if err := feed.Run(ctx, eng); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	log.Info().
		Str("provider", cfg.Feed.Provider).
		Strs("symbols", cfg.Feed.Symbols).
		Msg("signal engine started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	eng.Close()
	hub.Close()
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			log.Error().Err(err).Msg("close signal recorder")
		}
	}
}
