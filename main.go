package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"whaleflow/config"
	"whaleflow/internal/detector"
	"whaleflow/internal/engine"
	"whaleflow/internal/models"
	"whaleflow/internal/reader/hyperliquid"
	"whaleflow/internal/ticker"
	"whaleflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}
	log.WithEnv("APP_ENV", "AWS_REGION", "LOG_LEVEL").Debug("environment loaded")

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	mode := flag.String("mode", "", "Detector mode to run")
	wallets := flag.String("wallets", "", "Comma-separated wallet addresses")
	window := flag.Duration("window", time.Hour, "Lookback window length")
	symbol := flag.String("symbol", "", "Resolve a ticker symbol instead of running a detector")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall scan timeout")
	paramsJSON := flag.String("params", "", "Detector parameters as JSON")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Whaleflow.Name,
		"version":     cfg.Whaleflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting whaleflow")

	if cfg.Metrics.Enabled {
		logger.InitCloudWatch(cfg.Metrics.Region, cfg.Metrics.Namespace, cfg.Metrics.Dashboard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	// Shutdown signals cancel the in-flight scan; partial results still print.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	client := hyperliquid.NewClient(cfg)

	scanCtx, scanCancel := context.WithTimeout(ctx, *timeout)
	defer scanCancel()

	if *symbol != "" {
		resolver := ticker.NewResolver(client)
		res, err := resolver.Resolve(scanCtx, *symbol)
		if err != nil {
			log.WithError(err).Error("ticker resolution failed")
			os.Exit(1)
		}
		printJSON(res)
		log.Info("whaleflow stopped")
		return
	}

	if *mode == "" {
		log.Error("either -mode or -symbol is required")
		os.Exit(1)
	}

	var params detector.Params
	if *paramsJSON != "" {
		if err := json.Unmarshal([]byte(*paramsJSON), &params); err != nil {
			log.WithError(err).Error("invalid -params JSON")
			os.Exit(1)
		}
	}

	req := engine.Request{
		Mode:    *mode,
		Wallets: splitWallets(*wallets),
		Window:  models.WindowEndingAt(time.Now(), *window),
		Params:  params,
	}

	eng := engine.New(cfg, client)
	resp, err := eng.Run(scanCtx, req)
	if err != nil {
		log.WithError(err).Error("scan failed")
		os.Exit(1)
	}

	printJSON(resp)
	log.Info("whaleflow stopped")
}

func splitWallets(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	wallets := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			wallets = append(wallets, trimmed)
		}
	}
	return wallets
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.GetLogger().WithError(err).Error("failed to encode result")
		os.Exit(1)
	}
	os.Stdout.Write(append(out, '\n'))
}
