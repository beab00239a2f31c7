package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SwingDesk/internal/di"
	"SwingDesk/internal/domain/models"
	"SwingDesk/pkg/config"
	"SwingDesk/pkg/util"
)

// scan runs one pass over the universe and prints the board as JSON.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	symbols := flag.String("symbols", "", "comma separated symbols, overrides scanner.symbols")
	account := flag.Int("account", -1, "print only this account's bucket")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *symbols != "" {
		cfg.Scanner.Symbols = util.SplitSymbols(*symbols)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	c, err := di.ProvideCache(cfg, logger)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()

	m := di.ProvideMetrics()
	limiter := di.ProvideLimiter()
	cal := di.ProvideTradingCalendar(cfg)
	chain := di.ProvideCandleChain(cfg, limiter, m, logger)
	src := di.ProvideSnapshotSource(cfg, chain, limiter, cal, c, logger)
	scanner := di.ProvideScanner(cfg, src, di.ProvideAnalyzer(), m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := scanner.Scan(ctx, cfg.Scanner.Symbols)

	var out interface{} = board
	if *account >= 0 {
		acct := di.ProvideAccounts(cfg).ByID(*account)
		out = struct {
			Account   models.Account         `json:"account"`
			Decisions []models.SetupDecision `json:"decisions"`
		}{Account: acct, Decisions: board.Buckets[*account]}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
