package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"recommender/internal/config"
	"recommender/internal/embedding/tfidf"
	"recommender/internal/logging"
	"recommender/internal/service"
	"recommender/internal/summarizer"
	transport "recommender/internal/transport/http"
	"recommender/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, catalogPath, mode string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/recommender/config.yaml if not provided)")
	flag.StringVar(&catalogPath, "catalog", "", "Path to the movie catalog CSV (overrides config)")
	flag.StringVar(&mode, "mode", "tui", "Shell to run: tui or serve")
	flag.Parse()

	if mode != "tui" && mode != "serve" {
		log.Fatalf("unknown mode: %s", mode)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}

	if err := run(cfg, mode); err != nil {
		log.Fatal(err)
	}
}

// run owns the log file, so it is closed on every return path.
func run(cfg *config.AppConfig, mode string) error {
	logCfg := cfg.Log
	if mode == "tui" && logCfg.File == "" {
		// keep log lines out of the terminal UI
		logCfg.File = "recommender.log"
	}
	logger, closer, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mode == "tui" {
		fmt.Println("Loading movie data...")
	}
	eng, err := service.Build(ctx, cfg.Catalog.Path, service.Options{
		KeepUntagged: cfg.Catalog.KeepUntagged,
		Vectorizer: tfidf.Config{
			MaxFeatures: cfg.Vectorizer.MaxFeatures,
			StopWords:   cfg.Vectorizer.StopWords,
		},
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("build failed")
		return fmt.Errorf("build failed: %w", err)
	}

	if mode == "serve" {
		srv := transport.NewServer(eng, transport.Config{
			Addr:        cfg.Server.Addr,
			MetricsPath: cfg.Server.MetricsPath,
			DefaultK:    cfg.Query.DefaultK,
			MaxK:        cfg.Query.MaxK,
		}, logger)
		if err := srv.Run(ctx); err != nil {
			logger.WithError(err).Error("server failed")
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	m := tui.New(eng, summarizer.NewFrequencySummarizer(), tui.Limits{
		DefaultK:        cfg.Query.DefaultK,
		MinK:            cfg.Query.MinK,
		MaxK:            cfg.Query.MaxK,
		SuggestionLimit: cfg.Query.SuggestionLimit,
		MinSearchChars:  cfg.Query.MinSearchChars,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
