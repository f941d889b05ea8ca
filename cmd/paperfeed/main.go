package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"PaperFeed/internal/app"
	"PaperFeed/internal/config"
	"PaperFeed/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single fetch with the scheduler defaults and exit")
	enrichOnce := flag.Bool("enrich", false, "with -once, also fill missing abstracts")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("couldn't load .env file:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	app.SetReleaseMode()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *once {
		result, err := application.FetchOnce(ctx)
		if err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}
		logger.Info("fetch completed", "admitted", result.Total, "query", result.Query)

		if *enrichOnce {
			papers, err := application.EnrichOnce(ctx)
			if err != nil {
				logger.Error("enrich failed", "error", err)
				os.Exit(1)
			}
			logger.Info("enrich completed", "updated", len(papers))
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
