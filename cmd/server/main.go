package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/oneiromind/internal/buildinfo"
	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// a missing .env is fine; the real environment still applies
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stdout)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
