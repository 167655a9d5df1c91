package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/oneiromind/internal/admincli"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	_ = godotenv.Load()

	// flags belong to cobra; defaults, JSON and env still apply
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := admincli.New(cfg).RootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

}
