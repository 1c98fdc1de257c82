package main

import (
	"context"
	"log"

	"github.com/spf13/pflag"

	"graphrelay/internal/app/bootstrap"
	"graphrelay/internal/platform/config"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config (env, optional YAML overlay, flag overrides).
// 2) Build app wiring.
// 3) Run the subscription renewal cycle on its schedule.
func main() {
	configFile := pflag.String("config", "", "path to optional YAML config overlay")
	pflag.Parse()

	log.Println("graphrelay worker starting")

	cfg, err := config.LoadWithFile(*configFile)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	app, err := bootstrap.BuildWorkerFromConfig(cfg)
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("graphrelay worker stopped with error: %v", err)
	}
}
