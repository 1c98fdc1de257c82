package main

import (
	"context"
	"log"

	"github.com/spf13/pflag"

	"graphrelay/internal/app/bootstrap"
	"graphrelay/internal/platform/config"
)

// API process entrypoint.
// Data flow:
// 1) Load config (env, optional YAML overlay, flag overrides).
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	configFile := pflag.String("config", "", "path to optional YAML config overlay")
	httpPort := pflag.String("http-port", "", "override the HTTP listen port")
	pflag.Parse()

	log.Println("graphrelay api starting")

	cfg, err := config.LoadWithFile(*configFile)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if *httpPort != "" {
		cfg.HTTPPort = *httpPort
	}

	app, err := bootstrap.BuildAPIFromConfig(cfg)
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("graphrelay api stopped with error: %v", err)
	}
}
