package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/milkywaybrain/goccxt/internal/initializer"
)

func main() {
	cfgPath := flag.String("config", "./config.json", "config file path, JSON or YAML")
	envPath := flag.String("env", ".env", "optional env file with exchange credentials")
	flag.Parse()

	// Credentials in the config are usually ${VAR}, a missing env file is fine.
	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "not able to load env file:", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("recorder started, logs at", cfg.Log.FilePath)
	err = initializer.Start(ctx, cfg)
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "recorder stopped:", err)
		stop()
		os.Exit(1)
	}
	fmt.Println("recorder stopped")
}
