// Command scrape extracts one listing and prints the result as JSON.
//
//	scrape https://www.bazaraki.com/adv/5813277_mercedes-benz-actros/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vehiclescraper/internal/app"
	"vehiclescraper/internal/config"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/platform"
	"vehiclescraper/internal/validation"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code so deferred cleanup always happens.
func run(args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load()
	logger.Init()
	log := logger.ForComponent("scrape-cli")

	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: scrape <listing-url>")
		return 2
	}

	listingURL, err := validation.ValidateListingURL(args[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	plat := platform.Detect(listingURL)
	if plat == platform.Unsupported {
		fmt.Fprintf(stderr, "unsupported platform, supported: %v\n", platform.DisplayNames())
		return 2
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services, err := app.Initialize(ctx, cfg, app.Options{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return 1
	}
	defer services.Cleanup()

	result, err := services.Pipeline.Run(ctx, plat, listingURL)
	if err != nil {
		log.Error().Err(err).Str("url", listingURL).Msg("scrape failed")
		return 1
	}
	if result.IsFallback() {
		log.Warn().Str("reason", result.Reason).Msg("live scrape failed, printing fallback data")
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Error().Err(err).Msg("failed to encode result")
		return 1
	}
	return 0
}
