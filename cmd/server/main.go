// Vehicle Listing Scraper API
// @title Vehicle Listing Scraper API
// @version 1.0
// @description Extracts structured vehicle data from Bazaraki, Facebook Marketplace and AutoTrader UK listings.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "vehiclescraper/docs"
	"vehiclescraper/internal/app"
	"vehiclescraper/internal/config"
	"vehiclescraper/internal/handlers"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/middleware"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	logger.Init()
	log := logger.Default
	if envErr != nil {
		log.Debug().Msg("No .env file found")
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinLogger(logger.ForComponent("http")))

	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatal().Err(err).Msg("Invalid trusted proxies")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services, err := app.Initialize(ctx, cfg, app.Options{WithServer: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	scrapeHandler := handlers.NewScrapeHandler(handlers.Deps{
		Pipeline:       services.Pipeline,
		BrowserLimiter: services.BrowserLimiter,
		GeneralLimiter: services.GeneralLimiter,
		History:        services.DB,
	})

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Admin-Key"}
	corsConfig.ExposeHeaders = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.SecurityScanDetection())
	r.Use(middleware.HTTPMethodFilter([]string{"GET", "POST", "OPTIONS", "HEAD"}))
	r.Use(middleware.UserAgentFilter())
	r.Use(services.Throttle.Middleware())

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.POST("/scrape-vehicle", scrapeHandler.ScrapeVehicle)
		api.GET("/platforms", scrapeHandler.Platforms)
		api.GET("/rate-limit", scrapeHandler.RateLimitStatus)
		api.GET("/health", scrapeHandler.Health)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(cfg.AdminKeyHash))
	{
		admin.POST("/scrape-search", scrapeHandler.ScrapeSearch)
		admin.GET("/scrape-history", scrapeHandler.ScrapeHistory)
	}
	if cfg.AdminKeyHash == "" {
		log.Warn().Msg("ADMIN_KEY_HASH not set, admin routes are disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down gracefully...")

	// Browser scrapes can take a while to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
