// File: fieldly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldly/api"
	"fieldly/config"
	"fieldly/handlers"
	"fieldly/middleware"
	"fieldly/routes"
	"fieldly/services/lifecycle"
	"fieldly/services/payment"
	"fieldly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitSessionCache()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSMiddleware())

	// Collaborators.
	marketplace := api.NewHTTPClient(
		config.AppConfig.MarketplaceBaseURL,
		os.Getenv("MARKETPLACE_TOKEN"),
		config.AppConfig.MarketplaceTimeout,
		logger,
	)
	routeProvider := api.NewGoogleRouteProvider(config.AppConfig.GoogleAPIKey)
	gateway := payment.NewStripeGateway(logger)
	sessionStore := lifecycle.NewSessionStore(utils.GetSessionCacheClient(), 24*time.Hour)

	// Lifecycle core.
	sessionManager := lifecycle.NewSessionManager(
		marketplace,
		routeProvider,
		sessionStore,
		gateway,
		config.AppConfig.Currency,
		lifecycle.Timing{
			PollInterval: config.AppConfig.PollInterval,
			SearchBudget: config.AppConfig.SearchTimeout,
			ElapsedTick:  config.AppConfig.ElapsedTick,
		},
		logger,
	)

	jobHandler := handlers.NewJobHandler(sessionManager, logger)
	routeHandler := handlers.NewRouteHandler(routeProvider)

	routes.RegisterJobRoutes(router, jobHandler, routeHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
