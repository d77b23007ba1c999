package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edgegate/api/audit"
	"github.com/edgegate/api/config"
	"github.com/edgegate/api/controller"
	"github.com/edgegate/api/db"
	logger "github.com/edgegate/api/logging"
	"github.com/edgegate/api/middleware"
	"github.com/edgegate/api/router"
	"github.com/edgegate/api/turnstile"
	"github.com/edgegate/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger("logging")
	defer logger.Sync()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Wire the decision audit trail
	var auditController *controller.AuditController
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Warn("Audit trail disabled", zap.Error(err))
	} else {
		auditService := audit.NewService(auditRepository)
		audit.Subscribe(eventBus, auditService)
		auditController = controller.NewAuditController(auditService)
	}

	// Wire the token gate. Both the secret and the cache URL are required;
	// without them the gate runs in pass-through mode.
	gateOpts := middleware.TurnstileOptions{EventBus: eventBus}
	secret := config.GetString("turnstile.secret")
	redisURL := config.GetString("redis.url")
	if secret != "" && redisURL != "" {
		tokenCache := db.NewTokenCache(redisURL, config.GetDuration("turnstile.cacheTTL"))
		defer tokenCache.Close()

		gateOpts.Cache = tokenCache
		gateOpts.Verifier = turnstile.NewCloudflareVerifier(
			secret,
			config.GetString("turnstile.verifyURL"),
			config.GetDuration("turnstile.verifyTimeout"),
		)
	}

	// Set up the server
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(middleware.Turnstile(gateOpts), auditController)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
