package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/common/middleware"
	"github.com/harsh-s15/iitj-coder/internal/judge/repository"
	"github.com/harsh-s15/iitj-coder/internal/relay"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const defaultConfigPath = "configs/relay.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	channel := appCfg.Channel
	if channel == "" {
		channel = repository.UpdatesChannel
	}
	hub, err := relay.NewHub(redisCache, channel)
	if err != nil {
		logger.Error(context.Background(), "init relay hub failed", zap.Error(err))
		return
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hubErrCh := make(chan error, 1)
	go func() {
		hubErrCh <- hub.Run(hubCtx)
	}()

	httpServer := buildHTTPServer(appCfg.Server, hub)
	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "relay http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("channel", channel))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case err := <-hubErrCh:
		if err != nil {
			logger.Error(context.Background(), "relay hub stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	stopHub()
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg ServerConfig, hub *relay.Hub) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceContext())

	router.GET("/ws/submissions", gin.WrapH(hub))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": hub.ClientCount()})
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
