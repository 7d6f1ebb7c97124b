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
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/common/db"
	"github.com/harsh-s15/iitj-coder/internal/common/middleware"
	"github.com/harsh-s15/iitj-coder/internal/common/storage"
	"github.com/harsh-s15/iitj-coder/internal/judge/controller"
	"github.com/harsh-s15/iitj-coder/internal/judge/dispatcher"
	"github.com/harsh-s15/iitj-coder/internal/judge/queue"
	"github.com/harsh-s15/iitj-coder/internal/judge/repository"
	"github.com/harsh-s15/iitj-coder/internal/judge/sandbox"
	"github.com/harsh-s15/iitj-coder/internal/judge/service"
	"github.com/harsh-s15/iitj-coder/internal/judge/testcase"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const defaultConfigPath = "configs/judge_service.yaml"

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

	mysqlDB, err := db.NewMySQLWithConfig(&appCfg.Database)
	if err != nil {
		logger.Error(context.Background(), "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mysqlDB.Close()
	}()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	hiddenStore, err := buildHiddenStore(appCfg)
	if err != nil {
		logger.Error(context.Background(), "init test case store failed", zap.Error(err))
		return
	}

	executor, err := sandbox.NewDockerExecutor(appCfg.Sandbox)
	if err != nil {
		logger.Error(context.Background(), "init sandbox executor failed", zap.Error(err))
		return
	}

	submissionRepo := repository.NewSubmissionRepository(mysqlDB)
	questionRepo := repository.NewQuestionRepository(mysqlDB, redisCache)
	notifier := repository.NewRedisNotifier(redisCache)
	publisher := repository.NewResultPublisher(submissionRepo, notifier)

	jobQueue := newJobQueue(redisCache, appCfg.Queue)

	evalSvc, err := service.NewService(service.Config{
		Executor:    executor,
		Questions:   questionRepo,
		Submissions: submissionRepo,
		HiddenCases: hiddenStore,
		Results:     publisher,
	})
	if err != nil {
		logger.Error(context.Background(), "init evaluation service failed", zap.Error(err))
		return
	}

	intakeSvc, err := service.NewIntakeService(service.IntakeConfig{
		Submissions: submissionRepo,
		Questions:   questionRepo,
		Jobs:        jobQueue,
		HiddenCases: hiddenStore,
		Invalidator: questionRepo,
	})
	if err != nil {
		logger.Error(context.Background(), "init intake service failed", zap.Error(err))
		return
	}

	disp, err := dispatcher.New(dispatcher.Config{
		Source:    jobQueue,
		Evaluator: evalSvc,
		Workers:   appCfg.Worker.PoolSize,
	})
	if err != nil {
		logger.Error(context.Background(), "init dispatcher failed", zap.Error(err))
		return
	}

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	go disp.Run(consumeCtx)

	httpServer := buildHTTPServer(appCfg.Server, intakeSvc)
	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge http server started",
			zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	stopConsume()
	if !disp.Drain(appCfg.Worker.DrainTimeout) {
		logger.Warn(context.Background(), "dispatcher drain timed out")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHiddenStore(cfg *AppConfig) (testcase.HiddenStore, error) {
	if cfg.TestCases.Backend == "minio" {
		objStorage, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return testcase.NewObjectStore(objStorage, cfg.TestCases.Bucket, cfg.TestCases.Prefix)
	}
	return testcase.NewFSStore(cfg.TestCases.Root)
}

func newJobQueue(c cache.Cache, cfg QueueConfig) *queue.Queue {
	var opts []queue.Option
	if cfg.Key != "" {
		opts = append(opts, queue.WithKey(cfg.Key))
	}
	if cfg.PollTimeout > 0 {
		opts = append(opts, queue.WithPollTimeout(cfg.PollTimeout))
	}
	return queue.New(c, opts...)
}

func buildHTTPServer(cfg ServerConfig, intakeSvc *service.IntakeService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceContext())
	router.Use(middleware.RequestLogger())

	judgeController := controller.NewJudgeController(intakeSvc)
	judgeController.RegisterRoutes(router)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
