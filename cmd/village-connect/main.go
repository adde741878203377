package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"village-connect/internal/config"
	httpapi "village-connect/internal/http"
	"village-connect/internal/repository"
	"village-connect/internal/service"
	"village-connect/internal/store"
	"village-connect/pkg/database"
	"village-connect/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "village-connect")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 会话存储：Redis 未启用/不可达时回退内存 KV（本地联测）
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err == nil {
			kv = store.NewRedisKV(redisClient)
			log.Info("Redis enabled for session storage")
		} else {
			log.Warn("Redis enabled but connection failed, falling back to memory sessions", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}
	if kv == nil {
		kv = store.NewMemoryKV()
	}

	// 持久层：DB 未就绪时回退内存 repo（本地联测）
	var db *sql.DB
	var usersRepo repository.UsersRepository
	var residentsRepo repository.ResidentsRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for village-connect")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		usersRepo = repository.NewPostgresUsersRepository(db)
		residentsRepo = repository.NewPostgresResidentsRepository(db)
	} else {
		memUsers := repository.NewMemoryUsersRepo()
		memResidents := repository.NewMemoryResidentsRepo(memUsers)
		memUsers.BindResidents(memResidents)
		usersRepo = memUsers
		residentsRepo = memResidents
	}

	// Service 层
	userService := service.NewUserService(usersRepo, log)
	residentService := service.NewResidentService(residentsRepo, log)
	analyticsService := service.NewAnalyticsService(residentsRepo)
	exportService := service.NewExportService(residentsRepo, log)
	sessionService := service.NewSessionService(kv, cfg.Session.TTL, log)
	identityClient := service.NewIdentityClient(cfg.Identity.BaseURL, log)

	// HTTP 层
	sessionMW := httpapi.NewSessionMiddleware(sessionService, userService, log)
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(identityClient, userService, sessionService, log), sessionMW)
	router.RegisterResidentRoutes(httpapi.NewResidentHandler(residentService, log), sessionMW)
	router.RegisterAnalyticsRoutes(httpapi.NewAnalyticsHandler(analyticsService, log), sessionMW)
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(userService, exportService, log), sessionMW)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
