package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "joa_realtime/cmd/relay_service/docs" // swag init 產生的文件
	"joa_realtime/internal/relay/app"
	"joa_realtime/internal/relay/domain"
	"joa_realtime/internal/relay/repository"
	"joa_realtime/internal/relay/router"
	"joa_realtime/pkg/config"
	"joa_realtime/pkg/database"
	"joa_realtime/pkg/logger"
	testtool "joa_realtime/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.RelayService, config.EnvConfig.RelayServiceLogPath)
	cfg := config.LoadConfig[config.Relay](config.EnvConfig.RelayService, config.EnvConfig.RelayServiceYAMLPath)
	cfg.Defaults()
	if config.EnvConfig.RelayServicePort != "" {
		cfg.Port = config.EnvConfig.RelayServicePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 建立 Mongo 連線 (存聊天室和訊息)
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval) * time.Second,
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.MongoSQL.Host, cfg.MongoSQL.Port)),
			zap.Error(err),
		)
	}
	defer mongo.Close(context.Background())

	// 2. 建立 Redis 連線 (Pub/Sub, 訊息序號, profile)
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Log.Fatal("connect redis err", zap.Error(err))
	}
	defer redisClient.Close()

	// 3. 初始化 Repository
	roomRepo := repository.NewMongoChatRepository(mongo.Database)
	msgRepo := repository.NewMongoChatMessageRepository(mongo.Database)
	pubsub := repository.NewRedisPubSub(redisClient)
	seq := repository.NewRedisSequence(redisClient, domain.MessageSeqKey)
	profiles := database.NewRedisRepository[domain.MemberProfile](redisClient)

	// 4. 初始化 UseCases
	roomUC := app.NewRoomUseCase(roomRepo, msgRepo, pubsub, profiles, cfg.RoomTTL)
	sendMessageUC := app.NewSendMessageUseCase(roomUC, msgRepo, pubsub, seq)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := app.NewMetrics(reg)

	// 5. 啟動 Fiber
	r := fiber.New(fiber.Config{DisableStartupMessage: true})
	accessLog, closeLog := openAccessLog(config.EnvConfig.RelayServiceLogPath)
	defer closeLog()
	r.Use(fiber_log.New(fiber_log.Config{Output: accessLog}))

	router.RegisterRoutes(ctx, r, cfg, reg,
		app.NewChatWebsocketHandler(roomUC, sendMessageUC, pubsub, metrics, cfg.PingInterval),
		app.NewRESTHandler(roomUC, sendMessageUC),
	)
	testtool.StartPprof(cfg.PprofAddr)

	go func() {
		<-ctx.Done()
		logger.Log.Info("relay shutting down")
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("shutdown failed", zap.Error(err))
		}
	}()

	port := ":" + cfg.Port
	logger.Log.Info("Relay Service listening", zap.String("port", port))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}

// connectRedis single node when addr is set, sentinel from .env otherwise
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr != "" {
		return database.NewRedisClient(ctx, cfg.Addr, cfg.RedisDB)
	}
	masterName, sentinel := config.GetRedisSetting()
	return database.NewRedisFailoverClient(ctx, masterName, sentinel, cfg.RedisDB)
}

func openAccessLog(dir string) (io.Writer, func()) {
	if dir == "" {
		return os.Stdout, func() {}
	}
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", dir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Warn("Failed to open access log, using stdout", zap.Error(err))
		return os.Stdout, func() {}
	}
	return file, func() { _ = file.Close() }
}
