package main

import (
	"context"
	"os/signal"
	"syscall"

	"iotcare-data/internal/common/database"
	"iotcare-data/internal/common/logger"
	"iotcare-data/internal/config"
	httpapi "iotcare-data/internal/http"
	"iotcare-data/internal/metrics"
	"iotcare-data/internal/mqtt"
	"iotcare-data/internal/notify"
	"iotcare-data/internal/repository"
	"iotcare-data/internal/service"
	"iotcare-data/internal/store"
	"iotcare-data/internal/wiring"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 1. 数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	pool := repository.NewPool(db)

	deps := service.Deps{
		Logger:     log,
		Production: cfg.IsProduction(),
	}

	// 2. 可选的 Redis 最新记录缓存
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = store.NewRedisClient(&cfg.Redis.RedisConfig)
		if err := store.Ping(context.Background(), redisClient); err != nil {
			log.Warn("Redis unavailable, latest cache disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			cache := store.NewLatestCache(store.NewRedisKV(redisClient), cfg.Redis.LatestTTL)
			if n, err := cache.Purge(context.Background()); err != nil {
				log.Warn("Failed to purge latest cache", zap.Error(err))
			} else {
				log.Info("Latest cache purged", zap.Int("keys", n))
			}
			deps.Cache = cache
		}
	}

	// 3. 可选的紧急告警 webhook
	if n := notify.NewWebhookNotifier(cfg.Alert.WebhookURL, log); n != nil {
		deps.Notifier = n
	}

	reg := wiring.NewDefaultRegistry(pool, deps)

	// 4. HTTP
	proxies, err := httpapi.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	limiter := httpapi.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, proxies, log)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler:        httpapi.NewHandler(reg, log, cfg.HTTP.MaxBodyBytes),
		Logger:         log,
		ServiceName:    cfg.ServiceName,
		Version:        cfg.Version,
		AllowedOrigins: cfg.HTTP.AllowedHosts,
		RateLimiter:    limiter,
		TrustedProxies: proxies,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	srv := service.NewServer(service.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	}, router, log)

	// 5. 定时任务：连接池指标、限流桶回收
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 30s", func() {
		metrics.SetPoolStats(pool.Stats())
	}); err != nil {
		log.Fatal("Failed to schedule pool stats", zap.Error(err))
	}
	if limiter != nil {
		if _, err := scheduler.AddFunc("@every 5m", func() {
			if n := limiter.Cleanup(); n > 0 {
				log.Debug("Rate limiter buckets dropped", zap.Int("count", n))
			}
		}); err != nil {
			log.Fatal("Failed to schedule limiter cleanup", zap.Error(err))
		}
	}
	scheduler.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 6. 可选的 MQTT 接入
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(&cfg.MQTT.MQTTConfig, log)
		if err != nil {
			log.Error("MQTT disabled: connect failed", zap.Error(err))
		} else {
			ingestor := mqtt.NewIngestor(mqttClient, reg, cfg.MQTT.Topic, cfg.MQTT.QoS, log)
			go func() {
				if err := ingestor.Start(ctx); err != nil {
					log.Error("MQTT ingestor failed", zap.Error(err))
				}
			}()
		}
	}

	log.Info("Service started",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("environment", cfg.Environment),
		zap.Bool("redis", deps.Cache != nil),
		zap.Bool("mqtt", mqttClient != nil),
	)

	// 7. 阻塞直到收到信号；HTTP 在 ShutdownTimeout 内排空
	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP server stopped", zap.Error(err))
	}
	stop()
	log.Info("Shutting down")

	<-scheduler.Stop().Done()
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
