package app

import (
	"Gin_postgres_redis_device_tracker/cache"
	"Gin_postgres_redis_device_tracker/config"
	"Gin_postgres_redis_device_tracker/db"
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖，显式传给 controllers，不走全局变量
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config

	activeCache *cache.ActiveFlagCache
}

// Config 从环境变量读取
type Config struct {
	RedisAddr      string
	RedisPwd       string
	WebOrigin      string
	JWTSecret      string
	ActiveCacheTTL time.Duration
}

func (a *App) ActiveCache() *cache.ActiveFlagCache { return a.activeCache }

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
		activeCache: cache.NewActiveFlagCache(rdb, cfg.ActiveCacheTTL),
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	ttlSec := config.GetEnvAsInt("ACTIVE_CACHE_TTL_SECONDS", 5)

	secret := config.GetEnv("JWT_SECRET", "")
	if strings.TrimSpace(secret) == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return Config{
		RedisAddr:      config.GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       config.GetEnv("REDIS_PASSWORD", ""),
		WebOrigin:      config.GetEnv("WEB_ORIGIN", "http://localhost:3000"),
		JWTSecret:      secret,
		ActiveCacheTTL: time.Duration(ttlSec) * time.Second,
	}
}
