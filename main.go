package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lytic-game-system/handlers"
	"lytic-game-system/models"
	"lytic-game-system/services"
	"lytic-game-system/utils"
)

func main() {
	envErr := godotenv.Load()

	appEnv := os.Getenv("APP_ENV")
	if err := utils.InitLogger(appEnv); err != nil {
		panic(err)
	}
	defer utils.SyncLogger()
	log := utils.Log

	if envErr != nil {
		log.Info("⚠️  No .env file found, reading environment variables directly")
	}

	db, database, err := openDatabase()
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	if err := db.AutoMigrate(&models.GameResult{}); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache services.LeaderboardCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb, err := services.NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			log.Warnw("⚠️  Redis unavailable, leaderboard served from the database", "addr", addr, "error", err)
		} else {
			defer rdb.Close()
			cache = services.NewRedisLeaderboardCache(rdb, 60*time.Second)
			log.Infow("✅ Leaderboard cache connected", "addr", addr)
		}
	}

	jwtSecret := os.Getenv("SUPABASE_JWT_SECRET")
	configService := services.ConfigFromEnv(database)
	resultService := services.NewGameResultService(db, database, jwtSecret != "", cache)
	healthService := services.NewHealthService(db, configService.Environment, configService.Domain)

	var archive *services.ArchiveService
	store, err := utils.InitR2(ctx)
	switch {
	case errors.Is(err, utils.ErrR2NotConfigured):
		log.Info("ℹ️  R2 not configured, nightly archive disabled")
	case err != nil:
		log.Fatalw("failed to initialize R2 client", "error", err)
	default:
		archive = services.NewArchiveService(db, store)
	}

	sched, err := services.StartScheduler(resultService, archive)
	if err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}

	app := handlers.NewServer(resultService, configService, healthService, handlers.ServerOptions{
		RouteOptions: handlers.RouteOptions{
			Production: configService.IsProduction(),
			JWTSecret:  jwtSecret,
		},
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Errorw("Server error", "error", err)
		}
	}()

	log.Infow("✅ Server running", "port", port, "environment", configService.Environment, "database", database)
	if jwtSecret != "" {
		log.Info("✅ Player identity taken from verified access tokens")
	}

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		log.Warnw("scheduler shutdown", "error", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warnw("server shutdown", "error", err)
	}
}

// openDatabase uses DATABASE_URL (postgres) when set, otherwise a local SQLite file.
func openDatabase() (*gorm.DB, string, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		return db, "supabase", err
	}
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "games.db"
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	return db, "sqlite", err
}
