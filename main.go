package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"leadership-progression-system/handlers"
	"leadership-progression-system/middleware"
	"leadership-progression-system/models"
	"leadership-progression-system/services"
	"leadership-progression-system/utils"
	"leadership-progression-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ProgressionProfile{},
		&models.SeasonLedger{},
		&models.SeasonWindow{},
		&models.RewardEvent{},
		&models.MirrorUser{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Redis is optional: without it the leaderboard just skips its page cache.
	var rdb *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL:", err)
		}
		rdb = redis.NewClient(redisOpts)
	} else {
		log.Println("⚠️  REDIS_URL not set — leaderboard page cache disabled")
	}

	analytics := services.NewAnalyticsBuffer(services.DefaultAnalyticsCapacity)
	rewardService := services.NewRewardService(
		services.NewGormProfileStore(db),
		services.NewGormLedgerStore(db),
		services.NewGormEventLogStore(db),
		analytics,
	)
	leaderboardService := services.NewLeaderboardService(db, rdb)
	renameService := services.NewRenameService(services.NewGormProfileStore(db), leaderboardService)
	seasonService := services.NewSeasonService(db)
	seasonService.ArchiveFunc = utils.UploadSeasonArchive

	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("PROGRESSION_SERVICE_TOKEN")

	syncWorker := workers.NewMirrorUserSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Mirror User Sync Worker...")
		syncWorker.Start(ctx)
	}()

	services.StartProgressionScheduler(seasonService, leaderboardService)

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupProgressionRoutes(app, rewardService, renameService, leaderboardService, seasonService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Mirror User Sync Worker running")
	log.Println("✅ Season scheduler running (hourly boundary sweep)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
