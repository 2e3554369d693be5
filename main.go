package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tuition_go/config"
	"tuition_go/controllers"
	"tuition_go/database"
	"tuition_go/database/seeders"
	"tuition_go/handlers"
	"tuition_go/middleware"
	"tuition_go/models"
	"tuition_go/routes"
	"tuition_go/services"
	"tuition_go/services/notifications"
	"tuition_go/services/websocket"
	"tuition_go/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func init() {
	// Load configuration
	config.LoadConfig()

	// Initialize logging
	setupLogging(config.AppConfig.LogLevel, config.AppConfig.LogFile)

	// Connect to database
	database.Connect()
}

func main() {
	cfg := config.AppConfig
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := services.NewSystemClock(cfg.Location())
	defaultFee, err := decimal.NewFromString(cfg.DefaultMonthlyFee)
	if err != nil {
		log.Fatalf("Invalid DEFAULT_MONTHLY_FEE %q: %v", cfg.DefaultMonthlyFee, err)
	}

	// Create WebSocket hub first
	wsHub := websocket.NewHub()
	go wsHub.Run()

	studentRepo := database.NewStudentRepository(database.GetDB())
	feeRepo := database.NewFeeRepository(database.GetDB())
	reminderLogs := database.NewReminderLogRepository(database.GetDB())
	archives := database.NewReportArchiveRepository(database.GetDB())

	generator := services.NewFeeGenerator(studentRepo, feeRepo)
	generator.SetEventPublisher(wsHub)

	registry := services.NewStudentService(studentRepo, feeRepo, clock, defaultFee)
	if cfg.GenerateFeeOnRegister {
		registry.OnRegister(func(ctx context.Context, st *models.Student) error {
			_, err := generator.GenerateForNewStudent(ctx, st)
			return err
		})
	}

	ledger := services.NewFeeService(feeRepo, studentRepo, clock)
	ledger.SetManualDueDays(cfg.ManualFeeDueDays)
	ledger.SetEventPublisher(wsHub)

	agg := services.NewAggregationService(feeRepo, studentRepo, clock)

	// Reminder delivery: LINE push when configured, queued through Redis when enabled
	line := services.NewLineMessagingService(cfg.LineChannelSecret, cfg.LineChannelAccessToken)
	notifService := notifications.NewService(database.GetRedisClient(), cfg.UseRedisNotifications, line, reminderLogs)
	notifService.SetWebSocketHub(wsHub)
	stopNotif := make(chan struct{})
	if cfg.UseRedisNotifications {
		notifService.StartWorker(stopNotif)
	}

	reminders := services.NewReminderService(feeRepo, studentRepo, clock)
	reminders.SetCurrencySymbol(cfg.CurrencySymbol)
	reminders.SetQueue(notifService)

	reports := services.NewReportService(feeRepo, studentRepo, agg, clock)
	archiveSpec := ""
	if cfg.S3BucketName != "" {
		uploader, err := storage.NewStorageService(ctx, storage.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3BucketName,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			logrus.WithError(err).Warn("Report archiving disabled: cannot load AWS configuration")
		} else {
			reports.SetArchive(uploader, archives)
			archiveSpec = cfg.ReportArchiveCron
		}
	}

	if cfg.SeedDemoData {
		seeders.SeedAll(ctx, registry)
	}

	var scheduler *services.BillingScheduler
	if cfg.EnableScheduler {
		scheduler, err = services.NewBillingScheduler(services.ScheduleConfig{
			BillingSpec:  cfg.BillingCron,
			ReminderSpec: cfg.ReminderCron,
			ArchiveSpec:  archiveSpec,
			Location:     cfg.Location(),
		}, generator, reminders, reports, clock)
		if err != nil {
			log.Fatalf("Invalid scheduler configuration: %v", err)
		}
		scheduler.Start()
	}

	health := services.HealthOptions{
		Environment: cfg.AppEnv,
		Driver:      cfg.DBDriver,
		Ledger:      feeRepo,
		Queue:       notifService,
		Clock:       clock,
		Flags: services.HealthFlags{
			SkipMigrate:           cfg.SkipMigrate,
			UseRedisNotifications: cfg.UseRedisNotifications,
			AuthEnabled:           cfg.AuthEnabled,
			SchedulerEnabled:      cfg.EnableScheduler,
			GenerateOnRegister:    cfg.GenerateFeeOnRegister,
		},
	}
	if scheduler != nil {
		health.Scheduler = scheduler
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: controllers.ErrorHandler,
		BodyLimit:    int(cfg.MaxBodySize),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerMiddleware())

	ctl := routes.Controllers{
		Students:  controllers.NewStudentController(registry, ledger, reminders),
		Fees:      controllers.NewFeeController(ledger, generator),
		Dashboard: controllers.NewDashboardController(agg),
		Reminders: controllers.NewReminderController(reminders),
		Reports:   controllers.NewReportController(reports),
		Health:    controllers.NewHealthController(services.NewHealthService(health)),
		WebSocket: controllers.NewWebSocketController(wsHub, cfg.JWTSecret, cfg.AuthEnabled),
	}
	if line.Enabled() {
		ctl.LineWebhook = handlers.NewLineWebhookHandler(cfg.LineChannelSecret, registry, line)
		log.Println("LINE webhook enabled at /line/webhook")
	} else {
		log.Println("LINE webhook disabled: missing LINE_CHANNEL_SECRET or LINE_CHANNEL_ACCESS_TOKEN")
	}
	routes.SetupRoutes(app, ctl, routes.Auth{Enabled: cfg.AuthEnabled, JWTSecret: cfg.JWTSecret})

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		if scheduler != nil {
			scheduler.Stop()
		}
		close(stopNotif)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Environment: %s", cfg.AppEnv)

	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
	database.Close()
}

// setupLogging configures the logging system
func setupLogging(levelName, logFile string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// stdout in development, file otherwise
	if os.Getenv("APP_ENV") == "development" || logFile == "" {
		logrus.SetOutput(os.Stdout)
		return
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		log.Printf("Warning: Could not create log directory: %v", err)
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logrus.SetOutput(file)
	}
}
