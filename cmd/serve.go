package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"recycle-reward-system/handlers"
	"recycle-reward-system/middleware"
	"recycle-reward-system/services"
	"recycle-reward-system/utils"
	"recycle-reward-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API, detection consumer and background jobs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	if cfg.SeedChallenges {
		n, err := rt.seedChallenges(ctx, nil)
		if err != nil {
			return err
		}
		log.Printf("✅ Seeded %d challenge(s)", n)
	}

	consumer := workers.NewDetectionConsumer(rt.issuer, cfg.DetectedTopic)
	unsubscribe, err := consumer.Start(rt.bus)
	if err != nil {
		return err
	}
	defer unsubscribe()

	if cfg.SyncServiceURL != "" {
		syncWorker := workers.NewAccountSyncWorker(rt.db, cfg.SyncServiceURL, "/api/v1/public/profiles", cfg.SyncServiceToken, cfg.SyncInterval)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  SYNC_SERVICE_URL not set, account mirror disabled")
	}

	var archiver *services.LedgerArchiver
	if cfg.ArchiveEnabled() {
		r2, err := utils.NewR2Client(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2Bucket)
		if err != nil {
			return err
		}
		archiver = services.NewLedgerArchiver(rt.ledger, r2, rt.clock, cfg.ArchiveInterval)
	}

	sched, err := services.StartMaintenanceScheduler(rt.clock, services.MaintenanceConfig{
		SweepInterval:    cfg.SweepInterval,
		ExpiredRetention: cfg.ExpiredRetention,
		RepairInterval:   cfg.RepairInterval,
		RepairGrace:      cfg.RepairGrace,
		ArchiveInterval:  cfg.ArchiveInterval,
	}, rt.tokens, rt.claims, archiver)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("⚠️ [Scheduler] Shutdown: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "recycle-reward-system",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID, X-Requested-With",
		MaxAge:       86400,
	}))
	app.Use(middleware.UserContextMiddleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Recycle reward API is running...")
	})
	handlers.SetupClaimRoutes(app, rt.claims)
	handlers.SetupTokenRoutes(app, rt.issuer, rt.display, cfg.DeviceToken)
	handlers.SetupChallengeRoutes(app, rt.challenges)
	handlers.SetupUserRoutes(app, rt.users, rt.ledger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
