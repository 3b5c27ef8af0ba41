package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simmerhq/simmer/api"
	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/digest"
	"github.com/simmerhq/simmer/notify/email"
	"github.com/simmerhq/simmer/notify/webpush"
	"github.com/simmerhq/simmer/queue"
	"github.com/simmerhq/simmer/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Simmer server",
	Long:  `Start the Simmer server: the HTTP API, the delivery workers and the digest scheduler.`,
	Example: `simmer serve --config config.yml
simmer serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if rootCmdPersistentFlags.LogLevel == "" {
		setLogLevel(cfg.LogLevel)
	}

	if err := os.MkdirAll(cfg.Database.Path, 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mailer := email.New(cfg.Email)
	deliveryQueue := queue.New(cfg.Queue.Workers, cfg.Queue.Buffer, digest.NewDeliveryHandler(mailer))
	deliveryQueue.Start(ctx)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}

	push := webpush.New(cfg.WebPush, db)
	engine := digest.New(cfg, db, deliveryQueue, mailer, push, sched)

	// A failed schedule registration would silently disable all future
	// digests, so it is fatal to startup.
	if err := engine.RegisterSchedule(ctx); err != nil {
		log.Fatalf("failed to register digest schedule: %v", err)
	}
	sched.Start()

	server := api.New(cfg, db, sched, log.GetLevel() == log.DebugLevel)

	// Start the API server in a goroutine
	go func() {
		log.Info("starting API server", "listen", cfg.Listen)
		if err := server.Run(); err != nil {
			log.Error("API server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("simmer started successfully")
	<-c
	log.Info("shutting down gracefully...")

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", "error", err)
	}
	if err := deliveryQueue.Close(); err != nil {
		log.Error("failed to drain delivery queue", "error", err)
	}
	if err := db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}

	cancel()
	time.Sleep(2 * time.Second)
}
