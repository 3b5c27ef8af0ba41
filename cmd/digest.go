package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/digest"
	"github.com/simmerhq/simmer/notify/email"
	"github.com/simmerhq/simmer/notify/webpush"
	"github.com/simmerhq/simmer/queue"
)

var digestCmd = &cobra.Command{
	Use:     "digest",
	Short:   "Run the like digest once and exit",
	Long:    `Run one like digest aggregation pass immediately, deliver the resulting notifications and exit. Useful for testing the digest setup or catching up after downtime.`,
	Example: `simmer digest --config config.yml`,
	Run:     runDigestOnce,
}

func init() {
	rootCmd.AddCommand(digestCmd)
}

func runDigestOnce(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx := cmd.Context()

	mailer := email.New(cfg.Email)
	deliveryQueue := queue.New(cfg.Queue.Workers, cfg.Queue.Buffer, digest.NewDeliveryHandler(mailer))
	deliveryQueue.Start(ctx)

	push := webpush.New(cfg.WebPush, db)
	engine := digest.New(cfg, db, deliveryQueue, mailer, push, nil)

	if err := engine.Run(ctx); err != nil {
		log.Fatalf("digest run failed: %v", err)
	}

	// drain the queue before exiting
	if err := deliveryQueue.Close(); err != nil {
		log.Error("failed to drain delivery queue", "error", err)
	}
}
