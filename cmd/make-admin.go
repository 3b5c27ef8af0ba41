package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
)

var makeAdminCmd = &cobra.Command{
	Use:     "make-admin <email>",
	Short:   "Grant admin rights to an existing user",
	Long:    `Grant admin rights to the user registered under the given email address. Admins can access the stats endpoint and trigger the like digest manually. The command is idempotent, running it on an admin changes nothing.`,
	Example: `simmer make-admin alice@example.com`,
	Args:    cobra.ExactArgs(1),
	Run:     makeAdmin,
}

func init() {
	rootCmd.AddCommand(makeAdminCmd)
}

func makeAdmin(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	user, err := db.SetUserAdmin(cmd.Context(), args[0], true)
	if err != nil {
		log.Fatalf("failed to grant admin rights: %v", err)
	}
	log.Info("user is now an admin", "user", user.ID, "email", user.Email)
}
