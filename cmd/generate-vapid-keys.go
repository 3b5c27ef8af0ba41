package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simmerhq/simmer/notify/webpush"
)

var generateVapidKeysCmd = &cobra.Command{
	Use:   "generate-vapid-keys",
	Short: "Generate a VAPID key pair for web push notifications",
	Run: func(_ *cobra.Command, _ []string) {
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Println("Add the following to your config file:")
		fmt.Println("webpush:")
		fmt.Println("  enabled: true")
		fmt.Printf("  public_key: %s\n", publicKey)
		fmt.Printf("  private_key: %s\n", privateKey)
	},
}

func init() {
	rootCmd.AddCommand(generateVapidKeysCmd)
}
