package cmd

import (
	"os"

	"sensei-backoffice/internal/config"

	"github.com/spf13/cobra"
)

var flagEnvFiles []string

var rootCmd = &cobra.Command{
	Use:   "sensei",
	Short: "Gym back-office: finance, billing reminders, academy and POS",
	Long:  "Runs the back-office API and the operator commands for reconciling the ledger, sending WhatsApp billing batches and exporting reports.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv(flagEnvFiles...)
	},
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&flagEnvFiles, "env-file", []string{".env"}, "KEY=VALUE files loaded before reading the environment")
}
