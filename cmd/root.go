package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "broadcast-service",
	Short: "Broadcast service: device pairing, signaling relay, stream lifecycle",
	Long:  `HTTP API for memorial live broadcasts. Commands: api, command, seed, cleanup.`,
	RunE:  runAPI, // default: run API (same as "broadcast-service api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(cleanupCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
