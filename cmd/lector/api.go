package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

var (
	waitTimeout  time.Duration
	waitInterval time.Duration
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until the server is healthy",
	Long: `Poll /health until the server answers ok or --timeout elapses.

Useful in scripts that start "lector serve" in the background:
  lector serve & lector api wait --timeout 30s && lector api extract scan.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if waitInterval <= 0 {
			return fmt.Errorf("--interval must be positive")
		}
		attempts := uint(waitTimeout/waitInterval) + 1
		client := api.NewClient(getServerURL())
		if err := client.WaitReady(cmd.Context(), attempts, waitInterval); err != nil {
			return fmt.Errorf("server at %s not ready after %s: %w", getServerURL(), waitTimeout, err)
		}
		fmt.Println("Status: ok")
		return nil
	},
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All() {
		registry.Register(ep)
	}
	apiCmd := registry.BuildCommands(getServerURL)

	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 30*time.Second, "How long to keep polling")
	waitCmd.Flags().DurationVar(&waitInterval, "interval", 500*time.Millisecond, "Delay between polls")
	apiCmd.AddCommand(waitCmd)

	rootCmd.AddCommand(apiCmd)
}
