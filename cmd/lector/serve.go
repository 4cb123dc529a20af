package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Lector server",
	Long: `Start the Lector HTTP server.

The server provides:
  - /              - The extraction form
  - /api/extract   - JSON extraction endpoint
  - /api/options   - Engines, languages and formats
  - /health        - Basic server health check
  - /status        - Registered engines and config in use

Engines are built from the config file, which is watched for changes.

Examples:
  lector serve                    # Start on default port 8080
  lector serve --port 3000        # Start on custom port
  lector serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()
		if file := cfgMgr.ConfigFile(); file != "" {
			logger.Info("loaded config", "file", file)
			cfgMgr.WatchConfig()
		}

		// Flags win over config when given explicitly
		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		readTimeout, writeTimeout, err := cfg.Server.Timeouts()
		if err != nil {
			return err
		}

		// Create server
		srv, err := server.New(server.Config{
			Host:           host,
			Port:           port,
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			MaxUploadBytes: cfg.Uploads.MaxBytes,
			ConfigManager:  cfgMgr,
			Home:           h,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
