package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/config"
	"github.com/novelarc/novelarc/internal/defra"
	"github.com/novelarc/novelarc/internal/home"
	"github.com/novelarc/novelarc/internal/server"
	"github.com/novelarc/novelarc/internal/server/endpoints"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Novelarc server",
	Long: `Start the Novelarc HTTP server.

This starts both the HTTP API server and the DefraDB container.
When the server shuts down (via Ctrl+C or SIGTERM), DefraDB is also stopped.

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (includes DefraDB status)
  - /api    - Novels, translation jobs, glossaries and settings

Examples:
  novelarc serve                    # Start on default port 8080
  novelarc serve --port 3000        # Start on custom port
  novelarc serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load file configuration with hot reload
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		var cfgMgr *config.Manager
		if cfgPath != "" {
			cfgMgr, err = config.NewManager(cfgPath)
			if err != nil {
				return err
			}
			cfgMgr.WatchConfig()
			logger.Info("loaded config", "path", cfgPath)
		}

		// Ensure defradb data directory exists
		defraDataPath := filepath.Join(h.Path(), "defradb")
		if err := os.MkdirAll(defraDataPath, 0755); err != nil {
			return err
		}

		defraCfg := defra.DockerConfig{}
		host, port := serveHost, servePort
		if cfgMgr != nil {
			c := cfgMgr.Get()
			defraCfg.ContainerName = c.Defra.ContainerName
			defraCfg.Image = c.Defra.Image
			defraCfg.HostPort = c.Defra.Port
			if !cmd.Flags().Changed("host") && c.Server.Host != "" {
				host = c.Server.Host
			}
			if !cmd.Flags().Changed("port") && c.Server.Port != "" {
				port = c.Server.Port
			}
		}

		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			DefraDataPath:   defraDataPath,
			DefraConfig:     defraCfg,
			ConfigManager:   cfgMgr,
			Home:            h,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
