package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"whisper-relay/internal/app"
	"whisper-relay/internal/config"
)

const shutdownTimeout = 30 * time.Second

var (
	cfg     *config.Config
	envFile string

	host string
	port string
)

// Configure hands the loaded configuration to the command
func Configure(c *config.Config, loadedEnvFile string) {
	cfg = c
	envFile = loadedEnvFile
}

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	Cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the IPC bridge",
	Long: `Start the HTTP API and the IPC bridge

- POST /api/microphone accepts {"audio": base64, "language": code}
- POST /api/file accepts a multipart "file" and "language"
- GET /ipc upgrades to the desktop shell channel bridge
- GET /health and GET /metrics for health checks and scraping`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if host != "" {
			cfg.Server.Host = host
		}
		if port != "" {
			cfg.Server.Port = port
			if err := config.ValidatePort(port, "port"); err != nil {
				return err
			}
		}

		srv, cleanup, err := app.InitializeServer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		defer cleanup()

		if envFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "✅ Loaded environment from %s\n", envFile)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✅ HTTP API server running on http://%s\n", srv.Addr())

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}
