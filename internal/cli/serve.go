package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reforma/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API exposing the simulator, the mistakes matcher and the
onboarding question flow.

Endpoints:
  POST /api/v1/simulations
  POST /api/v1/mistakes
  POST /api/v1/steps
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverCfg := GetConfig().Server
		if serveAddr != "" {
			serverCfg.Addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.NewServer(serverCfg, logger).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}
