package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/trashbin/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the scheduled expiry job, the expiry request consumer and the ops HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
