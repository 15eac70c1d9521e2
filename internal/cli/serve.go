package cli

import (
	"github.com/spf13/cobra"

	"urlguard/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC service and HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, err := withLogger(cmd.Context(), cmd, cfg)
			if err != nil {
				return err
			}
			return app.Run(ctx, cfg)
		},
	}
}
