package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"urlguard/internal/config"
	"urlguard/internal/logging"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "urlguard",
		Short:         "URL canonicalizer and hash-prefix blocklist checker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: trace|debug|info|warn|error.")
	cmd.PersistentFlags().String("log-format", "", "Logging format: json|console.")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCanonicalizeCmd())
	cmd.AddCommand(newExpressionsCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newBlocklistCmd())
	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// loadConfig reads the config named by --config and applies the logging
// flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	return cfg, nil
}

// withLogger attaches the configured logger, writing to stderr, to ctx.
func withLogger(ctx context.Context, cmd *cobra.Command, cfg config.Config) (context.Context, error) {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	logger, err := logging.New(lc, cmd.ErrOrStderr())
	if err != nil {
		return ctx, err
	}
	return logging.WithContext(ctx, logger), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
