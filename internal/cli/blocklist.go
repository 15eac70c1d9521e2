package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"urlguard/internal/registry"
)

func newBlocklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Manage the local blocklist file",
	}
	cmd.PersistentFlags().String("file", "", "Blocklist file (overrides blocklist.file).")

	cmd.AddCommand(newBlocklistListCmd())
	cmd.AddCommand(newBlocklistAddCmd())
	cmd.AddCommand(newBlocklistRemoveCmd())
	cmd.AddCommand(newBlocklistStatusCmd("enable", true))
	cmd.AddCommand(newBlocklistStatusCmd("disable", false))
	return cmd
}

func fileSourceFromCmd(cmd *cobra.Command) (*registry.FileSource, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	path := cfg.Blocklist.File
	if v, _ := cmd.Flags().GetString("file"); v != "" {
		path = v
	}
	if path == "" {
		return nil, errors.New("no blocklist file: pass --file or set blocklist.file")
	}
	return registry.NewFileSource(path), nil
}

func newBlocklistListCmd() *cobra.Command {
	var outputJSON, activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blocklist entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := fileSourceFromCmd(cmd)
			if err != nil {
				return err
			}
			records, err := src.Records()
			if err != nil {
				return err
			}
			if activeOnly {
				kept := records[:0]
				for _, r := range records {
					if r.Status {
						kept = append(kept, r)
					}
				}
				records = kept
			}
			if outputJSON {
				if records == nil {
					records = []registry.Record{}
				}
				return writeJSON(cmd.OutOrStdout(), records)
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no entries")
				return nil
			}
			for _, r := range records {
				status := "active"
				if !r.Status {
					status = "inactive"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
					r.URL, status, r.Category, r.DateAdded, r.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active entries")
	return cmd
}

func newBlocklistAddCmd() *cobra.Command {
	var category, reason string
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a URL to the blocklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := fileSourceFromCmd(cmd)
			if err != nil {
				return err
			}
			added, err := src.Add(args[0], category, reason)
			if err != nil {
				return err
			}
			if !added {
				return fmt.Errorf("%s is already listed", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "manual", "Threat category")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the URL is listed")
	return cmd
}

func newBlocklistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <url>",
		Short: "Remove a URL from the blocklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := fileSourceFromCmd(cmd)
			if err != nil {
				return err
			}
			ok, err := src.Remove(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not listed", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newBlocklistStatusCmd(name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <url>",
		Short: name + " a blocklist entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := fileSourceFromCmd(cmd)
			if err != nil {
				return err
			}
			ok, err := src.SetStatus(args[0], active)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not listed", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", name, args[0])
			return nil
		},
	}
}
