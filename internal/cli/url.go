package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"urlguard/internal/api"
	"urlguard/internal/app"
	"urlguard/internal/checker"
	"urlguard/internal/config"
	"urlguard/internal/domain"
	"urlguard/internal/registry"
)

var errSomeFailed = errors.New("one or more URLs failed")

// inputs returns args, or the non-empty lines of stdin when args is empty.
func inputs(in io.Reader, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var out []string
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func addCanonicalFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("strict-ipv6", false, "Reject malformed bracketed IPv6 hosts.")
	cmd.Flags().Bool("strict-idna", false, "Apply strict IDNA validation to hostnames.")
	cmd.Flags().Bool("json", false, "Print as JSON.")
}

func canonicalOptions(cmd *cobra.Command, cfg config.Config) domain.Options {
	opts := cfg.Canonical.Options()
	if v, _ := cmd.Flags().GetBool("strict-ipv6"); v {
		opts.StrictIPv6 = true
	}
	if v, _ := cmd.Flags().GetBool("strict-idna"); v {
		opts.StrictIDNA = true
	}
	return opts
}

func newCanonicalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canonicalize [url...]",
		Short: "Print the canonical form of each URL (reads stdin when no args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			urls, err := inputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			chk := checker.New(nil, checker.WithOptions(canonicalOptions(cmd, cfg)))
			asJSON, _ := cmd.Flags().GetBool("json")

			failed := false
			for _, raw := range urls {
				u, err := chk.Canonicalize(raw)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", raw, err)
					continue
				}
				if asJSON {
					if err := writeJSON(cmd.OutOrStdout(), api.NewCanonicalizeResponse(u)); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), u.String())
			}
			if failed {
				return errSomeFailed
			}
			return nil
		},
	}
	addCanonicalFlags(cmd)
	return cmd
}

func newExpressionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expressions [url...]",
		Short: "Print the lookup expressions of each URL, most specific first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			urls, err := inputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			chk := checker.New(nil, checker.WithOptions(canonicalOptions(cmd, cfg)))
			asJSON, _ := cmd.Flags().GetBool("json")
			hashes, _ := cmd.Flags().GetBool("hashes")

			failed := false
			for _, raw := range urls {
				gen, err := chk.Expressions(raw)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", raw, err)
					continue
				}
				if asJSON {
					if err := writeJSON(cmd.OutOrStdout(), api.NewExpressionsResponse(gen)); err != nil {
						return err
					}
					continue
				}
				for e := range gen.All() {
					if hashes {
						fmt.Fprintf(cmd.OutOrStdout(), "%08x\t%s\n", domain.HashExpression(e.String()).Prefix(), e)
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout(), e)
				}
			}
			if failed {
				return errSomeFailed
			}
			return nil
		},
	}
	addCanonicalFlags(cmd)
	cmd.Flags().Bool("hashes", false, "Prefix each expression with its 4-byte SHA-256 prefix.")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check [url...]",
		Short: "Check URLs against the configured blocklists once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if file != "" {
				cfg.Blocklist.File = file
			}
			if !cfg.HasSource() {
				return errors.New("no blocklist source: pass --file or configure one")
			}
			ctx, err := withLogger(cmd.Context(), cmd, cfg)
			if err != nil {
				return err
			}

			urls, err := inputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			srcs, _ := app.Sources(cfg)
			reg, err := srcs.FetchRegistry(ctx)
			if err != nil {
				return err
			}
			holder := registry.NewHolder()
			holder.Set(reg)

			allow, err := checker.NewAllowlist(cfg.Allowlist)
			if err != nil {
				return err
			}
			chk := checker.New(holder,
				checker.WithOptions(canonicalOptions(cmd, cfg)),
				checker.WithAllowlist(allow),
			)
			asJSON, _ := cmd.Flags().GetBool("json")

			failed := false
			for _, raw := range urls {
				res, err := chk.Check(ctx, raw)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", raw, err)
					continue
				}
				if asJSON {
					if err := writeJSON(cmd.OutOrStdout(), checkOutput(res)); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", verdictLabel(res), res.Canonical, matchSummary(res))
			}
			if failed {
				return errSomeFailed
			}
			return nil
		},
	}
	addCanonicalFlags(cmd)
	cmd.Flags().StringVar(&file, "file", "", "Blocklist file (overrides blocklist.file).")
	return cmd
}

func checkOutput(res checker.Result) *api.CheckResponse {
	return &api.CheckResponse{
		Raw:         res.Raw,
		Canonical:   res.Canonical.String(),
		Expressions: res.Expressions,
		Blocked:     res.Blocked,
		Allowlisted: res.Allowlisted,
		Matches:     res.Matches,
	}
}

func verdictLabel(res checker.Result) string {
	switch {
	case res.Allowlisted:
		return "ALLOW"
	case res.Blocked:
		return "BLOCK"
	default:
		return "CLEAN"
	}
}

func matchSummary(res checker.Result) string {
	if len(res.Matches) == 0 {
		return "-"
	}
	m := res.Matches[0]
	if m.Threat != nil && m.Threat.Category != "" {
		return m.Expression + " (" + m.Threat.Category + ")"
	}
	return m.Expression
}
