package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd-contract/pkg/identity"
	"github.com/getmockd/mockd-contract/pkg/specstore"
	"github.com/getmockd/mockd-contract/pkg/version"
)

// ErrNoVersionMatch is returned when no available version satisfies a request.
var ErrNoVersionMatch = errors.New("no matching version")

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the project identity or a spec version",
	}
	cmd.AddCommand(newResolveIdentityCmd(a), newResolveVersionCmd(a))
	return cmd
}

func newResolveIdentityCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show the name and version this project records and verifies as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := a.cfg.IdentityOptions()
			opts.Dir = dir
			id := identity.Resolve(opts)

			out := cmd.OutOrStdout()
			a.printResult(out, id, func() {
				fmt.Fprintf(out, "Name:     %s (%s)\n", orDash(id.Name), orDash(id.NameSource))
				fmt.Fprintf(out, "Version:  %s (%s)\n", orDash(id.Version), orDash(id.VersionSource))
				fmt.Fprintf(out, "Git SHA:  %s\n", orDash(id.GitSHA))
				fmt.Fprintf(out, "Branch:   %s\n", orDash(id.Branch))
				fmt.Fprintf(out, "CI:       %t\n", id.CI)
			})
			return id.Require()
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to resolve from (default working directory)")
	return cmd
}

func newResolveVersionCmd(a *app) *cobra.Command {
	var specsDir string
	cmd := &cobra.Command{
		Use:   "version <requested> [available...]",
		Short: "Pick the best available version for a request",
		Long: `Pick the version that best satisfies <requested>: an exact match, else the
highest patch of the same minor, else the highest minor of the same major.
"latest" picks the highest version.

Available versions are given as arguments, or read from a local spec store with
--specs-dir <dir> --service <name>.`,
		Example: `  mockd-contract resolve version 1.2.5 1.2.0 1.2.3 1.3.0
  mockd-contract resolve version latest --specs-dir ./specs --service orders`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested, available := args[0], args[1:]
			if specsDir != "" {
				service, _ := cmd.Flags().GetString("service")
				if service == "" {
					return errors.New("--service is required with --specs-dir")
				}
				versions, err := specstore.NewDir(specsDir).Versions(service)
				if err != nil {
					return err
				}
				available = append(available, versions...)
			}

			candidates := version.Candidates(available...)
			best := version.FindBestSemverMatch(requested, candidates)
			if requested == "latest" {
				best = version.GetLatestVersion(candidates)
			}
			if best == nil {
				return fmt.Errorf("%w for %s among %v", ErrNoVersionMatch, requested, available)
			}

			out := cmd.OutOrStdout()
			a.printResult(out, map[string]string{"requested": requested, "resolved": best.Version}, func() {
				fmt.Fprintln(out, best.Version)
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&specsDir, "specs-dir", "", "Read available versions from a local spec store")
	cmd.Flags().String("service", "", "Service whose versions are read from --specs-dir")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
