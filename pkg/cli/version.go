package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd-contract/pkg/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":   version.Current(),
				"commit":    version.Commit(),
				"goVersion": runtime.Version(),
				"platform":  runtime.GOOS + "/" + runtime.GOARCH,
			}
			out := cmd.OutOrStdout()
			a.printResult(out, info, func() {
				fmt.Fprintf(out, "mockd-contract %s\n", info["version"])
				if info["commit"] != "" {
					fmt.Fprintf(out, "  commit:   %s\n", info["commit"])
				}
				fmt.Fprintf(out, "  go:       %s\n", info["goVersion"])
				fmt.Fprintf(out, "  platform: %s\n", info["platform"])
			})
			return nil
		},
	}
}
