package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd-contract/pkg/cli/internal/output"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/spec"
)

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <spec-file>",
		Short: "Detect a spec's type and list the operations it mocks",
		Example: `  mockd-contract detect openapi.yaml
  mockd-contract detect schema.graphql --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			typ := spec.DetectType(string(content))
			if typ == "" {
				return fmt.Errorf("%s: %w", args[0], spec.ErrUnknownType)
			}
			doc, err := spec.Load(cmd.Context(), &contract.Spec{
				Service: strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])),
				Type:    typ,
				Content: string(content),
			})
			if err != nil {
				return err
			}

			ops := doc.Operations()
			out := cmd.OutOrStdout()
			a.printResult(out, map[string]any{"specType": typ, "operations": ops}, func() {
				fmt.Fprintf(out, "Type: %s\n", typ)
				fmt.Fprintf(out, "Operations (%d):\n", len(ops))
				tw := output.Table(out)
				for _, op := range ops {
					fmt.Fprintf(tw, "  %s\t%s\t%s %s\n", op.ID, op.Kind, op.Method, op.Path)
				}
				_ = tw.Flush()
			})
			return nil
		},
	}
}
