package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockd-contract/pkg/compare"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/logging"
)

// ErrResponseMismatch is returned when compared responses differ.
var ErrResponseMismatch = errors.New("responses do not match")

func newCompareCmd(a *app) *cobra.Command {
	var (
		arrays string
		ignore []string
	)
	cmd := &cobra.Command{
		Use:   "compare <expected> <actual>",
		Short: "Compare an expected response with an actual one",
		Long: `Compare two responses the way verification does: status first, then body
structure, then content sanity. Each file holds a response as YAML or JSON:

  status: 200
  headers: {Content-Type: application/json}
  body: {id: o-1, items: [{sku: a}]}`,
		Example: `  mockd-contract compare expected.yaml actual.json
  mockd-contract compare expected.yaml actual.yaml --arrays all --ignore '$.updatedAt'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.CompareOptions()
			if cmd.Flags().Changed("arrays") {
				mode, err := compare.ParseArrayMode(arrays)
				if err != nil {
					return err
				}
				opts.ArrayMode = mode
			}
			opts.IgnorePaths = append(opts.IgnorePaths, ignore...)
			opts.Logger = logging.Component(a.log, "compare")

			cmp, err := compare.New(opts)
			if err != nil {
				return err
			}
			expected, err := readResponse(args[0])
			if err != nil {
				return err
			}
			actual, err := readResponse(args[1])
			if err != nil {
				return err
			}

			outcome := cmp.ValidateResponse(expected, actual)
			out := cmd.OutOrStdout()
			a.printResult(out, outcome, func() {
				if outcome.Success {
					fmt.Fprintln(out, "Responses match.")
					return
				}
				fmt.Fprintf(out, "Mismatch: %s\n", outcome.Error)
				if d := outcome.Details; d != nil {
					fmt.Fprintf(out, "  type:     %s\n", d.Type)
					if d.Field != "" {
						fmt.Fprintf(out, "  field:    %s\n", d.Field)
					}
					fmt.Fprintf(out, "  expected: %v\n  actual:   %v\n", d.Expected, d.Actual)
				}
			})
			if !outcome.Success {
				return ErrResponseMismatch
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&arrays, "arrays", "first", "Array comparison: first or all")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "JSONPath expressions to ignore")
	return cmd
}

func readResponse(path string) (*contract.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp contract.Response
	if err := yaml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &resp, nil
}
