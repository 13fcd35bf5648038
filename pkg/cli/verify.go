package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd-contract/pkg/cli/internal/output"
	"github.com/getmockd/mockd-contract/pkg/identity"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/verify"
)

// ErrVerificationFailed is returned when any replayed interaction failed.
var ErrVerificationFailed = errors.New("verification failed")

type verifyFlags struct {
	baseURL     string
	provider    string
	version     string
	gitSHA      string
	environment string
}

func newVerifyCmd(a *app) *cobra.Command {
	f := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a running provider against recorded consumer interactions",
		Long: `Fetch open verification tasks for this provider from the broker, replay each
recorded interaction against --base-url, compare the responses and submit the
results. The provider name and version default to the resolved project
identity.

Exits non-zero when any interaction fails.`,
		Example: `  mockd-contract verify --base-url http://localhost:8080
  mockd-contract verify --base-url http://localhost:8080 --provider orders --provider-version 1.2.0 --env staging`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runVerify(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.baseURL, "base-url", "", "Provider base URL")
	fl.StringVar(&f.provider, "provider", "", "Provider name")
	fl.StringVar(&f.version, "provider-version", "", "Provider version")
	fl.StringVar(&f.gitSHA, "git-sha", "", "Provider git SHA")
	fl.StringVar(&f.environment, "env", "", "Environment")
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, f *verifyFlags) error {
	client := a.brokerClient()
	if client == nil {
		return errors.New("verify needs a broker: set broker.url")
	}
	baseURL := firstNonEmpty(f.baseURL, a.cfg.Verify.BaseURL)
	if baseURL == "" {
		return errors.New("--base-url is required")
	}

	idOpts := a.cfg.IdentityOptions()
	idOpts.Name = firstNonEmpty(f.provider, idOpts.Name)
	idOpts.Version = firstNonEmpty(f.version, idOpts.Version)
	id := identity.Resolve(idOpts)

	v, err := verify.New(client, verify.Options{
		BaseURL:         baseURL,
		Provider:        id.Name,
		ProviderVersion: id.Version,
		ProviderGitSHA:  firstNonEmpty(f.gitSHA, a.cfg.Verify.GitSHA, id.GitSHA),
		Environment:     a.environment(f.environment),
		Timeout:         a.cfg.Verify.Timeout,
		Compare:         a.cfg.CompareOptions(),
		Logger:          a.log,
		Metrics:         metrics.New(),
	})
	if err != nil {
		return err
	}

	report, err := v.Verify(cmd.Context())
	if report == nil {
		return err
	}

	out := cmd.OutOrStdout()
	a.printResult(out, report, func() { printReport(out, id, report) })
	if err != nil {
		return err
	}

	if report.Skipped {
		output.Warn(cmd.ErrOrStderr(), "provider identity unresolved (%v); nothing was verified", id.Require())
		return nil
	}
	if !report.Passed() {
		return fmt.Errorf("%w: %d of %d interactions failed", ErrVerificationFailed, report.Failed(), len(report.Results))
	}
	return nil
}

func printReport(w io.Writer, id identity.Identity, r *verify.Report) {
	if r.Skipped {
		return
	}
	fmt.Fprintf(w, "Verified %s: %d task(s), %d interaction(s), %d failed\n",
		id.String(), len(r.Tasks), len(r.Results), r.Failed())
	tw := output.Table(w)
	for _, t := range r.Tasks {
		status := "PASS"
		if !t.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s@%s\t%s\t%s\n", t.TaskID, t.Consumer, t.ConsumerVersion, status, t.State)
		for _, res := range t.Results {
			if !res.Success {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t\n", res.InteractionID, res.Operation, res.Error)
			}
		}
	}
	_ = tw.Flush()
}
