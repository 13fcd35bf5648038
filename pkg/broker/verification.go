package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// SubmitResult is the broker's acknowledgement of a verification submission.
type SubmitResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FetchVerificationTasks returns the open tasks for provider, optionally
// restricted to one environment.
func (c *Client) FetchVerificationTasks(ctx context.Context, provider, environment string) ([]contract.VerificationTask, error) {
	if provider == "" {
		return nil, fmt.Errorf("fetch verification tasks: provider is required")
	}
	v := url.Values{}
	v.Set("provider", provider)
	if environment != "" {
		v.Set("environment", environment)
	}

	var out struct {
		Tasks []contract.VerificationTask `json:"tasks"`
	}
	if _, _, err := c.do(ctx, http.MethodGet, "/verification-tasks", v, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch verification tasks: %w", err)
	}
	return out.Tasks, nil
}

// SubmitVerificationResults posts the results of one task.
func (c *Client) SubmitVerificationResults(ctx context.Context, sub *contract.VerificationSubmission) (*SubmitResult, error) {
	if sub == nil || sub.TaskID == "" {
		return nil, fmt.Errorf("submit verification results: task id is required")
	}
	var out SubmitResult
	if _, _, err := c.do(ctx, http.MethodPost, "/verification-results", nil, sub, &out); err != nil {
		return nil, fmt.Errorf("submit verification results for task %s: %w", sub.TaskID, err)
	}
	c.logger.Info("verification results submitted",
		"task", sub.TaskID,
		"consumer", sub.Consumer,
		"results", len(sub.Results),
		"passed", sub.Passed())
	return &out, nil
}
