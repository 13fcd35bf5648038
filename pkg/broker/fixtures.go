package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// FixtureQuery selects fixtures for a service version.
type FixtureQuery struct {
	Service string
	Version string
	// Status defaults to approved.
	Status contract.FixtureStatus
}

// FetchFixtures returns the fixtures matching q. An empty list is valid.
func (c *Client) FetchFixtures(ctx context.Context, q FixtureQuery) ([]contract.Fixture, error) {
	if q.Service == "" {
		return nil, fmt.Errorf("fetch fixtures: service is required")
	}
	if q.Status == "" {
		q.Status = contract.FixtureStatusApproved
	}
	v := url.Values{}
	v.Set("service", q.Service)
	if q.Version != "" {
		v.Set("version", q.Version)
	}
	v.Set("status", string(q.Status))

	var out struct {
		Fixtures []contract.Fixture `json:"fixtures"`
	}
	if _, _, err := c.do(ctx, http.MethodGet, "/fixtures", v, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	return out.Fixtures, nil
}

// UploadFixtures proposes a batch of fixtures. The broker deduplicates and
// reports how many were created.
func (c *Client) UploadFixtures(ctx context.Context, fixtures []contract.Fixture) (*contract.FixtureUploadResult, error) {
	if len(fixtures) == 0 {
		return &contract.FixtureUploadResult{}, nil
	}
	in := struct {
		Fixtures []contract.Fixture `json:"fixtures"`
	}{fixtures}

	var out contract.FixtureUploadResult
	if _, _, err := c.do(ctx, http.MethodPost, "/fixtures/batch", nil, in, &out); err != nil {
		return nil, fmt.Errorf("upload fixtures: %w", err)
	}
	c.logger.Info("fixtures uploaded", "sent", len(fixtures), "created", out.Created, "duplicates", out.Duplicates)
	return &out, nil
}

// UploadInteractions sends a batch of recorded interactions.
func (c *Client) UploadInteractions(ctx context.Context, interactions []contract.ClientInteraction) (*contract.InteractionUploadResult, error) {
	if len(interactions) == 0 {
		return &contract.InteractionUploadResult{}, nil
	}
	in := struct {
		Interactions []contract.ClientInteraction `json:"interactions"`
	}{interactions}

	var out contract.InteractionUploadResult
	if _, _, err := c.do(ctx, http.MethodPost, "/interactions/batch", nil, in, &out); err != nil {
		return nil, fmt.Errorf("upload interactions: %w", err)
	}
	c.logger.Info("interactions uploaded", "sent", len(interactions), "recorded", out.Recorded, "duplicates", out.Duplicates)
	return &out, nil
}
