package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// SpecQuery selects a spec by service and version.
type SpecQuery struct {
	Service     string
	Version     string
	Environment string
	Branch      string
}

func (q SpecQuery) values() url.Values {
	v := url.Values{}
	if q.Version != "" {
		v.Set("version", q.Version)
	}
	if q.Environment != "" {
		v.Set("environment", q.Environment)
	}
	if q.Branch != "" {
		v.Set("branch", q.Branch)
	}
	return v
}

// FetchSpec returns the spec registered for q.Service at exactly q.Version.
// A 404 is returned as *SpecNotFoundError.
func (c *Client) FetchSpec(ctx context.Context, q SpecQuery) (*contract.Spec, error) {
	if q.Service == "" {
		return nil, fmt.Errorf("fetch spec: service is required")
	}
	return c.fetchSpec(ctx, "spec", "/specs/"+url.PathEscape(q.Service), q)
}

// FetchSpecForDeployment returns the spec deployed for q.Service in
// q.Environment. An empty version or LatestVersion asks the broker for the
// newest deployment; when none exists the error matches ErrVersionUnresolvable.
func (c *Client) FetchSpecForDeployment(ctx context.Context, q SpecQuery) (*contract.Spec, error) {
	if q.Service == "" {
		return nil, fmt.Errorf("fetch deployed spec: service is required")
	}
	if q.Version == "" {
		q.Version = LatestVersion
	}
	return c.fetchSpec(ctx, "deployed", "/specs/"+url.PathEscape(q.Service)+"/deployed", q)
}

func (c *Client) fetchSpec(ctx context.Context, kind, path string, q SpecQuery) (*contract.Spec, error) {
	key := kind + "|" + q.Service + "|" + q.Version + "|" + q.Environment + "|" + q.Branch
	if c.specs != nil {
		if spec, ok := c.specs.Get(key); ok {
			c.logger.Debug("spec cache hit", "service", q.Service, "version", q.Version)
			return spec, nil
		}
	}

	var spec contract.Spec
	_, body, err := c.do(ctx, http.MethodGet, path, q.values(), nil, &spec)
	if err != nil {
		return nil, notFound(err, body, q.Service, q.Version, q.Environment)
	}
	if spec.Service == "" {
		spec.Service = q.Service
	}
	if spec.Content == "" {
		return nil, fmt.Errorf("broker returned an empty spec for %s@%s", q.Service, spec.Version)
	}

	if c.specs != nil {
		c.specs.Add(key, &spec)
	}
	return &spec, nil
}
