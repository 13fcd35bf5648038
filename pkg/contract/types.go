package contract

import (
	"time"
)

// SpecType identifies the protocol family of an API description.
type SpecType string

// Supported spec types.
const (
	SpecTypeOpenAPI  SpecType = "openapi"
	SpecTypeGraphQL  SpecType = "graphql"
	SpecTypeAsyncAPI SpecType = "asyncapi"
	SpecTypeGRPC     SpecType = "grpc"
)

// Valid reports whether t is a known spec type.
func (t SpecType) Valid() bool {
	switch t {
	case SpecTypeOpenAPI, SpecTypeGraphQL, SpecTypeAsyncAPI, SpecTypeGRPC:
		return true
	}
	return false
}

// Spec is an uploaded API description keyed by service, version, branch and environment.
type Spec struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Service     string   `json:"service" yaml:"service"`
	Version     string   `json:"version" yaml:"version"`
	Branch      string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	Environment string   `json:"environment,omitempty" yaml:"environment,omitempty"`
	Type        SpecType `json:"specType" yaml:"specType"`
	Content     string   `json:"content" yaml:"content"`
}

// Request is a normalized request as seen by the mock or replayed against a provider.
type Request struct {
	Method  string            `json:"method" yaml:"method"`
	Path    string            `json:"path" yaml:"path"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	Body    any               `json:"body,omitempty" yaml:"body,omitempty"`
}

// Header returns the value of the named header using case-insensitive lookup.
func (r *Request) Header(name string) string {
	return lookupHeader(r.Headers, name)
}

// Response is a normalized response.
type Response struct {
	Status  int               `json:"status" yaml:"status"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    any               `json:"body,omitempty" yaml:"body,omitempty"`
}

// Header returns the value of the named header using case-insensitive lookup.
func (r *Response) Header(name string) string {
	return lookupHeader(r.Headers, name)
}

// Operation is one addressable unit of an API: a method+path pair, a GraphQL
// root field, or an AsyncAPI channel action.
type Operation struct {
	ID      string `json:"id"`
	Method  string `json:"method,omitempty"`
	Path    string `json:"path,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Operation kinds.
const (
	KindHTTP         = "http"
	KindQuery        = "query"
	KindMutation     = "mutation"
	KindSubscription = "subscription"
	KindPublish      = "publish"
	KindSubscribe    = "subscribe"

	KindUnary           = "unary"
	KindServerStreaming = "server_streaming"
	KindClientStreaming = "client_streaming"
	KindBidirectional   = "bidirectional"
)

// FixtureStatus is the approval state of a fixture.
type FixtureStatus string

// Fixture statuses.
const (
	FixtureStatusApproved FixtureStatus = "approved"
	FixtureStatusPending  FixtureStatus = "pending"
	FixtureStatusRejected FixtureStatus = "rejected"
)

// FixtureSource records who produced a fixture.
type FixtureSource string

// Fixture sources.
const (
	FixtureSourceConsumer FixtureSource = "consumer"
	FixtureSourceProvider FixtureSource = "provider"
	FixtureSourceManual   FixtureSource = "manual"
)

// FixtureData is the example interaction carried by a fixture.
type FixtureData struct {
	Request  *Request  `json:"request,omitempty" yaml:"request,omitempty"`
	Response *Response `json:"response" yaml:"response"`
}

// Provenance describes how a fixture was created.
type Provenance struct {
	Type      string `json:"type" yaml:"type"` // manual | test_output
	Generator string `json:"generator,omitempty" yaml:"generator,omitempty"`
	RunID     string `json:"runId,omitempty" yaml:"runId,omitempty"`
}

// Provenance types.
const (
	ProvenanceManual     = "manual"
	ProvenanceTestOutput = "test_output"
)

// Fixture is a recorded or authored example for one operation of a service.
type Fixture struct {
	ID              string        `json:"id,omitempty" yaml:"id,omitempty"`
	Service         string        `json:"service" yaml:"service"`
	ServiceVersion  string        `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	ServiceVersions []string      `json:"serviceVersions,omitempty" yaml:"serviceVersions,omitempty"`
	Operation       string        `json:"operation" yaml:"operation"`
	Status          FixtureStatus `json:"status" yaml:"status"`
	Source          FixtureSource `json:"source" yaml:"source"`
	Priority        int           `json:"priority" yaml:"priority"`
	Data            FixtureData   `json:"data" yaml:"data"`
	CreatedFrom     Provenance    `json:"createdFrom" yaml:"createdFrom"`
	CreatedAt       time.Time     `json:"createdAt" yaml:"createdAt"`
	Notes           string        `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ClientInfo describes the library that recorded an interaction.
type ClientInfo struct {
	Library  string `json:"library"`
	Version  string `json:"version"`
	Platform string `json:"platform,omitempty"`
}

// ClientInteraction is one observed request/response pair plus identity.
type ClientInteraction struct {
	ID              string        `json:"id"`
	Service         string        `json:"service"`
	Consumer        string        `json:"consumer"`
	ConsumerVersion string        `json:"consumerVersion"`
	ProviderVersion string        `json:"providerVersion,omitempty"`
	Environment     string        `json:"environment,omitempty"`
	Operation       string        `json:"operation"`
	Request         Request       `json:"request"`
	Response        Response      `json:"response"`
	Timestamp       time.Time     `json:"timestamp"`
	Duration        time.Duration `json:"duration"`
	ClientInfo      ClientInfo    `json:"clientInfo"`
	ConsumerGitSHA  string        `json:"consumerGitSha,omitempty"`
	Hash            string        `json:"hash"`
}

// VerificationTask groups interactions recorded by one consumer+version
// against one provider.
type VerificationTask struct {
	ID              string              `json:"id"`
	Provider        string              `json:"provider"`
	ProviderVersion string              `json:"providerVersion,omitempty"`
	Consumer        string              `json:"consumer"`
	ConsumerVersion string              `json:"consumerVersion"`
	ConsumerGitSHA  string              `json:"consumerGitSha,omitempty"`
	Environment     string              `json:"environment,omitempty"`
	SpecType        SpecType            `json:"specType,omitempty"`
	Interactions    []ClientInteraction `json:"interactions"`
}

// ErrorType classifies a verification failure.
type ErrorType string

// Verification error types.
const (
	ErrorStatusMismatch    ErrorType = "status_mismatch"
	ErrorStructureMismatch ErrorType = "structure_mismatch"
	ErrorContentMismatch   ErrorType = "content_mismatch"
)

// ErrorDetails carries the structured diagnosis of a failed comparison.
type ErrorDetails struct {
	Type     ErrorType `json:"type"`
	Field    string    `json:"field,omitempty"`
	Expected any       `json:"expected,omitempty"`
	Actual   any       `json:"actual,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// VerificationResult is the outcome for one interaction.
type VerificationResult struct {
	InteractionID  string        `json:"interactionId"`
	Operation      string        `json:"operation,omitempty"`
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	ErrorDetails   *ErrorDetails `json:"errorDetails,omitempty"`
	ActualResponse *Response     `json:"actualResponse,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
}

// VersionCandidate is a version entry considered by the version resolver.
type VersionCandidate struct {
	ID       string            `json:"id"`
	Version  string            `json:"version"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FixtureUploadResult is the broker's answer to a fixture batch upload.
type FixtureUploadResult struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
}

// InteractionUploadResult is the broker's answer to an interaction batch upload.
type InteractionUploadResult struct {
	Recorded   int `json:"recorded"`
	Duplicates int `json:"duplicates"`
}

// VerificationSubmission carries the results for one task back to the broker.
// Results holds exactly one entry per task interaction, in task order.
type VerificationSubmission struct {
	TaskID          string               `json:"taskId"`
	Provider        string               `json:"provider"`
	ProviderVersion string               `json:"providerVersion"`
	ProviderGitSHA  string               `json:"providerGitSha,omitempty"`
	Consumer        string               `json:"consumer"`
	ConsumerVersion string               `json:"consumerVersion"`
	ConsumerGitSHA  string               `json:"consumerGitSha,omitempty"`
	Environment     string               `json:"environment,omitempty"`
	SpecType        SpecType             `json:"specType,omitempty"`
	Results         []VerificationResult `json:"results"`
}

// Passed reports whether every result in the submission succeeded.
func (s *VerificationSubmission) Passed() bool {
	for _, r := range s.Results {
		if !r.Success {
			return false
		}
	}
	return true
}
