package spec

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getmockd/mockd-contract/pkg/asyncapi"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/graphql"
	"github.com/getmockd/mockd-contract/pkg/grpc"
	"github.com/getmockd/mockd-contract/pkg/mock"
	"github.com/getmockd/mockd-contract/pkg/openapi"
)

// ErrUnknownType is returned when the spec type is neither set nor
// recognizable from the content.
var ErrUnknownType = errors.New("unknown spec type")

var (
	openapiKey  = regexp.MustCompile(`(?m)^\s*"?(openapi|swagger)"?\s*:`)
	asyncapiKey = regexp.MustCompile(`(?m)^\s*"?asyncapi"?\s*:`)
	protoSyntax = regexp.MustCompile(`(?m)^\s*(syntax\s*=\s*"proto|service\s+\w+\s*\{)`)
	graphqlType = regexp.MustCompile(`(?m)^\s*(type|schema|extend\s+type|interface|union|input|enum|scalar|directive)\b`)
)

// DetectType guesses the spec type of content. It returns "" when nothing
// matches.
func DetectType(content string) contract.SpecType {
	switch {
	case asyncapiKey.MatchString(content):
		return contract.SpecTypeAsyncAPI
	case openapiKey.MatchString(content):
		return contract.SpecTypeOpenAPI
	case protoSyntax.MatchString(content):
		return contract.SpecTypeGRPC
	case graphqlType.MatchString(content):
		return contract.SpecTypeGraphQL
	}
	return ""
}

// Load builds the document for s.
func Load(ctx context.Context, s *contract.Spec) (mock.Document, error) {
	if s == nil || strings.TrimSpace(s.Content) == "" {
		return nil, fmt.Errorf("load spec: empty content")
	}
	typ := s.Type
	if typ == "" {
		typ = DetectType(s.Content)
	}

	var (
		doc mock.Document
		err error
	)
	switch typ {
	case contract.SpecTypeOpenAPI:
		doc, err = openapi.Load(ctx, []byte(s.Content))
	case contract.SpecTypeGraphQL:
		doc, err = graphql.Load(s.Content)
	case contract.SpecTypeAsyncAPI:
		doc, err = asyncapi.Load([]byte(s.Content))
	case contract.SpecTypeGRPC:
		doc, err = grpc.Load(ctx, s.Content)
	default:
		return nil, fmt.Errorf("load spec %s@%s: %w %q", s.Service, s.Version, ErrUnknownType, typ)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s spec %s@%s: %w", typ, s.Service, s.Version, err)
	}
	return doc, nil
}
