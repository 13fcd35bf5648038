// Package specstore serves specs from a local directory laid out as
//
//	<root>/<service>/<version>.<ext>
//
// where ext is yaml, yml, json, graphql, gql or proto. It answers the same
// lookups as the broker client so a consumer can run without a broker.
package specstore
