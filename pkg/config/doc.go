// Package config loads mockd-contract settings.
//
// Settings come from, in increasing precedence: built-in defaults, the
// project file (.mockd-contract.yaml), and MOCKD_CONTRACT_* environment
// variables. Nested keys use a double underscore in the environment:
//
//	MOCKD_CONTRACT_BROKER__URL=https://broker.example.com
//	MOCKD_CONTRACT_MOCK__STRICT=true
//
// The project file doubles as the identity source read by package identity,
// so its top-level name and version keys describe the project itself.
package config
