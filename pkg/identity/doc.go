// Package identity works out who is recording or verifying: the participant
// name and version, the git commit, and whether the run is in CI.
//
// Values are taken from explicit options first, then the environment, then
// project metadata found by walking up from the working directory:
// .mockd-contract.yaml (name, version), a VERSION file, and the go.mod
// module path. The commit comes from the enclosing git repository.
//
// An identity without both name and version is unresolved. Callers treat an
// unresolved identity as a signal to skip recording and verification rather
// than publish placeholder data.
package identity
