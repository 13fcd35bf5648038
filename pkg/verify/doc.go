// Package verify replays recorded consumer interactions against a running
// provider and reports whether the provider still honours them.
//
// Tasks are fetched from the broker and processed one after another. Within
// a task each interaction runs strictly in order:
//
//  1. the state handler registered for its operation, if any
//  2. the recorded request, replayed against the provider base URL
//  3. a structural comparison of the recorded and live responses
//  4. the cleanup hook, if any, whatever happened before
//
// Failures inside one interaction become a failed result for that
// interaction; they never abort the task. When a task's interactions are
// done its results are submitted immediately, so earlier tasks keep their
// results if a later one fails.
package verify
