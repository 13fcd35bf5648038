// Package id provides identifier generation for recorded interactions,
// fixture proposals and verification runs.
//
//   - UUID: random v4 identifiers (google/uuid) for fixture proposals and runs
//   - ULID: 26-character, lexicographically time-sortable identifiers used for
//     interaction IDs so a batch upload preserves capture order
//   - Short: 16-character hex identifiers for log correlation
package id
