// Package aggregates holds the storage-side building blocks services compose
// into atomic writes: transaction runners, sibling-scope locks, the two-phase
// sort_order renumbering, and translation of driver errors into domain codes.
package aggregates
