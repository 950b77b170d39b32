// Package aggregates defines the error taxonomy shared by every layer. Each
// failure carries a Code that handlers map to an HTTP status, plus the
// operation, and for validation failures the offending field and import row.
package aggregates
