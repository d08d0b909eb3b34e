// Package types provides the record types produced by the crawler sources.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strconv"

// Row is a record that can be rendered as one line of a table.
// Columns must return the same list for every value of a given type.
type Row interface {
	Columns() []string
	Values() []string
}

// Batch is the output of one source: the records it produced and how many
// of its tasks failed along the way.
type Batch[T any] struct {
	Records []T
	Failed  int
}

// formatFloat renders an optional number; absent is an empty cell, never 0.
func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
