package storage

import "errors"

// ErrStoreUnavailable wraps every failure coming out of the record store so
// callers can report a failed search without inspecting driver errors.
var ErrStoreUnavailable = errors.New("record store unavailable")

// FieldContains is a case-insensitive substring test on a single field.
type FieldContains struct {
	Field string
	Value string
}

// Clause matches a record when any of its field tests match.
type Clause []FieldContains

// Predicate matches a record when every clause matches.
type Predicate []Clause

// Contains builds a clause testing one value against several fields.
func Contains(value string, fields ...string) Clause {
	clause := make(Clause, 0, len(fields))
	for _, f := range fields {
		clause = append(clause, FieldContains{Field: f, Value: value})
	}
	return clause
}
