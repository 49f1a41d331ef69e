package models

import "strings"

// RawRow is one header-keyed record of a tabular export. Headers keep their
// source order so last-resort scans are deterministic.
type RawRow struct {
	Number  int // 1-based data row number, for logging
	Headers []string
	Values  map[string]string
}

// NewRawRow pairs a header slice with one record. Missing trailing cells read as "".
func NewRawRow(number int, headers, record []string) RawRow {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			values[h] = record[i]
		} else {
			values[h] = ""
		}
	}
	return RawRow{Number: number, Headers: headers, Values: values}
}

// Has reports whether the column exists in the source header.
func (r RawRow) Has(column string) bool {
	_, ok := r.Values[column]
	return ok
}

// Value returns the trimmed cell for one column.
func (r RawRow) Value(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Get returns the first non-blank cell among the given column aliases.
func (r RawRow) Get(columns ...string) string {
	for _, c := range columns {
		if v := r.Value(c); v != "" {
			return v
		}
	}
	return ""
}

// IsBlank reports whether every cell in the row is empty.
func (r RawRow) IsBlank() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
