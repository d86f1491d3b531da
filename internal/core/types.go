// Package core provides the CSV editing logic: parsing, row mutation and
// serialization. This package has no UI dependencies and can be used by any frontend.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Record is one data row, keyed by column name.
//
// A header missing from Fields is undefined: the source line had fewer
// fields than headers, or the row was added without that column.
type Record struct {
	ID     uuid.UUID         `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Value returns the value stored for header and whether it is defined.
func (r Record) Value(header string) (string, bool) {
	v, ok := r.Fields[header]
	return v, ok
}

// Get returns the value for header, or "" if it is undefined.
func (r Record) Get(header string) string {
	return r.Fields[header]
}

// clone returns a copy of r that shares no map with it.
func (r Record) clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields}
}

// Draft is a transient edit/add buffer not yet committed to a Document.
type Draft map[string]string

// Document is the full editing state for one loaded file.
//
// Headers and Rows are created together by Parse and replaced wholesale when
// a new file is loaded. EditingID is uuid.Nil when no row is under edit.
type Document struct {
	Name      string    `json:"name"`
	Headers   []string  `json:"headers"`
	Rows      []Record  `json:"rows"`
	EditingID uuid.UUID `json:"editingId"`
}

// Session ties a Document to a browser session.
type Session struct {
	ID        string    `json:"id"`
	Document  *Document `json:"document"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ColumnSummary describes the values held by one column.
type ColumnSummary struct {
	Column  string   `json:"column"`
	Filled  int      `json:"filled"`
	Empty   int      `json:"empty"`
	Numeric int      `json:"numeric"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Mean    *float64 `json:"mean,omitempty"`
	Median  *float64 `json:"median,omitempty"`
}
