package core

import (
	"strings"

	"github.com/google/uuid"
)

// Delimiter separates fields within a line. Quoting is not supported: a
// comma inside a quoted field is still a delimiter.
const Delimiter = ","

// LineSeparator separates the header line and data lines.
const LineSeparator = "\n"

// Parse splits raw text into a header set and records.
//
// The first line is the header line. Every following line becomes one record,
// its fields zipped positionally against the headers: missing trailing fields
// stay undefined and surplus fields are dropped. An empty trailing line still
// yields a record. Parse never fails.
func Parse(text string) *Document {
	lines := strings.Split(text, LineSeparator)
	headers := strings.Split(lines[0], Delimiter)

	rows := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, parseLine(line, headers))
	}

	return &Document{
		Headers: headers,
		Rows:    rows,
	}
}

// parseLine builds a record from one data line.
func parseLine(line string, headers []string) Record {
	values := strings.Split(line, Delimiter)
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		if i >= len(values) {
			// A repeated header past the end of the line is undefined again.
			delete(fields, h)
			continue
		}
		fields[h] = values[i]
	}
	return Record{ID: uuid.New(), Fields: fields}
}
