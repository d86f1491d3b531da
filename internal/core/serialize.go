package core

import "strings"

// ExportFileName is the file name offered for every CSV download.
const ExportFileName = "edited_data.csv"

// ExportContentType is the MIME type of a CSV download.
const ExportContentType = "text/csv;charset=utf-8;"

// Serialize is the inverse of Parse: a header line followed by one line per
// record, each header's value in header order ("" when undefined). Lines are
// joined by "\n" with no trailing newline.
func Serialize(headers []string, rows []Record) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, Delimiter))

	values := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			values[i] = row.Get(h)
		}
		b.WriteString(LineSeparator)
		b.WriteString(strings.Join(values, Delimiter))
	}

	return b.String()
}

// String serializes the document.
func (d *Document) String() string {
	return Serialize(d.Headers, d.Rows)
}
