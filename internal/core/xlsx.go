package core

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXFileName is the file name offered for spreadsheet downloads.
const XLSXFileName = "edited_data.xlsx"

// XLSXContentType is the MIME type of a spreadsheet download.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const xlsxSheet = "Sheet1"

// WriteXLSX writes the document as a single-sheet workbook: headers in row 1,
// then one row per record. Undefined values become empty cells.
func WriteXLSX(d *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(d.Headers))
	for i, h := range d.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for r, row := range d.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("xlsx cell for row %d: %w", r+1, err)
		}
		values := make([]interface{}, len(d.Headers))
		for i, h := range d.Headers {
			values[i] = row.Get(h)
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", r+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
