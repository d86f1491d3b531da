package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// Summarize describes each column of the document in header order.
// Cells that parse as a finite float count as numeric and feed
// min/max/mean/median. "NaN" and "Inf" cells are filled but not numeric.
func Summarize(d *Document) []ColumnSummary {
	summaries := make([]ColumnSummary, len(d.Headers))
	for i, h := range d.Headers {
		summaries[i] = summarizeColumn(h, d.Rows)
	}
	return summaries
}

func summarizeColumn(header string, rows []Record) ColumnSummary {
	s := ColumnSummary{Column: header}

	var numbers stats.Float64Data
	for _, row := range rows {
		v := strings.TrimSpace(row.Get(header))
		if v == "" {
			s.Empty++
			continue
		}
		s.Filled++
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			numbers = append(numbers, f)
		}
	}

	s.Numeric = len(numbers)
	if len(numbers) == 0 {
		return s
	}

	s.Min = statOrNil(stats.Min(numbers))
	s.Max = statOrNil(stats.Max(numbers))
	s.Mean = statOrNil(stats.Mean(numbers))
	s.Median = statOrNil(stats.Median(numbers))
	return s
}

func statOrNil(v float64, err error) *float64 {
	if err != nil {
		return nil
	}
	return &v
}
