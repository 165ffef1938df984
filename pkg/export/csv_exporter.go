package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Row is one scored line of a progress report: a graded assignment or an
// attempted quiz.
type Row struct {
	Kind  string
	Title string
	Score string
}

// Dataset is the tabular form of a progress report.
type Dataset struct {
	Rows []Row
}

var columns = []string{"Kind", "Title", "Score"}

// CSVExporter renders progress report rows into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write([]string{row.Kind, row.Title, row.Score}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
