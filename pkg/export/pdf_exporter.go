package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders progress report rows into a tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and one table row per
// scored item. Scores are right-aligned.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	const kindWidth, titleWidth, scoreWidth = 35.0, 120.0, 35.0

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(kindWidth, 8, "Kind", "1", 0, "C", false, 0, "")
	pdf.CellFormat(titleWidth, 8, "Title", "1", 0, "C", false, 0, "")
	pdf.CellFormat(scoreWidth, 8, "Score", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		pdf.CellFormat(kindWidth, 7, row.Kind, "1", 0, "", false, 0, "")
		pdf.CellFormat(titleWidth, 7, row.Title, "1", 0, "", false, 0, "")
		pdf.CellFormat(scoreWidth, 7, row.Score, "1", 1, "R", false, 0, "")
	}
	if len(data.Rows) == 0 {
		pdf.CellFormat(kindWidth+titleWidth+scoreWidth, 7, "No scored work yet", "1", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
