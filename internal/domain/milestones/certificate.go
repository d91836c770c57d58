package milestones

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"milestonenotifier/internal/domain/notes"
)

// RenderCertificate writes a one page A4 PDF celebrating a milestone note.
func RenderCertificate(w io.Writer, note notes.Note) error {
	content, err := ContentOf(note)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(note.Title), false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.Ln(40)
	pdf.CellFormat(0, 14, tr(note.Title), "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 13)
	pdf.MultiCell(0, 8, tr(note.Content), "", "C", false)
	pdf.Ln(12)
	if content.Milestone > 0 {
		pdf.CellFormat(0, 8, fmt.Sprintf("Milestone: %d customers", content.Milestone), "", 1, "C", false, 0, "")
	}
	if date := content.ReachedOn(); date != "" {
		pdf.CellFormat(0, 8, "Reached on "+date, "", 1, "C", false, 0, "")
	}
	pdf.Ln(20)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, tr(note.Source), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render certificate for note %s: %w", note.ID, err)
	}
	return nil
}
