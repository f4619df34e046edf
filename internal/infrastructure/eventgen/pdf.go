package eventgen

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
)

const (
	pdfSummaryLimit = 650
	pdfLinkLimit    = 70
	pdfBottomMargin = 70.0
	pdfSideMargin   = 40.0
)

// RenderPDF lays out a digest as a one-page flyer and returns the PDF
// bytes. Events that do not fit above the bottom margin are dropped.
func RenderPDF(response *events.EventsResponse) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pdfSideMargin

	// Aliceblue page background.
	pdf.SetFillColor(240, 248, 255)
	pdf.Rect(0, 0, pageWidth, pageHeight, "F")

	// Red banner with the flyer title.
	pdf.SetFillColor(200, 30, 45)
	pdf.Rect(0, 0, pageWidth, 50, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(0, 17)
	pdf.CellFormat(pageWidth, 16, "Upcoming Local Events", "", 0, "C", false, 0, "")

	summary := response.Summary
	if len(summary) > pdfSummaryLimit {
		summary = summary[:pdfSummaryLimit] + "..."
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(pdfSideMargin, 65)
	pdf.MultiCell(contentWidth, 14, summary, "", "L", false)
	pdf.SetY(pdf.GetY() + 12)

	for _, event := range response.Events {
		if pdf.GetY() > pageHeight-pdfBottomMargin {
			break
		}

		pdf.SetX(pdfSideMargin)
		pdf.SetTextColor(200, 30, 45)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(contentWidth, 16, event.TruncatedTitle(), "", "L", false)

		pdf.SetX(pdfSideMargin)
		pdf.SetTextColor(0, 128, 0)
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(contentWidth, 14, "Date: "+event.Date, "", "L", false)

		pdf.SetX(pdfSideMargin)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(contentWidth, 13, event.Description, "", "L", false)

		if event.Link != nil && *event.Link != "" {
			label := *event.Link
			if len(label) > pdfLinkLimit {
				label = label[:pdfLinkLimit] + "..."
			}
			pdf.SetX(pdfSideMargin)
			pdf.SetTextColor(30, 60, 200)
			pdf.SetFont("Helvetica", "I", 10)
			pdf.WriteLinkString(12, "Link: "+label, *event.Link)
			pdf.Ln(14)
		}

		// Gold separator between events.
		y := pdf.GetY() + 6
		pdf.SetDrawColor(255, 215, 0)
		pdf.SetLineWidth(1)
		pdf.Line(pdfSideMargin, y, pageWidth-pdfSideMargin, y)
		pdf.SetY(y + 10)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render events PDF: %w", err)
	}
	return buf.Bytes(), nil
}
