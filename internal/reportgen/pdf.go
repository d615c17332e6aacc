package reportgen

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"mediscan-back/internal/models"
)

// RenderPDF lays out the report as a single fixed-format page: centered
// header, patient block, scan block with color-coded risk, findings,
// recommendations, footer and a page border.
func RenderPDF(report *models.Report) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	pageWidth, pageHeight := doc.GetPageSize()

	// Header
	doc.SetFont("Helvetica", "B", 20)
	doc.SetTextColor(0, 150, 200)
	doc.SetXY(0, 22)
	doc.CellFormat(pageWidth, 10, "MediScan AI - Medical Report", "", 1, "C", false, 0, "")

	// Patient information
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 14)
	doc.SetXY(20, 45)
	doc.Cell(0, 8, "Patient Information")

	doc.SetFont("Helvetica", "", 12)
	doc.SetXY(20, 56)
	doc.Cell(0, 6, fmt.Sprintf("Patient Name: %s", report.PatientName))
	doc.SetXY(20, 63)
	doc.Cell(0, 6, fmt.Sprintf("Patient ID: %s", report.PatientID))
	doc.SetXY(20, 70)
	doc.Cell(0, 6, fmt.Sprintf("Report Date: %s", report.Date.Format("2006-01-02")))
	doc.SetXY(20, 77)
	doc.Cell(0, 6, fmt.Sprintf("Doctor: %s", report.Doctor))

	// Scan information
	doc.SetFont("Helvetica", "B", 14)
	doc.SetXY(20, 92)
	doc.Cell(0, 8, "Scan Information")

	doc.SetFont("Helvetica", "", 12)
	doc.SetXY(20, 103)
	doc.Cell(0, 6, fmt.Sprintf("Scan Type: %s Scan", report.ScanType))
	doc.SetXY(20, 110)
	doc.Cell(0, 6, fmt.Sprintf("Risk Level: %s", strings.ToUpper(string(report.RiskLevel))))
	doc.SetXY(20, 117)
	doc.Cell(0, 6, fmt.Sprintf("Status: %s", report.Status))

	r, g, b := riskColor(report.RiskLevel)
	doc.SetTextColor(r, g, b)
	doc.SetXY(120, 110)
	doc.Cell(0, 6, fmt.Sprintf("%s RISK", strings.ToUpper(string(report.RiskLevel))))
	doc.SetTextColor(0, 0, 0)

	// Findings
	doc.SetFont("Helvetica", "B", 14)
	doc.SetXY(20, 132)
	doc.Cell(0, 8, "Findings")

	doc.SetFont("Helvetica", "", 11)
	doc.SetXY(20, 142)
	doc.MultiCell(pageWidth-40, 5, report.Findings, "", "L", false)

	// Recommendations
	y := doc.GetY() + 10
	doc.SetFont("Helvetica", "B", 14)
	doc.SetXY(20, y)
	doc.Cell(0, 8, "Recommendations")

	doc.SetFont("Helvetica", "", 11)
	doc.SetXY(20, y+10)
	doc.MultiCell(pageWidth-40, 5, report.Recommendations, "", "L", false)

	// Footer
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(128, 128, 128)
	doc.SetXY(0, pageHeight-30)
	doc.CellFormat(pageWidth, 5, "This report was generated by MediScan AI - www.mediscan.ai", "", 1, "C", false, 0, "")
	doc.CellFormat(pageWidth, 5, fmt.Sprintf("Generated on: %s", time.Now().Format("2006-01-02 15:04:05")), "", 1, "C", false, 0, "")

	// Page border
	doc.SetDrawColor(200, 200, 200)
	doc.Rect(10, 10, pageWidth-20, pageHeight-20, "D")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func riskColor(level models.RiskLevel) (int, int, int) {
	switch level {
	case models.RiskHigh:
		return 255, 0, 0
	case models.RiskMedium:
		return 255, 165, 0
	default:
		return 0, 128, 0
	}
}
