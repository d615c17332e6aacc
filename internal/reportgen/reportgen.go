// Package reportgen derives human-readable report content from a scan's
// anomaly list and renders the fixed-layout PDF.
package reportgen

import (
	"fmt"
	"strings"

	"mediscan-back/internal/models"
)

// RiskLevel summarizes an anomaly list: high beats medium beats low.
func RiskLevel(anomalies []models.Anomaly) models.RiskLevel {
	level := models.RiskLow
	for _, a := range anomalies {
		switch a.Severity {
		case models.RiskHigh:
			return models.RiskHigh
		case models.RiskMedium:
			level = models.RiskMedium
		}
	}
	return level
}

// Findings produces the templated findings paragraph.
func Findings(scanType models.ScanType, anomalies []models.Anomaly) string {
	if len(anomalies) == 0 {
		return fmt.Sprintf("%s scan shows normal structure with no significant abnormalities detected. All major anatomical features appear within normal limits.", scanType)
	}

	descriptions := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		descriptions = append(descriptions, fmt.Sprintf(
			"%s severity anomaly detected in %s with %.1f%% confidence",
			a.Severity, a.Location, a.Confidence*100,
		))
	}
	return fmt.Sprintf("%s scan reveals the following findings: %s. Further evaluation recommended.",
		scanType, strings.Join(descriptions, ". "))
}

// Recommendations picks one of three fixed paragraphs using the same
// tie-break order as RiskLevel.
func Recommendations(anomalies []models.Anomaly) string {
	if len(anomalies) == 0 {
		return "Continue with routine follow-up examinations as clinically indicated. Maintain current health regimen."
	}
	switch RiskLevel(anomalies) {
	case models.RiskHigh:
		return "Immediate consultation with specialist recommended. Consider additional diagnostic imaging and clinical correlation. Follow-up within 1-2 weeks."
	case models.RiskMedium:
		return "Follow-up imaging in 3-6 months recommended. Clinical correlation advised. Monitor for symptom progression."
	default:
		return "Routine follow-up in 6-12 months. Continue current treatment if applicable. Monitor for any symptom changes."
	}
}

// Synthesis is the derived report content for one scan.
type Synthesis struct {
	RiskLevel       models.RiskLevel
	Findings        string
	Recommendations string
}

// Synthesize derives risk, findings and recommendations from a scan.
func Synthesize(scan *models.Scan) Synthesis {
	return Synthesis{
		RiskLevel:       RiskLevel(scan.Anomalies),
		Findings:        Findings(scan.Type, scan.Anomalies),
		Recommendations: Recommendations(scan.Anomalies),
	}
}
