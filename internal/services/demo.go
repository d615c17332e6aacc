package services

import (
	"time"

	"mediscan-back/internal/models"
)

// Demo records returned when every resolution step misses. They are not
// written back to the cache, so each total miss regenerates them; the Demo
// flag marks them as synthesized so callers and tests can tell.

func demoPatients() []models.Patient {
	return []models.Patient{
		{
			ID: "1", Name: "John Doe", Email: "john.doe@example.com",
			Age: 45, Gender: "male", Phone: "+1-555-0123",
			Address:   "123 Main St, New York, NY 10001",
			LastVisit: time.Date(2024, 1, 20, 9, 15, 0, 0, time.UTC),
			TotalScans: 5, RiskLevel: models.RiskMedium,
			Conditions: []string{"Hypertension"},
			DetailCID:  "QmPatient1Hash", Demo: true,
		},
		{
			ID: "2", Name: "Sarah Johnson", Email: "sarah.johnson@example.com",
			Age: 32, Gender: "female", Phone: "+1-555-0125",
			Address:   "456 Oak Ave, Los Angeles, CA 90210",
			LastVisit: time.Date(2024, 2, 15, 11, 0, 0, 0, time.UTC),
			TotalScans: 3, RiskLevel: models.RiskLow,
			Conditions: []string{},
			DetailCID:  "QmPatient2Hash", Demo: true,
		},
		{
			ID: "3", Name: "Michael Chen", Email: "michael.chen@example.com",
			Age: 58, Gender: "male", Phone: "+1-555-0127",
			Address:   "789 Pine St, Chicago, IL 60601",
			LastVisit: time.Date(2024, 2, 10, 14, 30, 0, 0, time.UTC),
			TotalScans: 8, RiskLevel: models.RiskHigh,
			Conditions: []string{"Diabetes", "Hypertension"},
			DetailCID:  "QmPatient3Hash", Demo: true,
		},
		{
			ID: "4", Name: "Emily Davis", Email: "emily.davis@example.com",
			Age: 28, Gender: "female", Phone: "+1-555-0128",
			Address:   "321 Elm St, Miami, FL 33101",
			LastVisit: time.Date(2024, 1, 25, 16, 45, 0, 0, time.UTC),
			TotalScans: 2, RiskLevel: models.RiskLow,
			Conditions: []string{},
			DetailCID:  "QmPatient4Hash", Demo: true,
		},
	}
}

func demoReports() []models.Report {
	return []models.Report{
		{
			ID: "1", PatientID: "1", PatientName: "John Doe",
			ScanID: "scan1", ScanType: "Brain MRI",
			Date:   time.Date(2024, 2, 20, 10, 30, 0, 0, time.UTC),
			Doctor: "Dr. Smith", Status: models.ReportReviewed, RiskLevel: models.RiskLow,
			Findings:        "Normal brain structure observed. No abnormalities detected.",
			Recommendations: "Continue regular check-ups.",
			PDFCID:          "QmReport1PDFHash", MetadataCID: "QmReport1MetadataHash", Demo: true,
		},
		{
			ID: "2", PatientID: "2", PatientName: "Sarah Johnson",
			ScanID: "scan2", ScanType: "Lung CT",
			Date:   time.Date(2024, 2, 19, 14, 45, 0, 0, time.UTC),
			Doctor: "Dr. Johnson", Status: models.ReportPending, RiskLevel: models.RiskMedium,
			Findings:        "Small nodule detected in upper right lobe. Requires follow-up.",
			Recommendations: "Follow-up CT scan in 3 months. Consider consultation with pulmonologist.",
			PDFCID:          "QmReport2PDFHash", MetadataCID: "QmReport2MetadataHash", Demo: true,
		},
		{
			ID: "3", PatientID: "3", PatientName: "Michael Chen",
			ScanID: "scan3", ScanType: "Cardiac CT",
			Date:   time.Date(2024, 2, 18, 9, 15, 0, 0, time.UTC),
			Doctor: "Dr. Chen", Status: models.ReportShared, RiskLevel: models.RiskHigh,
			Findings:        "Mild coronary artery calcification observed.",
			Recommendations: "Lifestyle modifications and statin therapy.",
			PDFCID:          "QmReport3PDFHash", MetadataCID: "QmReport3MetadataHash", Demo: true,
		},
	}
}
