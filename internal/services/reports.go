package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediscan-back/internal/cache"
	"mediscan-back/internal/models"
	"mediscan-back/internal/reportgen"
	"mediscan-back/internal/resolve"
)

// ReportPatch carries the fields a partial report update may touch.
type ReportPatch struct {
	Doctor          *string              `json:"doctor,omitempty"`
	Status          *models.ReportStatus `json:"status,omitempty"`
	Findings        *string              `json:"findings,omitempty"`
	Recommendations *string              `json:"recommendations,omitempty"`
}

// ReportService is the report record store.
type ReportService struct {
	d Deps
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{d: d}
}

// GetAll resolves the report collection: remote API, pinned collection
// index, local cache, then the fixed demo set.
func (s *ReportService) GetAll(ctx context.Context) []models.Report {
	log := s.d.Log.With().Str("collection", cache.KeyReports).Logger()
	return resolve.First(ctx, log,
		resolve.Step[models.Report]{Name: "remote", Fetch: func(ctx context.Context) ([]models.Report, bool) {
			var reports []models.Report
			if err := s.d.Remote.GetJSON(ctx, "/reports", &reports); err != nil {
				return nil, false
			}
			return reports, true
		}},
		resolve.Step[models.Report]{Name: "cloud", Fetch: func(ctx context.Context) ([]models.Report, bool) {
			return cloudCollection[models.Report](ctx, s.d, cache.KeyReports)
		}},
		resolve.Step[models.Report]{Name: "cache", Fetch: func(ctx context.Context) ([]models.Report, bool) {
			return cachedCollection[models.Report](s.d, cache.KeyReports)
		}},
		resolve.Step[models.Report]{Name: "demo", Fetch: func(ctx context.Context) ([]models.Report, bool) {
			return demoReports(), true
		}},
	)
}

// GetByPatient resolves a patient's reports: nested remote endpoint, then a
// filter over the cached collection. An empty result is normal.
func (s *ReportService) GetByPatient(ctx context.Context, patientID string) []models.Report {
	var reports []models.Report
	if err := s.d.Remote.GetJSON(ctx, "/patients/"+patientID+"/reports", &reports); err == nil {
		return reports
	}

	cached, err := cache.GetCollection[models.Report](s.d.Cache, cache.KeyReports)
	if err != nil {
		s.d.Log.Error().Err(err).Msg("local cache unreadable")
		return []models.Report{}
	}
	matched := []models.Report{}
	for _, r := range cached {
		if r.PatientID == patientID {
			matched = append(matched, r)
		}
	}
	return matched
}

// GetByID resolves one report.
func (s *ReportService) GetByID(ctx context.Context, id string) (*models.Report, error) {
	report := resolve.One(ctx, s.d.Log,
		func(ctx context.Context) (*models.Report, bool) {
			var report models.Report
			if err := s.d.Remote.GetJSON(ctx, "/reports/"+id, &report); err != nil || report.ID == "" {
				return nil, false
			}
			return &report, true
		},
		func(ctx context.Context) (*models.Report, bool) {
			reports, err := cache.GetCollection[models.Report](s.d.Cache, cache.KeyReports)
			if err != nil {
				s.d.Log.Error().Err(err).Msg("local cache unreadable")
				return nil, false
			}
			for i := range reports {
				if reports[i].ID == id {
					return &reports[i], true
				}
			}
			return nil, false
		},
	)
	if report == nil {
		return nil, ErrNotFound
	}
	return report, nil
}

// ReportInput is the caller-supplied portion of a new report. Empty
// findings/recommendations are synthesized from the scan's anomalies.
type ReportInput struct {
	Doctor          string
	PatientName     string
	Findings        string
	Recommendations string
}

// CreateFromScan builds a report for a scan: the PDF and the metadata blob
// are sealed and pinned first (either failure aborts the write), the risk
// level is derived from the scan's anomalies, then the record runs the
// optimistic-remote/unconditional-mirror write path. Nothing prevents
// creating several reports for the same scan.
func (s *ReportService) CreateFromScan(ctx context.Context, scan *models.Scan, input ReportInput, pdf []byte) (*models.Report, error) {
	synthesis := reportgen.Synthesize(scan)
	if input.Findings == "" {
		input.Findings = synthesis.Findings
	}
	if input.Recommendations == "" {
		input.Recommendations = synthesis.Recommendations
	}
	if input.Doctor == "" {
		input.Doctor = "Dr. AI Assistant"
	}

	report := models.Report{
		ID:              "report_" + uuid.New().String(),
		PatientID:       scan.PatientID,
		PatientName:     input.PatientName,
		ScanID:          scan.ID,
		ScanType:        scan.Type.DisplayName(),
		Date:            time.Now().UTC(),
		Doctor:          input.Doctor,
		Status:          models.ReportReviewed,
		RiskLevel:       synthesis.RiskLevel,
		Findings:        input.Findings,
		Recommendations: input.Recommendations,
	}

	if pdf == nil {
		rendered, err := reportgen.RenderPDF(&report)
		if err != nil {
			return nil, err
		}
		pdf = rendered
	}

	pdfName := fmt.Sprintf("report_%s_%d.pdf", scan.ID, time.Now().UnixMilli())
	pdfPin, err := s.d.Pins.PinFile(ctx, pdfName, "application/pdf", pdf, map[string]string{
		"scanId":     scan.ID,
		"patientId":  scan.PatientID,
		"reportType": "diagnostic_report",
		"scanType":   string(scan.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
	}
	report.PDFCID = pdfPin.CID

	metadataPin, err := s.d.Pins.PinJSON(ctx, "report_metadata_"+scan.ID, map[string]any{
		"scanId":          scan.ID,
		"patientId":       scan.PatientID,
		"scanType":        scan.Type,
		"date":            report.Date,
		"anomalies":       scan.Anomalies,
		"findings":        report.Findings,
		"recommendations": report.Recommendations,
		"riskLevel":       report.RiskLevel,
		"doctor":          report.Doctor,
		"pdfCid":          report.PDFCID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
	}
	report.MetadataCID = metadataPin.CID

	var created models.Report
	if err := s.d.Remote.PostJSON(ctx, "/reports", report, &created); err == nil && created.ID != "" {
		report = created
	} else if err != nil {
		s.d.Log.Warn().Err(err).Str("report", report.ID).Msg("remote unavailable, report stored locally only")
	}

	mirror(ctx, s.d, cache.KeyReports, report)
	return &report, nil
}

// Update merges a partial update, optionally replacing the pinned PDF.
func (s *ReportService) Update(ctx context.Context, id string, patch ReportPatch, newPDF []byte) (*models.Report, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	report := *current

	if newPDF != nil {
		pdfName := fmt.Sprintf("report_%s_%d.pdf", report.ScanID, time.Now().UnixMilli())
		pdfPin, err := s.d.Pins.PinFile(ctx, pdfName, "application/pdf", newPDF, map[string]string{
			"reportId":   id,
			"scanId":     report.ScanID,
			"patientId":  report.PatientID,
			"reportType": "updated_diagnostic_report",
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
		}
		report.PDFCID = pdfPin.CID
	}

	report.Doctor = strOr(patch.Doctor, report.Doctor)
	report.Findings = strOr(patch.Findings, report.Findings)
	report.Recommendations = strOr(patch.Recommendations, report.Recommendations)
	if patch.Status != nil {
		report.Status = *patch.Status
	}

	var updated models.Report
	if err := s.d.Remote.PutJSON(ctx, "/reports/"+id, report, &updated); err == nil && updated.ID != "" {
		report = updated
	} else if err != nil {
		s.d.Log.Warn().Err(err).Str("report", id).Msg("remote unavailable, report updated locally only")
	}

	mirror(ctx, s.d, cache.KeyReports, report)
	return &report, nil
}

// Share notifies the remote API (best effort) and marks the report shared
// in the cache.
func (s *ReportService) Share(ctx context.Context, id, recipientEmail string) (*models.Report, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.d.Remote.PostJSON(ctx, "/reports/"+id+"/share", map[string]string{"recipientEmail": recipientEmail}, nil); err != nil {
		s.d.Log.Warn().Err(err).Str("report", id).Msg("remote unavailable, share recorded locally only")
	}

	report := *current
	report.Status = models.ReportShared
	mirror(ctx, s.d, cache.KeyReports, report)
	return &report, nil
}

// Delete removes the record remotely (best effort) and locally.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.d.Remote.Delete(ctx, "/reports/"+id); err != nil {
		s.d.Log.Warn().Err(err).Str("report", id).Msg("remote unavailable, report deleted locally only")
	}
	if err := cache.RemoveRecord[models.Report](s.d.Cache, cache.KeyReports, id); err != nil {
		return err
	}
	publishCollection[models.Report](ctx, s.d, cache.KeyReports)
	return nil
}

// PDFURL returns the gateway URL for a report's pinned PDF, empty when the
// report has none.
func (s *ReportService) PDFURL(report *models.Report) string {
	if report.PDFCID == "" {
		return ""
	}
	return s.d.Pins.Store().GatewayURL(report.PDFCID)
}

// DownloadPDF fetches and unseals the pinned PDF, rendering one on the fly
// when the report has no pinned copy.
func (s *ReportService) DownloadPDF(ctx context.Context, report *models.Report) (name, mimeType string, data []byte, err error) {
	if report.PDFCID == "" {
		data, err = reportgen.RenderPDF(report)
		if err != nil {
			return "", "", nil, err
		}
		name = fmt.Sprintf("report_%s_%s.pdf", report.PatientName, report.Date.Format("2006-01-02"))
		return name, "application/pdf", data, nil
	}
	return s.d.Pins.FetchFile(ctx, report.PDFCID)
}
