package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediscan-back/internal/analysis"
	"mediscan-back/internal/cache"
	"mediscan-back/internal/models"
	"mediscan-back/internal/resolve"
)

// ScanUpload is one image submitted for analysis.
type ScanUpload struct {
	FileName    string
	ContentType string
	Data        []byte
	PatientID   string
	Type        models.ScanType
}

// ScanPatch carries the fields a partial scan update may touch.
type ScanPatch struct {
	Status    *models.ScanStatus `json:"status,omitempty"`
	Anomalies []models.Anomaly   `json:"anomalies,omitempty"`
}

// BatchResult reports one item of a batch upload. The batch as a whole
// neither requires every item to succeed nor stops at the first failure;
// each item carries its own outcome.
type BatchResult struct {
	Index    int          `json:"index"`
	FileName string       `json:"fileName"`
	Scan     *models.Scan `json:"scan,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// ScanService is the scan record store plus the upload pipeline.
type ScanService struct {
	d         Deps
	generator analysis.Generator
	patients  *PatientService
	reports   *ReportService
}

func NewScanService(d Deps, generator analysis.Generator, patients *PatientService, reports *ReportService) *ScanService {
	return &ScanService{d: d, generator: generator, patients: patients, reports: reports}
}

// GetAll resolves the scan collection. Scans have no demo fallback: a
// total miss yields an empty slice.
func (s *ScanService) GetAll(ctx context.Context) []models.Scan {
	log := s.d.Log.With().Str("collection", cache.KeyScans).Logger()
	scans := resolve.First(ctx, log,
		resolve.Step[models.Scan]{Name: "remote", Fetch: func(ctx context.Context) ([]models.Scan, bool) {
			var scans []models.Scan
			if err := s.d.Remote.GetJSON(ctx, "/scans", &scans); err != nil {
				return nil, false
			}
			return scans, true
		}},
		resolve.Step[models.Scan]{Name: "cloud", Fetch: func(ctx context.Context) ([]models.Scan, bool) {
			return cloudCollection[models.Scan](ctx, s.d, cache.KeyScans)
		}},
		resolve.Step[models.Scan]{Name: "cache", Fetch: func(ctx context.Context) ([]models.Scan, bool) {
			return cachedCollection[models.Scan](s.d, cache.KeyScans)
		}},
	)
	if scans == nil {
		return []models.Scan{}
	}
	return scans
}

// GetByPatient resolves a patient's scans: nested remote endpoint, then a
// filter over the cached collection.
func (s *ScanService) GetByPatient(ctx context.Context, patientID string) []models.Scan {
	var scans []models.Scan
	if err := s.d.Remote.GetJSON(ctx, "/patients/"+patientID+"/scans", &scans); err == nil {
		return scans
	}

	cached, err := cache.GetCollection[models.Scan](s.d.Cache, cache.KeyScans)
	if err != nil {
		s.d.Log.Error().Err(err).Msg("local cache unreadable")
		return []models.Scan{}
	}
	matched := []models.Scan{}
	for _, scan := range cached {
		if scan.PatientID == patientID {
			matched = append(matched, scan)
		}
	}
	return matched
}

// GetByID resolves one scan.
func (s *ScanService) GetByID(ctx context.Context, id string) (*models.Scan, error) {
	scan := resolve.One(ctx, s.d.Log,
		func(ctx context.Context) (*models.Scan, bool) {
			var scan models.Scan
			if err := s.d.Remote.GetJSON(ctx, "/scans/"+id, &scan); err != nil || scan.ID == "" {
				return nil, false
			}
			return &scan, true
		},
		func(ctx context.Context) (*models.Scan, bool) {
			scans, err := cache.GetCollection[models.Scan](s.d.Cache, cache.KeyScans)
			if err != nil {
				s.d.Log.Error().Err(err).Msg("local cache unreadable")
				return nil, false
			}
			for i := range scans {
				if scans[i].ID == id {
					return &scans[i], true
				}
			}
			return nil, false
		},
	)
	if scan == nil {
		return nil, ErrNotFound
	}
	return scan, nil
}

// Create runs the whole upload pipeline: pin the image (fatal on failure),
// run the analysis engine inline, persist the completed scan, generate its
// report, bump the patient's counters, and finally attempt the remote
// write. Readers never observe a "processing" scan because analysis
// finishes before the record is first persisted.
func (s *ScanService) Create(ctx context.Context, upload ScanUpload) (*models.Scan, error) {
	if !upload.Type.Valid() {
		return nil, fmt.Errorf("unknown scan type %q", upload.Type)
	}

	pinned, err := s.d.Pins.Store().PinFile(ctx, upload.FileName, bytes.NewReader(upload.Data), map[string]string{
		"patientId": upload.PatientID,
		"scanType":  string(upload.Type),
		"scanDate":  time.Now().UTC().Format(time.RFC3339),
		"fileType":  "medical_scan",
		"filename":  upload.FileName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
	}

	anomalies, err := s.generator.Analyze(ctx, upload.Type)
	if err != nil {
		return nil, err
	}

	scan := models.Scan{
		ID:        "scan_" + uuid.New().String(),
		PatientID: upload.PatientID,
		Type:      upload.Type,
		ScanDate:  time.Now().UTC(),
		ImageCID:  pinned.CID,
		Image:     s.d.Pins.Store().GatewayURL(pinned.CID),
		Anomalies: anomalies,
		Status:    models.ScanCompleted,
	}

	mirror(ctx, s.d, cache.KeyScans, scan)

	// Report generation and the patient counter are best-effort: the scan
	// record is already durable locally.
	patientName := "Unknown Patient"
	if patient, err := s.patients.GetByID(ctx, upload.PatientID); err == nil {
		patientName = patient.Name
	}
	if _, err := s.reports.CreateFromScan(ctx, &scan, ReportInput{PatientName: patientName}, nil); err != nil {
		s.d.Log.Error().Err(err).Str("scan", scan.ID).Msg("report creation failed")
	}
	s.patients.RecordVisit(ctx, upload.PatientID)

	if err := s.d.Remote.PostJSON(ctx, "/scans", scan, nil); err != nil {
		s.d.Log.Warn().Err(err).Str("scan", scan.ID).Msg("remote unavailable, scan stored locally only")
	}

	return &scan, nil
}

// CreateBatch dispatches the uploads concurrently and waits for all of
// them to settle; one failing item does not cancel its siblings.
func (s *ScanService) CreateBatch(ctx context.Context, uploads []ScanUpload) []BatchResult {
	results := make([]BatchResult, len(uploads))
	var wg sync.WaitGroup
	for i, upload := range uploads {
		wg.Add(1)
		go func(i int, upload ScanUpload) {
			defer wg.Done()
			result := BatchResult{Index: i, FileName: upload.FileName}
			scan, err := s.Create(ctx, upload)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Scan = scan
			}
			results[i] = result
		}(i, upload)
	}
	wg.Wait()
	return results
}

// UpdateAnomalies replaces a scan's anomaly list after re-analysis. The
// anomaly document is pinned first; failure aborts the update.
func (s *ScanService) UpdateAnomalies(ctx context.Context, scanID string, anomalies []models.Anomaly) (*models.Scan, error) {
	current, err := s.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}

	pinned, err := s.d.Pins.Store().PinJSON(ctx, "scan_anomalies_"+scanID, map[string]any{"anomalies": anomalies})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
	}

	scan := *current
	scan.Anomalies = anomalies
	scan.AnomaliesCID = pinned.CID
	scan.Status = models.ScanCompleted

	return s.write(ctx, scan)
}

// AttachReport pins a generated report PDF against the scan and marks it
// reviewed.
func (s *ScanService) AttachReport(ctx context.Context, scanID string, pdf []byte) (*models.Scan, error) {
	current, err := s.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}

	pinned, err := s.d.Pins.Store().PinFile(ctx, "scan_report_"+scanID+".pdf", bytes.NewReader(pdf), map[string]string{
		"scanId":     scanID,
		"patientId":  current.PatientID,
		"reportType": "scan_report",
		"scanType":   string(current.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
	}

	scan := *current
	scan.ReportCID = pinned.CID
	scan.Status = models.ScanReviewed

	return s.write(ctx, scan)
}

// Update merges a partial update and runs the write path.
func (s *ScanService) Update(ctx context.Context, id string, patch ScanPatch) (*models.Scan, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scan := *current
	if patch.Status != nil {
		scan.Status = *patch.Status
	}
	if patch.Anomalies != nil {
		scan.Anomalies = patch.Anomalies
	}

	return s.write(ctx, scan)
}

// Delete removes the record remotely (best effort) and locally.
func (s *ScanService) Delete(ctx context.Context, id string) error {
	if err := s.d.Remote.Delete(ctx, "/scans/"+id); err != nil {
		s.d.Log.Warn().Err(err).Str("scan", id).Msg("remote unavailable, scan deleted locally only")
	}
	if err := cache.RemoveRecord[models.Scan](s.d.Cache, cache.KeyScans, id); err != nil {
		return err
	}
	publishCollection[models.Scan](ctx, s.d, cache.KeyScans)
	return nil
}

func (s *ScanService) write(ctx context.Context, scan models.Scan) (*models.Scan, error) {
	var updated models.Scan
	if err := s.d.Remote.PutJSON(ctx, "/scans/"+scan.ID, scan, &updated); err == nil && updated.ID != "" {
		scan = updated
	} else if err != nil {
		s.d.Log.Warn().Err(err).Str("scan", scan.ID).Msg("remote unavailable, scan updated locally only")
	}
	mirror(ctx, s.d, cache.KeyScans, scan)
	return &scan, nil
}
