// Package analysis is the "AI" behind the dashboard: a random-data generator
// dressed up as a model. The image content never influences the output. The
// Generator interface exists so a real model can replace the simulator
// without touching callers.
package analysis

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediscan-back/internal/models"
)

// Generator produces findings for a scan type.
type Generator interface {
	Analyze(ctx context.Context, scanType models.ScanType) ([]models.Anomaly, error)
}

var severities = []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh}

var anomalyTitles = map[models.ScanType]map[models.RiskLevel]string{
	models.ScanBrain: {
		models.RiskLow:    "Minor brain tissue variation",
		models.RiskMedium: "Possible lesion detected",
		models.RiskHigh:   "Significant abnormality found",
	},
	models.ScanHeart: {
		models.RiskLow:    "Mild cardiac irregularity",
		models.RiskMedium: "Coronary artery narrowing",
		models.RiskHigh:   "Critical cardiac anomaly",
	},
	models.ScanLungs: {
		models.RiskLow:    "Small lung nodule",
		models.RiskMedium: "Pulmonary infiltrate",
		models.RiskHigh:   "Suspicious mass detected",
	},
	models.ScanLiver: {
		models.RiskLow:    "Minor hepatic cyst",
		models.RiskMedium: "Liver lesion identified",
		models.RiskHigh:   "Significant hepatic abnormality",
	},
}

var anomalyDescriptions = map[models.ScanType]map[models.RiskLevel]string{
	models.ScanBrain: {
		models.RiskLow:    "Small area of altered signal intensity, likely benign variation.",
		models.RiskMedium: "Focal lesion requiring further evaluation and follow-up.",
		models.RiskHigh:   "Large abnormality with characteristics requiring immediate attention.",
	},
	models.ScanHeart: {
		models.RiskLow:    "Minor variation in cardiac structure within normal limits.",
		models.RiskMedium: "Moderate stenosis detected, clinical correlation recommended.",
		models.RiskHigh:   "Severe abnormality requiring urgent cardiology consultation.",
	},
	models.ScanLungs: {
		models.RiskLow:    "Small pulmonary nodule, routine follow-up recommended.",
		models.RiskMedium: "Infiltrative changes, consider infection or inflammation.",
		models.RiskHigh:   "Large mass with concerning characteristics, biopsy recommended.",
	},
	models.ScanLiver: {
		models.RiskLow:    "Simple hepatic cyst, no immediate concern.",
		models.RiskMedium: "Focal liver lesion, further characterization needed.",
		models.RiskHigh:   "Complex liver abnormality requiring specialist evaluation.",
	},
}

var anomalyLocations = map[models.ScanType][]string{
	models.ScanBrain: {"frontal lobe", "parietal lobe", "temporal lobe", "occipital lobe", "cerebellum"},
	models.ScanHeart: {"left ventricle", "right ventricle", "left atrium", "right atrium", "coronary arteries"},
	models.ScanLungs: {"upper right lobe", "middle right lobe", "lower right lobe", "upper left lobe", "lower left lobe"},
	models.ScanLiver: {"right lobe", "left lobe", "quadrate lobe", "caudate lobe"},
}

// Simulator draws 0-3 anomalies with random severity, canned text keyed by
// (scan type, severity), a random anatomical region, confidence in
// [0.7, 1.0) and coordinates in [0, 512)^2, after an artificial delay that
// models processing time. Safe for concurrent use; batch uploads call
// Analyze from several goroutines against one shared source.
type Simulator struct {
	delay time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSimulator builds a simulator with the given processing delay and
// random source. A nil source gets a time-seeded one; tests pass a seeded
// source for determinism.
func NewSimulator(delay time.Duration, src *rand.Rand) *Simulator {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{delay: delay, rand: src}
}

// Analyze generates the anomaly list for one scan.
func (s *Simulator) Analyze(ctx context.Context, scanType models.ScanType) ([]models.Anomaly, error) {
	if !scanType.Valid() {
		return nil, fmt.Errorf("unknown scan type %q", scanType)
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.rand.Intn(4)
	anomalies := make([]models.Anomaly, 0, count)
	for i := 0; i < count; i++ {
		severity := severities[s.rand.Intn(len(severities))]
		locations := anomalyLocations[scanType]

		anomalies = append(anomalies, models.Anomaly{
			ID:          "anomaly_" + uuid.New().String(),
			Severity:    severity,
			Title:       anomalyTitles[scanType][severity],
			Description: anomalyDescriptions[scanType][severity],
			Location:    locations[s.rand.Intn(len(locations))],
			Confidence:  0.7 + s.rand.Float64()*0.3,
			X:           s.rand.Float64() * 512,
			Y:           s.rand.Float64() * 512,
		})
	}
	return anomalies, nil
}
