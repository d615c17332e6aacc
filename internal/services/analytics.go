package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"mediscan-back/internal/cache"
	"mediscan-back/internal/models"
)

// AnalyticsService aggregates the current scan and patient collections
// into dashboard figures. It is read-only and never fails: any unexpected
// problem collapses to the zeroed default structure.
type AnalyticsService struct {
	d   Deps
	now func() time.Time
}

func NewAnalyticsService(d Deps) *AnalyticsService {
	return &AnalyticsService{d: d, now: time.Now}
}

// FormatChange renders a percent change against the previous window. A
// previous of zero with activity reads as "+100%"; flat zero reads as
// "+0.0%" instead of pretending growth.
func FormatChange(current, previous int) string {
	if previous == 0 {
		if current == 0 {
			return "+0.0%"
		}
		return "+100%"
	}
	change := float64(current-previous) / float64(previous) * 100
	return fmt.Sprintf("%+.1f%%", change)
}

func windowDays(timeRange string) int {
	switch timeRange {
	case "30d":
		return 30
	case "90d":
		return 90
	case "1y":
		return 365
	default:
		return 7
	}
}

func trend(current, previous int) string {
	if current >= previous {
		return "up"
	}
	return "down"
}

// Aggregate computes the dashboard analytics for the requested window
// (7d, 30d, 90d, 1y).
func (s *AnalyticsService) Aggregate(ctx context.Context, timeRange string) *models.Analytics {
	scans, err := cache.GetCollection[models.Scan](s.d.Cache, cache.KeyScans)
	if err != nil {
		s.d.Log.Error().Err(err).Msg("analytics fell back to defaults")
		return s.defaultAnalytics()
	}
	patients, err := cache.GetCollection[models.Patient](s.d.Cache, cache.KeyPatients)
	if err != nil {
		s.d.Log.Error().Err(err).Msg("analytics fell back to defaults")
		return s.defaultAnalytics()
	}

	days := windowDays(timeRange)
	now := s.now().UTC()
	start := now.AddDate(0, 0, -days)
	previousStart := start.AddDate(0, 0, -days)

	var current, previous []models.Scan
	for _, scan := range scans {
		switch {
		case !scan.ScanDate.Before(start) && !scan.ScanDate.After(now):
			current = append(current, scan)
		case !scan.ScanDate.Before(previousStart) && scan.ScanDate.Before(start):
			previous = append(previous, scan)
		}
	}

	anomalies := countAnomalies(current)
	previousAnomalies := countAnomalies(previous)
	reviewed := countReviewed(current)
	previousReviewed := countReviewed(previous)

	stats := []models.StatCard{
		{
			Title:  "Total Scans",
			Value:  fmt.Sprintf("%d", len(current)),
			Change: FormatChange(len(current), len(previous)),
			Trend:  trend(len(current), len(previous)),
		},
		{
			Title:  "Reports Generated",
			Value:  fmt.Sprintf("%d", reviewed),
			Change: FormatChange(reviewed, previousReviewed),
			Trend:  trend(reviewed, previousReviewed),
		},
		{
			Title:  "Active Patients",
			Value:  fmt.Sprintf("%d", len(patients)),
			Change: "+0.0%",
			Trend:  "neutral",
		},
		{
			Title:  "Anomalies Detected",
			Value:  fmt.Sprintf("%d", anomalies),
			Change: FormatChange(anomalies, previousAnomalies),
			Trend:  trend(anomalies, previousAnomalies),
		},
	}

	return &models.Analytics{
		Stats:                stats,
		ScanTypeDistribution: distribution(current),
		TimeSeriesData:       timeSeries(current, start, days),
	}
}

// PatientAnalytics asks the remote API for per-patient figures; there is
// no local fallback for this view.
func (s *AnalyticsService) PatientAnalytics(ctx context.Context, patientID string) *models.Analytics {
	var analytics models.Analytics
	if err := s.d.Remote.GetJSON(ctx, "/patients/"+patientID+"/analytics", &analytics); err != nil {
		s.d.Log.Debug().Err(err).Str("patient", patientID).Msg("patient analytics unavailable")
		return nil
	}
	return &analytics
}

func countAnomalies(scans []models.Scan) int {
	total := 0
	for _, scan := range scans {
		total += len(scan.Anomalies)
	}
	return total
}

func countReviewed(scans []models.Scan) int {
	total := 0
	for _, scan := range scans {
		if scan.Status == models.ScanReviewed {
			total++
		}
	}
	return total
}

// distribution buckets scans into the four fixed types. Percentages are
// rounded per bucket and all zero when there are no scans.
func distribution(scans []models.Scan) []models.ScanTypeCount {
	counts := map[models.ScanType]int{}
	for _, scan := range scans {
		counts[scan.Type]++
	}

	total := 0
	for _, t := range models.ScanTypes {
		total += counts[t]
	}

	buckets := make([]models.ScanTypeCount, 0, len(models.ScanTypes))
	for _, t := range models.ScanTypes {
		bucket := models.ScanTypeCount{Type: t.DisplayName(), Count: counts[t]}
		if total > 0 {
			bucket.Percentage = int(math.Round(float64(counts[t]) / float64(total) * 100))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// timeSeries produces one bucket per calendar day in the window, oldest
// first, with the scan count and summed anomaly count for that day.
func timeSeries(scans []models.Scan, start time.Time, days int) []models.TimeSeriesPoint {
	points := make([]models.TimeSeriesPoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format("2006-01-02")

		scanCount, anomalyCount := 0, 0
		for _, scan := range scans {
			if scan.ScanDate.Format("2006-01-02") == date {
				scanCount++
				anomalyCount += len(scan.Anomalies)
			}
		}

		points = append(points, models.TimeSeriesPoint{
			Day:       day.Weekday().String()[:3],
			Date:      date,
			Scans:     scanCount,
			Anomalies: anomalyCount,
		})
	}
	return points
}

func (s *AnalyticsService) defaultAnalytics() *models.Analytics {
	stats := make([]models.StatCard, 0, 4)
	for _, title := range []string{"Total Scans", "Reports Generated", "Active Patients", "Anomalies Detected"} {
		stats = append(stats, models.StatCard{Title: title, Value: "0", Change: "+0.0%", Trend: "neutral"})
	}
	return &models.Analytics{
		Stats:                stats,
		ScanTypeDistribution: distribution(nil),
		TimeSeriesData:       timeSeries(nil, s.now().UTC().AddDate(0, 0, -7), 7),
	}
}
