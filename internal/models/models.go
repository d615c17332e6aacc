package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account row in the relational store. Everything else in this
// package is a plain serializable record that round-trips through the local
// cache, the upstream record API, and the pinned-content store unchanged.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `json:"name"`
	Role      string         `gorm:"default:'clinician'" json:"role"` // clinician, admin
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ScanType tags the organ a scan targets.
type ScanType string

const (
	ScanBrain ScanType = "brain"
	ScanHeart ScanType = "heart"
	ScanLungs ScanType = "lungs"
	ScanLiver ScanType = "liver"
)

// ScanTypes lists the four supported scan types in display order.
var ScanTypes = []ScanType{ScanBrain, ScanHeart, ScanLungs, ScanLiver}

// DisplayName returns the human-readable modality name used in reports and
// analytics ("Brain MRI", "Cardiac CT", ...).
func (t ScanType) DisplayName() string {
	switch t {
	case ScanBrain:
		return "Brain MRI"
	case ScanHeart:
		return "Cardiac CT"
	case ScanLungs:
		return "Lung CT"
	case ScanLiver:
		return "Liver MRI"
	}
	return string(t)
}

// Valid reports whether t is one of the four supported scan types.
func (t ScanType) Valid() bool {
	switch t {
	case ScanBrain, ScanHeart, ScanLungs, ScanLiver:
		return true
	}
	return false
}

// RiskLevel is the three-valued severity summary.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Patient is the root entity: identity, contact details and a risk summary.
// RiskLevel and Conditions are independent fields; neither is computed from
// the other. DetailCID points at an encrypted blob in the pinned-content
// store holding the sensitive portion (conditions, address, notes).
type Patient struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender"` // male, female
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	LastVisit  time.Time `json:"lastVisit"`
	TotalScans int       `json:"totalScans"`
	RiskLevel  RiskLevel `json:"riskLevel"`
	Conditions []string  `json:"conditions"`
	DetailCID  string    `json:"detailCid,omitempty"`
	Demo       bool      `json:"demo,omitempty"`
}

func (p Patient) EntityID() string { return p.ID }

// Anomaly is a simulated finding owned by its scan, never persisted on its
// own. Confidence and severity are drawn independently.
type Anomaly struct {
	ID          string    `json:"id"`
	Severity    RiskLevel `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Confidence  float64   `json:"confidence"` // [0.7, 1.0)
	X           float64   `json:"x"`          // [0, 512)
	Y           float64   `json:"y"`
}

// ScanStatus is the scan lifecycle tag. Analysis runs inline before the
// record is first persisted, so readers never observe "processing".
type ScanStatus string

const (
	ScanProcessing ScanStatus = "processing"
	ScanCompleted  ScanStatus = "completed"
	ScanReviewed   ScanStatus = "reviewed"
)

// Scan is one uploaded image plus its derived analysis. PatientID is a weak
// reference; nothing enforces it.
type Scan struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patientId"`
	Type         ScanType   `json:"type"`
	ScanDate     time.Time  `json:"scanDate"`
	Image        string     `json:"image"` // gateway display URL
	ImageCID     string     `json:"imageCid,omitempty"`
	Anomalies    []Anomaly  `json:"anomalies"`
	AnomaliesCID string     `json:"anomaliesCid,omitempty"`
	ReportCID    string     `json:"reportCid,omitempty"`
	Status       ScanStatus `json:"status"`
	Demo         bool       `json:"demo,omitempty"`
}

func (s Scan) EntityID() string { return s.ID }

// ReportStatus is the report lifecycle tag.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportShared   ReportStatus = "shared"
)

// Report summarizes one scan. PatientName is a snapshot taken at creation
// time and may drift from Patient.Name. RiskLevel is derived once from the
// scan's anomalies and is not re-derived when they change. Repeated report
// generation for the same scan produces duplicate records.
type Report struct {
	ID              string       `json:"id"`
	PatientID       string       `json:"patientId"`
	PatientName     string       `json:"patientName"`
	ScanID          string       `json:"scanId"`
	ScanType        string       `json:"scanType"`
	Date            time.Time    `json:"date"`
	Doctor          string       `json:"doctor"`
	Status          ReportStatus `json:"status"`
	RiskLevel       RiskLevel    `json:"riskLevel"`
	Findings        string       `json:"findings"`
	Recommendations string       `json:"recommendations"`
	PDFCID          string       `json:"pdfCid,omitempty"`
	MetadataCID     string       `json:"metadataCid,omitempty"`
	Demo            bool         `json:"demo,omitempty"`
}

func (r Report) EntityID() string { return r.ID }

// StatCard is one dashboard figure with its change versus the preceding
// window of equal length.
type StatCard struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  string `json:"trend"` // up, down, neutral
}

// ScanTypeCount buckets scans into the four fixed types.
type ScanTypeCount struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// TimeSeriesPoint is one calendar-day bucket, oldest first.
type TimeSeriesPoint struct {
	Day       string `json:"day"` // Mon, Tue, ...
	Date      string `json:"date"`
	Scans     int    `json:"scans"`
	Anomalies int    `json:"anomalies"`
}

// Analytics is the aggregate the dashboard renders.
type Analytics struct {
	Stats                []StatCard        `json:"stats"`
	ScanTypeDistribution []ScanTypeCount   `json:"scanTypeDistribution"`
	TimeSeriesData       []TimeSeriesPoint `json:"timeSeriesData"`
}
