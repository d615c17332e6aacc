package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"mediscan-back/internal/models"
	"mediscan-back/internal/services"
)

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	ext := filepath.Ext(file.Filename)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return nil, errors.New("only JPEG and PNG files are allowed")
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func contentTypeFor(filename string) string {
	if filepath.Ext(filename) == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrPinRequired):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Cloud storage upload failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// UploadScan accepts one image, resolves or creates the target patient,
// and runs the scan pipeline.
func UploadScan(scans *services.ScanService, patients *services.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
			return
		}

		scanType := models.ScanType(c.PostForm("scan_type"))
		if !scanType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan type"})
			return
		}

		patientID := c.PostForm("patient_id")
		if patientID == "" {
			name := c.PostForm("patient_name")
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "patient_id or patient_name required"})
				return
			}
			age, _ := strconv.Atoi(c.PostForm("patient_age"))
			patient, err := patients.Create(c.Request.Context(), models.Patient{
				Name:   name,
				Age:    age,
				Gender: c.PostForm("patient_gender"),
				Email:  c.PostForm("patient_email"),
			})
			if err != nil {
				writeServiceError(c, err)
				return
			}
			patientID = patient.ID
		}

		data, err := readUpload(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid image: %s", err.Error())})
			return
		}

		scan, err := scans.Create(c.Request.Context(), services.ScanUpload{
			FileName:    file.Filename,
			ContentType: contentTypeFor(file.Filename),
			Data:        data,
			PatientID:   patientID,
			Type:        scanType,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, scan)
	}
}

// UploadScanBatch accepts several images for one patient and returns a
// per-item result list; partial success is a valid outcome.
func UploadScanBatch(scans *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}
		files := form.File["images"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image files provided"})
			return
		}

		scanType := models.ScanType(c.PostForm("scan_type"))
		if !scanType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan type"})
			return
		}
		patientID := c.PostForm("patient_id")
		if patientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "patient_id required"})
			return
		}

		uploads := make([]services.ScanUpload, 0, len(files))
		for _, file := range files {
			data, err := readUpload(file)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid image %s: %s", file.Filename, err.Error())})
				return
			}
			uploads = append(uploads, services.ScanUpload{
				FileName:    file.Filename,
				ContentType: contentTypeFor(file.Filename),
				Data:        data,
				PatientID:   patientID,
				Type:        scanType,
			})
		}

		results := scans.CreateBatch(c.Request.Context(), uploads)
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

func ListPatients(patients *services.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, patients.GetAll(c.Request.Context()))
	}
}

func GetPatient(patients *services.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		patient, err := patients.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, patient)
	}
}

func CreatePatient(patients *services.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patient models.Patient
		if err := c.ShouldBindJSON(&patient); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := patients.Create(c.Request.Context(), patient)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func UpdatePatient(patients *services.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch services.PatientPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated, err := patients.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeletePatient(patients *services.PatientService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := patients.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ListScans(scans *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, scans.GetAll(c.Request.Context()))
	}
}

func ListPatientScans(scans *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, scans.GetByPatient(c.Request.Context(), c.Param("id")))
	}
}

func GetScan(scans *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		scan, err := scans.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, scan)
	}
}

func UpdateScan(scans *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch services.ScanPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Replacing the anomaly list pins the new document first; plain
		// status changes skip that. A combined patch pins the anomalies
		// and then applies the requested status on top.
		var updated *models.Scan
		var err error
		if patch.Anomalies != nil {
			updated, err = scans.UpdateAnomalies(c.Request.Context(), c.Param("id"), patch.Anomalies)
			if err == nil && patch.Status != nil {
				updated, err = scans.Update(c.Request.Context(), c.Param("id"), services.ScanPatch{Status: patch.Status})
			}
		} else {
			updated, err = scans.Update(c.Request.Context(), c.Param("id"), patch)
		}
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// GenerateScanReport builds a report for an existing scan and attaches the
// rendered PDF back onto the scan record.
func GenerateScanReport(scans *services.ScanService, reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		scan, err := scans.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}

		var input services.ReportInput
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		report, err := reports.CreateFromScan(c.Request.Context(), scan, input, nil)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		// Attaching the PDF to the scan is best effort; the report itself
		// is already durable.
		if _, _, pdf, err := reports.DownloadPDF(c.Request.Context(), report); err == nil {
			_, _ = scans.AttachReport(c.Request.Context(), scan.ID, pdf)
		}

		c.JSON(http.StatusCreated, report)
	}
}

func DeleteScan(scans *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := scans.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ListReports(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reports.GetAll(c.Request.Context()))
	}
}

func ListPatientReports(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reports.GetByPatient(c.Request.Context(), c.Param("id")))
	}
}

func GetReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func UpdateReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch services.ReportPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated, err := reports.Update(c.Request.Context(), c.Param("id"), patch, nil)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type ShareRequest struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
}

func ShareReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ShareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		shared, err := reports.Share(c.Request.Context(), c.Param("id"), req.RecipientEmail)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, shared)
	}
}

// DownloadReportPDF streams the report PDF, rendering it on the fly when
// no pinned copy exists.
func DownloadReportPDF(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}

		name, mimeType, data, err := reports.DownloadPDF(c.Request.Context(), report)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to retrieve report PDF"})
			return
		}
		if mimeType == "" {
			mimeType = "application/pdf"
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
		c.Data(http.StatusOK, mimeType, data)
	}
}

func GetAnalytics(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		timeRange := c.DefaultQuery("range", "7d")
		c.JSON(http.StatusOK, analytics.Aggregate(c.Request.Context(), timeRange))
	}
}

func GetPatientAnalytics(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := analytics.PatientAnalytics(c.Request.Context(), c.Param("id"))
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analytics unavailable for patient"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// SettingsStatus is the non-secret view of the deployment configuration
// exposed to administrators.
type SettingsStatus struct {
	RemoteAPIConfigured  bool   `json:"remoteApiConfigured"`
	PinStoreConfigured   bool   `json:"pinStoreConfigured"`
	PinStoreBackend      string `json:"pinStoreBackend,omitempty"`
	EncryptionKeyDefault bool   `json:"encryptionKeyDefault"`
}

func GetAdminSettings(status SettingsStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, status)
	}
}
