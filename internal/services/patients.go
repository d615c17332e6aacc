package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediscan-back/internal/cache"
	"mediscan-back/internal/models"
	"mediscan-back/internal/resolve"
)

// patientDetail is the sensitive blob pinned per patient: medical history
// and address travel encrypted, only the identifier lives on the record.
type patientDetail struct {
	MedicalHistory []string  `json:"medicalHistory"`
	Address        string    `json:"address"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

// PatientPatch carries the fields a partial update may touch; nil means
// "leave unchanged".
type PatientPatch struct {
	Name       *string           `json:"name,omitempty"`
	Age        *int              `json:"age,omitempty"`
	Gender     *string           `json:"gender,omitempty"`
	Email      *string           `json:"email,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	Address    *string           `json:"address,omitempty"`
	RiskLevel  *models.RiskLevel `json:"riskLevel,omitempty"`
	Conditions []string          `json:"conditions,omitempty"`
}

// PatientService is the patient record store.
type PatientService struct {
	d Deps
}

func NewPatientService(d Deps) *PatientService {
	return &PatientService{d: d}
}

// GetAll resolves the patient collection: remote API, pinned collection
// index, local cache, then the fixed demo set.
func (s *PatientService) GetAll(ctx context.Context) []models.Patient {
	log := s.d.Log.With().Str("collection", cache.KeyPatients).Logger()
	return resolve.First(ctx, log,
		resolve.Step[models.Patient]{Name: "remote", Fetch: func(ctx context.Context) ([]models.Patient, bool) {
			var patients []models.Patient
			if err := s.d.Remote.GetJSON(ctx, "/patients", &patients); err != nil {
				return nil, false
			}
			return patients, true
		}},
		resolve.Step[models.Patient]{Name: "cloud", Fetch: func(ctx context.Context) ([]models.Patient, bool) {
			return cloudCollection[models.Patient](ctx, s.d, cache.KeyPatients)
		}},
		resolve.Step[models.Patient]{Name: "cache", Fetch: func(ctx context.Context) ([]models.Patient, bool) {
			return cachedCollection[models.Patient](s.d, cache.KeyPatients)
		}},
		resolve.Step[models.Patient]{Name: "demo", Fetch: func(ctx context.Context) ([]models.Patient, bool) {
			return demoPatients(), true
		}},
	)
}

// GetByID resolves one patient: remote endpoint first, then a scan of the
// cached collection.
func (s *PatientService) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	patient := resolve.One(ctx, s.d.Log,
		func(ctx context.Context) (*models.Patient, bool) {
			var patient models.Patient
			if err := s.d.Remote.GetJSON(ctx, "/patients/"+id, &patient); err != nil || patient.ID == "" {
				return nil, false
			}
			return &patient, true
		},
		func(ctx context.Context) (*models.Patient, bool) {
			patients, err := cache.GetCollection[models.Patient](s.d.Cache, cache.KeyPatients)
			if err != nil {
				s.d.Log.Error().Err(err).Msg("local cache unreadable")
				return nil, false
			}
			for i := range patients {
				if patients[i].ID == id {
					return &patients[i], true
				}
			}
			return nil, false
		},
	)
	if patient == nil {
		return nil, ErrNotFound
	}
	return patient, nil
}

// Create pins the encrypted sensitive blob first (fatal on failure), then
// writes the record optimistically to the remote API and mirrors it into
// the cache regardless of remote success.
func (s *PatientService) Create(ctx context.Context, patient models.Patient) (*models.Patient, error) {
	detail := patientDetail{
		MedicalHistory: patient.Conditions,
		Address:        patient.Address,
		CreatedAt:      time.Now().UTC(),
	}
	pinned, err := s.d.Pins.PinJSON(ctx, fmt.Sprintf("patient_%d", time.Now().UnixMilli()), detail)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinRequired, err)
	}
	patient.DetailCID = pinned.CID

	if patient.ID == "" {
		patient.ID = "patient_" + uuid.New().String()
	}
	if patient.LastVisit.IsZero() {
		patient.LastVisit = time.Now().UTC()
	}
	if patient.RiskLevel == "" {
		patient.RiskLevel = models.RiskLow
	}
	if patient.Conditions == nil {
		patient.Conditions = []string{}
	}

	var created models.Patient
	if err := s.d.Remote.PostJSON(ctx, "/patients", patient, &created); err == nil && created.ID != "" {
		patient = created
	} else if err != nil {
		s.d.Log.Warn().Err(err).Str("patient", patient.ID).Msg("remote unavailable, patient stored locally only")
	}

	mirror(ctx, s.d, cache.KeyPatients, patient)
	return &patient, nil
}

// Update re-resolves the record, merges the supplied partial fields, and
// runs the write path. When the patch touches the sensitive fields and a
// detail blob exists, the blob is re-pinned with the merged content; a
// failure there keeps the old identifier rather than aborting.
func (s *PatientService) Update(ctx context.Context, id string, patch PatientPatch) (*models.Patient, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patient := *current

	if (patch.Conditions != nil || patch.Address != nil) && patient.DetailCID != "" {
		var detail patientDetail
		if err := s.d.Pins.FetchJSON(ctx, patient.DetailCID, &detail); err == nil {
			if patch.Conditions != nil {
				detail.MedicalHistory = patch.Conditions
			}
			if patch.Address != nil {
				detail.Address = *patch.Address
			}
			detail.UpdatedAt = time.Now().UTC()
			if pinned, err := s.d.Pins.PinJSON(ctx, fmt.Sprintf("patient_%s_%d", id, time.Now().UnixMilli()), detail); err == nil {
				patient.DetailCID = pinned.CID
			}
		}
	}

	patient.Name = strOr(patch.Name, patient.Name)
	patient.Gender = strOr(patch.Gender, patient.Gender)
	patient.Email = strOr(patch.Email, patient.Email)
	patient.Phone = strOr(patch.Phone, patient.Phone)
	patient.Address = strOr(patch.Address, patient.Address)
	if patch.Age != nil {
		patient.Age = *patch.Age
	}
	if patch.RiskLevel != nil {
		patient.RiskLevel = *patch.RiskLevel
	}
	if patch.Conditions != nil {
		patient.Conditions = patch.Conditions
	}

	var updated models.Patient
	if err := s.d.Remote.PutJSON(ctx, "/patients/"+id, patient, &updated); err == nil && updated.ID != "" {
		patient = updated
	} else if err != nil {
		s.d.Log.Warn().Err(err).Str("patient", id).Msg("remote unavailable, patient updated locally only")
	}

	mirror(ctx, s.d, cache.KeyPatients, patient)
	return &patient, nil
}

// Delete removes the record remotely (best effort) and locally.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.d.Remote.Delete(ctx, "/patients/"+id); err != nil {
		s.d.Log.Warn().Err(err).Str("patient", id).Msg("remote unavailable, patient deleted locally only")
	}
	if err := cache.RemoveRecord[models.Patient](s.d.Cache, cache.KeyPatients, id); err != nil {
		return err
	}
	publishCollection[models.Patient](ctx, s.d, cache.KeyPatients)
	return nil
}

// RecordVisit bumps the patient's scan counter and visit timestamp in the
// cached collection. Scan creation calls this, making totalScans
// monotonically increasing per scan; the atomic update keeps the counter
// exact when batch uploads bump it concurrently.
func (s *PatientService) RecordVisit(ctx context.Context, patientID string) {
	err := cache.UpdateCollection(s.d.Cache, cache.KeyPatients, func(patients []models.Patient) []models.Patient {
		for i := range patients {
			if patients[i].ID == patientID {
				patients[i].TotalScans++
				patients[i].LastVisit = time.Now().UTC()
			}
		}
		return patients
	})
	if err != nil {
		s.d.Log.Error().Err(err).Msg("failed to update patient scan count")
	}
}
