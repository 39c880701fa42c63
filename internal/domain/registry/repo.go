package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a doctor or patient does not exist.
var ErrNotFound = errors.New("not found")

// DoctorRepository defines the persistence interface for doctors.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Doctor, error)
	GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*Doctor, error)
	// ListByCodes fetches only the doctors whose codes appear in codes,
	// bounding the lookup to one upstream page.
	ListByCodes(ctx context.Context, orgID uuid.UUID, codes []string) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Doctor, int, error)
	// UpsertByCode creates or updates the doctor identified by (orgID, code)
	// and reports whether a new row was created.
	UpsertByCode(ctx context.Context, orgID uuid.UUID, code, fullName string) (*Doctor, bool, error)
}

// PatientRepository defines the persistence interface for patients.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Patient, error)
	GetByMRNumber(ctx context.Context, orgID uuid.UUID, mrNumber string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	// Search matches full name or medical record number, case-insensitive.
	Search(ctx context.Context, orgID uuid.UUID, query string, limit int) ([]*Patient, error)
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error)
	// UpsertByMRNumber creates or updates the patient identified by
	// (orgID, mrNumber). Optional fields only overwrite when non-empty.
	UpsertByMRNumber(ctx context.Context, orgID uuid.UUID, in PatientImport) (*Patient, bool, error)
}

// PatientImport is the upsert payload for hospital-sourced patients.
type PatientImport struct {
	MRNumber       string
	FullName       string
	Address        string
	Phone          string
	RegistrationNo string
}
