package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
}

func NewService(doctors DoctorRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients}
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("doctor full name is required")
	}
	if d.Code == "" {
		return fmt.Errorf("doctor id is required")
	}
	if d.OrganizationID == uuid.Nil {
		return fmt.Errorf("organization is required")
	}
	d.IsActive = true
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, orgID, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, orgID, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("doctor full name is required")
	}
	if d.Code == "" {
		return fmt.Errorf("doctor id is required")
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, orgID, id uuid.UUID) error {
	return s.doctors.Delete(ctx, orgID, id)
}

func (s *Service) ListDoctors(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, orgID, search, limit, offset)
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("patient full name is required")
	}
	if p.OrganizationID == uuid.Nil {
		return fmt.Errorf("organization is required")
	}
	if p.AgeUnit != "" && p.AgeUnit != AgeYears && p.AgeUnit != AgeMonths && p.AgeUnit != AgeDays {
		return fmt.Errorf("invalid age unit: %q", p.AgeUnit)
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, orgID, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, orgID, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("patient full name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, orgID, id uuid.UUID) error {
	return s.patients.Delete(ctx, orgID, id)
}

func (s *Service) ListPatients(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, orgID, search, limit, offset)
}
