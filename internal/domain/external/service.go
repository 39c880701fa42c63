package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ripac/ripac/internal/domain/org"
	"github.com/ripac/ripac/internal/domain/registry"
	"github.com/ripac/ripac/internal/platform/hospital"
)

// Service coordinates upstream hospital lookups with the local registry. The
// token cache is shared across organizations; tokens are keyed by base URL.
type Service struct {
	orgs     org.Repository
	doctors  registry.DoctorRepository
	patients registry.PatientRepository
	cache    hospital.TokenCache

	username string
	password string
	timeout  time.Duration
}

func NewService(orgs org.Repository, doctors registry.DoctorRepository, patients registry.PatientRepository,
	cache hospital.TokenCache, username, password string, timeout time.Duration) *Service {
	return &Service{
		orgs:     orgs,
		doctors:  doctors,
		patients: patients,
		cache:    cache,
		username: username,
		password: password,
		timeout:  timeout,
	}
}

func (s *Service) envConfigured() bool {
	return s.username != "" && s.password != ""
}

// clientFor resolves the organization's hospital client. It returns
// hospital.ErrNotConfigured when the organization has no enabled upstream or
// the process lacks credentials; org.ErrNotFound when the organization does
// not exist.
func (s *Service) clientFor(ctx context.Context, orgID uuid.UUID) (*hospital.Client, *org.Organization, error) {
	o, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	if !o.Settings.HospitalAPIConfigured() || !s.envConfigured() {
		return nil, o, hospital.ErrNotConfigured
	}
	client := hospital.NewClient(hospital.Credentials{
		BaseURL:  o.Settings.HospitalAPI.BaseURL,
		Username: s.username,
		Password: s.password,
	}, s.cache, s.timeout)
	return client, o, nil
}

// Status describes the hospital integration state for one organization.
type Status struct {
	Configured       bool   `json:"configured"`
	IsURLConfigured  bool   `json:"isUrlConfigured"`
	IsEnvConfigured  bool   `json:"isEnvConfigured"`
	Enabled          bool   `json:"enabled"`
	BaseURL          string `json:"baseUrl,omitempty"`
	OrganizationName string `json:"organizationName"`
}

// Status probes the integration configuration without calling upstream.
func (s *Service) Status(ctx context.Context, orgID uuid.UUID) (*Status, error) {
	o, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		IsEnvConfigured:  s.envConfigured(),
		OrganizationName: o.Name,
	}
	if api := o.Settings.HospitalAPI; api != nil {
		st.Enabled = api.Enabled
		st.BaseURL = api.BaseURL
		st.IsURLConfigured = api.Enabled && api.BaseURL != ""
	}
	st.Configured = st.IsURLConfigured && st.IsEnvConfigured
	return st, nil
}

// ParamedicPage is one reconciled page of upstream practitioners.
type ParamedicPage struct {
	Data       []ReconciledParamedic `json:"data"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"totalPages"`
}

// SearchParamedics fetches one upstream page and reconciles it against the
// organization's imported doctors.
func (s *Service) SearchParamedics(ctx context.Context, orgID uuid.UUID, page, limit int, search string) (*ParamedicPage, error) {
	client, _, err := s.clientFor(ctx, orgID)
	if err != nil {
		return nil, err
	}

	upstream, err := client.ListParamedics(ctx, page, limit, search)
	if err != nil {
		return nil, err
	}

	filtered := FilterParamedics(upstream.Data)
	local, err := s.doctors.ListByCodes(ctx, orgID, Codes(filtered))
	if err != nil {
		return nil, err
	}

	return &ParamedicPage{
		Data:       ReconcileParamedics(filtered, local),
		Total:      upstream.Total,
		Page:       upstream.Page,
		Limit:      upstream.Limit,
		TotalPages: upstream.TotalPages,
	}, nil
}

// ImportParamedic upserts one practitioner into the local registry, keyed by
// the upstream code. Repeating an import refreshes the name and nothing else.
func (s *Service) ImportParamedic(ctx context.Context, orgID uuid.UUID, code, name string) (*registry.Doctor, bool, error) {
	if code == "" || name == "" {
		return nil, false, fmt.Errorf("paramedicCode and name are required")
	}
	return s.doctors.UpsertByCode(ctx, orgID, code, name)
}

// PatientSearchResult merges local matches with upstream registrations. An
// upstream failure populates HospitalError instead of failing the search.
type PatientSearchResult struct {
	LocalPatients         []*registry.Patient            `json:"localPatients"`
	HospitalRegistrations []hospital.PatientRegistration `json:"hospitalRegistrations"`
	HospitalAPIEnabled    bool                           `json:"hospitalApiEnabled"`
	HospitalError         string                         `json:"hospitalError,omitempty"`
}

// SearchPatients checks the local registry first and enriches the result
// with upstream registrations when the integration is configured.
func (s *Service) SearchPatients(ctx context.Context, orgID uuid.UUID, query string, page, limit int) (*PatientSearchResult, error) {
	client, _, err := s.clientFor(ctx, orgID)
	if err != nil && !errors.Is(err, hospital.ErrNotConfigured) {
		return nil, err
	}
	enabled := err == nil

	local, err := s.patients.Search(ctx, orgID, query, limit)
	if err != nil {
		return nil, err
	}

	result := &PatientSearchResult{
		LocalPatients:         local,
		HospitalRegistrations: []hospital.PatientRegistration{},
		HospitalAPIEnabled:    enabled,
	}

	if enabled {
		upstream, err := client.SearchRegistrations(ctx, query, page, limit)
		if err != nil {
			log.Warn().Err(err).Str("org_id", orgID.String()).Msg("hospital registration search failed")
			result.HospitalError = err.Error()
		} else {
			result.HospitalRegistrations = upstream.Data
		}
	}
	return result, nil
}

// ImportPatientInput is the request payload for importing one upstream
// registration into the local registry.
type ImportPatientInput struct {
	MedicalNo      string `json:"medicalNo"`
	PatientName    string `json:"patientName"`
	PatientAddress string `json:"patientAddress"`
	Phone          string `json:"phone"`
	RegistrationNo string `json:"registrationNo"`
	ParamedicCode  string `json:"paramedicCode"`
	ParamedicName  string `json:"paramedicName"`
}

// ImportPatientResult reports what the import touched.
type ImportPatientResult struct {
	Patient        *registry.Patient `json:"patient"`
	Doctor         *registry.Doctor  `json:"doctor"`
	PatientCreated bool              `json:"-"`
}

// ImportPatient upserts the patient by medical record number and, when the
// registration names a practitioner, upserts that doctor too.
func (s *Service) ImportPatient(ctx context.Context, orgID uuid.UUID, in ImportPatientInput) (*ImportPatientResult, error) {
	if in.MedicalNo == "" || in.PatientName == "" {
		return nil, fmt.Errorf("medicalNo and patientName are required")
	}

	patient, created, err := s.patients.UpsertByMRNumber(ctx, orgID, registry.PatientImport{
		MRNumber:       in.MedicalNo,
		FullName:       in.PatientName,
		Address:        in.PatientAddress,
		Phone:          in.Phone,
		RegistrationNo: in.RegistrationNo,
	})
	if err != nil {
		return nil, err
	}

	result := &ImportPatientResult{Patient: patient, PatientCreated: created}

	if in.ParamedicCode != "" && in.ParamedicName != "" {
		doctor, _, err := s.doctors.UpsertByCode(ctx, orgID, in.ParamedicCode, in.ParamedicName)
		if err != nil {
			return nil, err
		}
		result.Doctor = doctor
	}
	return result, nil
}
