// Package registry holds the organization-scoped clinical master data:
// doctors keyed by their hospital paramedic code and patients keyed by
// medical record number.
package registry

import (
	"time"

	"github.com/google/uuid"
)

// Age units for patients registered without a full date of birth.
const (
	AgeYears  = "years"
	AgeMonths = "months"
	AgeDays   = "days"
)

// Doctor is a practitioner. Code carries the upstream hospital's paramedic
// code and is unique within an organization.
type Doctor struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Code           string    `json:"doctorId"`
	NickName       string    `json:"nickName,omitempty"`
	FullName       string    `json:"fullName"`
	Address        string    `json:"address,omitempty"`
	Phone1         string    `json:"phone1,omitempty"`
	Phone2         string    `json:"phone2,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Patient is master data only; visits and clinical notes hang off
// registrations elsewhere. MRNumber is the hospital medical record number,
// ExternalRegistrationNo the last imported hospital registration reference.
type Patient struct {
	ID                     uuid.UUID  `json:"id"`
	OrganizationID         uuid.UUID  `json:"organizationId"`
	MRNumber               string     `json:"mrNumber,omitempty"`
	ExternalRegistrationNo string     `json:"externalRegistrationNo,omitempty"`
	FullName               string     `json:"fullName"`
	Phone                  string     `json:"phone,omitempty"`
	Age                    *int       `json:"age,omitempty"`
	AgeUnit                string     `json:"ageUnit,omitempty"`
	Nationality            string     `json:"nationality,omitempty"`
	Sex                    string     `json:"sex,omitempty"`
	DateOfBirth            *time.Time `json:"dateOfBirth,omitempty"`
	CurrentAddress         string     `json:"currentAddress,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}
