package org

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles, ordered from most to least privileged.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleMember   = "member"
	RoleReadonly = "readonly"
)

// HospitalAPISettings controls the per-organization link to an upstream
// hospital system. Credentials are process-wide; only the endpoint and the
// enabled flag live here.
type HospitalAPISettings struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"baseUrl"`
}

// Settings is the free-form organization configuration stored as JSONB.
type Settings struct {
	Theme       string               `json:"theme,omitempty"`
	Timezone    string               `json:"timezone,omitempty"`
	DateFormat  string               `json:"dateFormat,omitempty"`
	HospitalAPI *HospitalAPISettings `json:"hospitalApi,omitempty"`
}

// HospitalAPIConfigured reports whether the organization points at an
// enabled upstream hospital system.
func (s Settings) HospitalAPIConfigured() bool {
	return s.HospitalAPI != nil && s.HospitalAPI.Enabled && s.HospitalAPI.BaseURL != ""
}

// Organization is one tenant. All clinical records hang off its ID.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Address     string    `json:"address,omitempty"`
	Settings    Settings  `json:"settings"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Membership links a user to an organization with a role.
type Membership struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"userId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Role           string     `json:"role"`
	InvitedAt      *time.Time `json:"invitedAt,omitempty"`
	JoinedAt       *time.Time `json:"joinedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserOrganization is the membership view used for sessions and the
// organization picker: the organization plus the user's role in it.
type UserOrganization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Role string    `json:"role"`
}

// ValidRole reports whether role is one of the defined membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleReadonly:
		return true
	}
	return false
}
