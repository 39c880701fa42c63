package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionLogout = "logout"
	ActionView   = "view"
	ActionExport = "export"
)

// Changes captures the before/after snapshot of a mutation.
type Changes struct {
	Before map[string]interface{} `json:"before,omitempty"`
	After  map[string]interface{} `json:"after,omitempty"`
	Fields []string               `json:"fields,omitempty"`
}

// Entry is one audit trail record.
type Entry struct {
	ID             uuid.UUID  `json:"id"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	Action         string     `json:"action"`
	EntityType     string     `json:"entityType"`
	EntityID       *uuid.UUID `json:"entityId,omitempty"`
	Changes        *Changes   `json:"changes,omitempty"`
	IPAddress      string     `json:"ipAddress,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
