package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for audit entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
