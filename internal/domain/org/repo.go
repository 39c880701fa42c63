package org

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an organization or membership does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the persistence interface for organizations.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Organization, int, error)
}

// MembershipRepository defines the persistence interface for memberships.
type MembershipRepository interface {
	Add(ctx context.Context, m *Membership) error
	Remove(ctx context.Context, userID, orgID uuid.UUID) error
	Get(ctx context.Context, userID, orgID uuid.UUID) (*Membership, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*UserOrganization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Membership, int, error)
}
