package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// Repository defines the persistence interface for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetBySSOSubject(ctx context.Context, providerID, subject string) (*User, error)
	Update(ctx context.Context, u *User) error
	LinkSSO(ctx context.Context, id uuid.UUID, providerID, subject string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}
