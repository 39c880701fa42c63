package account

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/ripac/ripac/internal/domain/org"
)

// User is an authenticated person. PasswordHash is nil for SSO-only accounts.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	PasswordHash    *string    `json:"-"`
	SSOProviderID   *string    `json:"ssoProviderId,omitempty"`
	SSOSubject      *string    `json:"-"`
	IsSuperadmin    bool       `json:"isSuperadmin"`
	IsActive        bool       `json:"isActive"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Profile is the authenticated user plus their organization memberships, as
// returned by the me endpoint and used to seed sessions.
type Profile struct {
	ID            uuid.UUID               `json:"id"`
	Email         string                  `json:"email"`
	Name          string                  `json:"name"`
	IsSuperadmin  bool                    `json:"isSuperadmin"`
	Organizations []*org.UserOrganization `json:"organizations"`
}

// HashPassword digests a plaintext password to its stored form. The digest
// must stay in sync with the seeder.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a plaintext candidate against a stored digest in
// constant time.
func VerifyPassword(password, hash string) bool {
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
