package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the authenticated user state carried across requests. It is
// created at login (local or SSO) or organization switch and destroyed on
// logout.
type Session struct {
	UserID                  uuid.UUID  `json:"id"`
	Email                   string     `json:"email"`
	Name                    string     `json:"name"`
	IsSuperadmin            bool       `json:"isSuperadmin"`
	CurrentOrganizationID   *uuid.UUID `json:"currentOrganizationId,omitempty"`
	CurrentOrganizationSlug string     `json:"currentOrganizationSlug,omitempty"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email                   string `json:"email"`
	Name                    string `json:"name"`
	IsSuperadmin            bool   `json:"superadmin"`
	CurrentOrganizationID   string `json:"org_id,omitempty"`
	CurrentOrganizationSlug string `json:"org_slug,omitempty"`
}

// DefaultSessionTTL bounds how long a session cookie stays valid.
const DefaultSessionTTL = 24 * time.Hour

// SessionCodec signs and verifies session tokens. The token is an HS256 JWT;
// callers treat it as opaque.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionCodec(secret []byte, ttl time.Duration) *SessionCodec {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCodec{secret: secret, ttl: ttl, now: time.Now}
}

// Encode signs the session into a compact token.
func (sc *SessionCodec) Encode(s *Session) (string, error) {
	now := sc.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sc.ttl)),
		},
		Email:                   s.Email,
		Name:                    s.Name,
		IsSuperadmin:            s.IsSuperadmin,
		CurrentOrganizationSlug: s.CurrentOrganizationSlug,
	}
	if s.CurrentOrganizationID != nil {
		claims.CurrentOrganizationID = s.CurrentOrganizationID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sc.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Decode verifies a session token and reconstructs the session.
func (sc *SessionCodec) Decode(token string) (*Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return sc.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(sc.now))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("session subject is not a user id: %w", err)
	}

	s := &Session{
		UserID:                  userID,
		Email:                   claims.Email,
		Name:                    claims.Name,
		IsSuperadmin:            claims.IsSuperadmin,
		CurrentOrganizationSlug: claims.CurrentOrganizationSlug,
	}
	if claims.CurrentOrganizationID != "" {
		orgID, err := uuid.Parse(claims.CurrentOrganizationID)
		if err != nil {
			return nil, fmt.Errorf("session org id is malformed: %w", err)
		}
		s.CurrentOrganizationID = &orgID
	}
	return s, nil
}
