package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ripac/ripac/internal/domain/org"
	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/internal/platform/sso"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so responses do not reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSSOOnly means the account has no password and must log in via SSO.
	ErrSSOOnly = errors.New("this account uses sso login")
	// ErrInactive means the account has been deactivated.
	ErrInactive = errors.New("account deactivated")
	// ErrNotMember means the user has no membership in the target organization.
	ErrNotMember = errors.New("no access to this organization")
	// ErrOrgNotFound means the target organization does not exist.
	ErrOrgNotFound = errors.New("organization not found")
)

type Service struct {
	users   Repository
	orgs    org.Repository
	members org.MembershipRepository
}

func NewService(users Repository, orgs org.Repository, members org.MembershipRepository) *Service {
	return &Service{users: users, orgs: orgs, members: members}
}

// Login authenticates by email and password and returns the session to issue.
func (s *Service) Login(ctx context.Context, email, password string) (*auth.Session, *Profile, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if u.PasswordHash == nil {
		return nil, nil, ErrSSOOnly
	}
	if !VerifyPassword(password, *u.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, nil, ErrInactive
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}

	return s.issue(ctx, u)
}

// CompleteSSOLogin resolves a provider identity to a local user, creating or
// linking one if needed, and returns the session to issue. Resolution order:
// provider subject, then email, then a new account.
func (s *Service) CompleteSSOLogin(ctx context.Context, id *sso.Identity) (*auth.Session, *Profile, error) {
	u, err := s.users.GetBySSOSubject(ctx, sso.ProviderID, id.Subject)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	if u == nil {
		u, err = s.users.GetByEmail(ctx, id.Email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, nil, err
		}
		if u != nil {
			if err := s.users.LinkSSO(ctx, u.ID, sso.ProviderID, id.Subject); err != nil {
				return nil, nil, err
			}
		}
	}

	if u == nil {
		providerID := sso.ProviderID
		subject := id.Subject
		u = &User{
			Email:         id.Email,
			Name:          id.DisplayName(),
			SSOProviderID: &providerID,
			SSOSubject:    &subject,
			IsActive:      true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, nil, err
		}
	}

	if !u.IsActive {
		return nil, nil, ErrInactive
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}

	return s.issue(ctx, u)
}

// Profile loads a user and their organization memberships.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	orgs, err := s.members.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsSuperadmin:  u.IsSuperadmin,
		Organizations: orgs,
	}, nil
}

// SwitchOrganization moves the session to another organization. Members may
// switch only to organizations they belong to; superadmins may switch to any
// existing organization.
func (s *Service) SwitchOrganization(ctx context.Context, current *auth.Session, orgID uuid.UUID) (*auth.Session, error) {
	profile, err := s.Profile(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	var slug string
	found := false
	for _, o := range profile.Organizations {
		if o.ID == orgID {
			slug = o.Slug
			found = true
			break
		}
	}

	if !found {
		if !profile.IsSuperadmin {
			return nil, ErrNotMember
		}
		target, err := s.orgs.GetByID(ctx, orgID)
		if errors.Is(err, org.ErrNotFound) {
			return nil, ErrOrgNotFound
		}
		if err != nil {
			return nil, err
		}
		slug = target.Slug
	}

	next := *current
	next.CurrentOrganizationID = &orgID
	next.CurrentOrganizationSlug = slug
	return &next, nil
}

// issue builds the session for a freshly authenticated user. The first
// membership becomes the active organization; users without memberships get a
// session with no organization selected.
func (s *Service) issue(ctx context.Context, u *User) (*auth.Session, *Profile, error) {
	orgs, err := s.members.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}

	session := &auth.Session{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsSuperadmin: u.IsSuperadmin,
	}
	if len(orgs) > 0 {
		session.CurrentOrganizationID = &orgs[0].ID
		session.CurrentOrganizationSlug = orgs[0].Slug
	}

	profile := &Profile{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsSuperadmin:  u.IsSuperadmin,
		Organizations: orgs,
	}
	return session, profile, nil
}
