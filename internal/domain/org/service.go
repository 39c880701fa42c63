package org

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	nonSlugRunes = regexp.MustCompile(`[^a-z0-9]+`)
)

type Service struct {
	orgs    Repository
	members MembershipRepository
}

func NewService(orgs Repository, members MembershipRepository) *Service {
	return &Service{orgs: orgs, members: members}
}

func (s *Service) Create(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if o.Slug == "" {
		o.Slug = Slugify(o.Name)
	}
	if !slugPattern.MatchString(o.Slug) {
		return fmt.Errorf("invalid slug: %q", o.Slug)
	}
	o.IsActive = true
	return s.orgs.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	return s.orgs.GetBySlug(ctx, slug)
}

func (s *Service) Update(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if !slugPattern.MatchString(o.Slug) {
		return fmt.Errorf("invalid slug: %q", o.Slug)
	}
	return s.orgs.Update(ctx, o)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.orgs.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	return s.orgs.List(ctx, limit, offset)
}

// UpdateSettings replaces the organization's settings blob.
func (s *Service) UpdateSettings(ctx context.Context, id uuid.UUID, settings Settings) (*Organization, error) {
	o, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Settings = settings
	if err := s.orgs.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) AddMember(ctx context.Context, userID, orgID uuid.UUID, role string) (*Membership, error) {
	if role == "" {
		role = RoleMember
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %q", role)
	}
	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	m := &Membership{UserID: userID, OrganizationID: orgID, Role: role}
	if err := s.members.Add(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) RemoveMember(ctx context.Context, userID, orgID uuid.UUID) error {
	return s.members.Remove(ctx, userID, orgID)
}

func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Membership, int, error) {
	return s.members.ListMembers(ctx, orgID, limit, offset)
}

func (s *Service) OrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*UserOrganization, error) {
	return s.members.ListForUser(ctx, userID)
}

// Slugify derives a URL-safe slug from a name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugRunes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
