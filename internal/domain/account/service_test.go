package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ripac/ripac/internal/domain/org"
	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/internal/platform/sso"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) GetBySSOSubject(_ context.Context, providerID, subject string) (*User, error) {
	for _, u := range m.users {
		if u.SSOProviderID != nil && *u.SSOProviderID == providerID &&
			u.SSOSubject != nil && *u.SSOSubject == subject {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) LinkSSO(_ context.Context, id uuid.UUID, providerID, subject string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.SSOProviderID = &providerID
	u.SSOSubject = &subject
	return nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID) error { return nil }

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var all []*User
	for _, u := range m.users {
		all = append(all, u)
	}
	return all, len(all), nil
}

type mockOrgRepo struct {
	orgs map[uuid.UUID]*org.Organization
}

func (m *mockOrgRepo) Create(_ context.Context, o *org.Organization) error {
	o.ID = uuid.New()
	m.orgs[o.ID] = o
	return nil
}
func (m *mockOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*org.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, org.ErrNotFound
	}
	return o, nil
}
func (m *mockOrgRepo) GetBySlug(_ context.Context, slug string) (*org.Organization, error) {
	for _, o := range m.orgs {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, org.ErrNotFound
}
func (m *mockOrgRepo) Update(_ context.Context, o *org.Organization) error { return nil }
func (m *mockOrgRepo) Delete(_ context.Context, id uuid.UUID) error       { return nil }
func (m *mockOrgRepo) List(_ context.Context, limit, offset int) ([]*org.Organization, int, error) {
	return nil, 0, nil
}

type mockMembershipRepo struct {
	byUser map[uuid.UUID][]*org.UserOrganization
}

func (m *mockMembershipRepo) Add(_ context.Context, mem *org.Membership) error { return nil }
func (m *mockMembershipRepo) Remove(_ context.Context, userID, orgID uuid.UUID) error {
	return nil
}
func (m *mockMembershipRepo) Get(_ context.Context, userID, orgID uuid.UUID) (*org.Membership, error) {
	return nil, org.ErrNotFound
}
func (m *mockMembershipRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*org.UserOrganization, error) {
	return m.byUser[userID], nil
}
func (m *mockMembershipRepo) ListMembers(_ context.Context, orgID uuid.UUID, limit, offset int) ([]*org.Membership, int, error) {
	return nil, 0, nil
}

type fixture struct {
	svc     *Service
	users   *mockUserRepo
	orgs    *mockOrgRepo
	members *mockMembershipRepo
}

func newFixture() *fixture {
	users := newMockUserRepo()
	orgs := &mockOrgRepo{orgs: make(map[uuid.UUID]*org.Organization)}
	members := &mockMembershipRepo{byUser: make(map[uuid.UUID][]*org.UserOrganization)}
	return &fixture{
		svc:     NewService(users, orgs, members),
		users:   users,
		orgs:    orgs,
		members: members,
	}
}

func (f *fixture) addUser(t *testing.T, email, password string, active bool) *User {
	t.Helper()
	u := &User{Email: email, Name: "Test User", IsActive: active}
	if password != "" {
		hash := HashPassword(password)
		u.PasswordHash = &hash
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (f *fixture) addMembership(userID uuid.UUID, name, slug string) uuid.UUID {
	orgID := uuid.New()
	f.orgs.orgs[orgID] = &org.Organization{ID: orgID, Name: name, Slug: slug, IsActive: true}
	f.members.byUser[userID] = append(f.members.byUser[userID],
		&org.UserOrganization{ID: orgID, Name: name, Slug: slug, Role: org.RoleMember})
	return orgID
}

func TestLogin(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "ani@example.com", "rahasia", true)
	orgID := f.addMembership(u.ID, "RSIA", "rsia")

	session, profile, err := f.svc.Login(context.Background(), "ani@example.com", "rahasia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != u.ID {
		t.Error("session user mismatch")
	}
	if session.CurrentOrganizationID == nil || *session.CurrentOrganizationID != orgID {
		t.Error("expected first membership to become the active organization")
	}
	if session.CurrentOrganizationSlug != "rsia" {
		t.Errorf("unexpected slug %q", session.CurrentOrganizationSlug)
	}
	if len(profile.Organizations) != 1 {
		t.Errorf("expected one organization in profile, got %d", len(profile.Organizations))
	}
}

func TestLogin_NoMemberships(t *testing.T) {
	f := newFixture()
	f.addUser(t, "solo@example.com", "pw", true)

	session, _, err := f.svc.Login(context.Background(), "solo@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.CurrentOrganizationID != nil {
		t.Error("expected no active organization")
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture()
	f.addUser(t, "ani@example.com", "rahasia", true)
	f.addUser(t, "sso@example.com", "", true)
	f.addUser(t, "off@example.com", "pw", false)

	cases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "ghost@example.com", "pw", ErrInvalidCredentials},
		{"wrong password", "ani@example.com", "salah", ErrInvalidCredentials},
		{"sso only", "sso@example.com", "pw", ErrSSOOnly},
		{"inactive", "off@example.com", "pw", ErrInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.Login(context.Background(), tc.email, tc.password)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCompleteSSOLogin_FindsBySubject(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "ani@example.com", "", true)
	provider := sso.ProviderID
	subject := "sub-1"
	u.SSOProviderID = &provider
	u.SSOSubject = &subject

	session, _, err := f.svc.CompleteSSOLogin(context.Background(), &sso.Identity{
		Subject: "sub-1", Email: "changed@example.com", Name: "Ani",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != u.ID {
		t.Error("expected subject match to win over email")
	}
	if len(f.users.users) != 1 {
		t.Error("no new user should be created")
	}
}

func TestCompleteSSOLogin_LinksByEmail(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "ani@example.com", "pw", true)

	session, _, err := f.svc.CompleteSSOLogin(context.Background(), &sso.Identity{
		Subject: "sub-9", Email: "ani@example.com", Name: "Ani",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != u.ID {
		t.Error("expected existing account to be reused")
	}
	if u.SSOSubject == nil || *u.SSOSubject != "sub-9" {
		t.Error("expected sso identity to be linked")
	}
	if u.SSOProviderID == nil || *u.SSOProviderID != sso.ProviderID {
		t.Error("expected provider id to be linked")
	}
}

func TestCompleteSSOLogin_CreatesUser(t *testing.T) {
	f := newFixture()

	session, profile, err := f.svc.CompleteSSOLogin(context.Background(), &sso.Identity{
		Subject: "sub-new", Email: "new@example.com", PreferredUsername: "newbie",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, err := f.users.GetByID(context.Background(), session.UserID)
	if err != nil {
		t.Fatal("expected user to be created")
	}
	if created.Name != "newbie" {
		t.Errorf("expected preferred_username as name, got %q", created.Name)
	}
	if !created.IsActive {
		t.Error("new sso users must start active")
	}
	if session.CurrentOrganizationID != nil || len(profile.Organizations) != 0 {
		t.Error("fresh sso users have no organizations")
	}
}

func TestCompleteSSOLogin_InactiveRejected(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "off@example.com", "", false)
	provider := sso.ProviderID
	subject := "sub-off"
	u.SSOProviderID = &provider
	u.SSOSubject = &subject

	_, _, err := f.svc.CompleteSSOLogin(context.Background(), &sso.Identity{Subject: "sub-off", Email: "off@example.com"})
	if !errors.Is(err, ErrInactive) {
		t.Errorf("expected ErrInactive, got %v", err)
	}
}

func TestSwitchOrganization_Member(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "ani@example.com", "pw", true)
	first := f.addMembership(u.ID, "RSIA", "rsia")
	second := f.addMembership(u.ID, "BROS", "bros")

	session := &auth.Session{UserID: u.ID, Email: u.Email, CurrentOrganizationID: &first, CurrentOrganizationSlug: "rsia"}
	next, err := f.svc.SwitchOrganization(context.Background(), session, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *next.CurrentOrganizationID != second || next.CurrentOrganizationSlug != "bros" {
		t.Errorf("unexpected session: %+v", next)
	}
	// Original session must be untouched.
	if *session.CurrentOrganizationID != first {
		t.Error("input session must not be mutated")
	}
}

func TestSwitchOrganization_NonMemberForbidden(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "ani@example.com", "pw", true)
	otherOrg := uuid.New()
	f.orgs.orgs[otherOrg] = &org.Organization{ID: otherOrg, Name: "Other", Slug: "other"}

	session := &auth.Session{UserID: u.ID}
	if _, err := f.svc.SwitchOrganization(context.Background(), session, otherOrg); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestSwitchOrganization_SuperadminBypass(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "root@example.com", "pw", true)
	u.IsSuperadmin = true
	otherOrg := uuid.New()
	f.orgs.orgs[otherOrg] = &org.Organization{ID: otherOrg, Name: "Other", Slug: "other"}

	session := &auth.Session{UserID: u.ID, IsSuperadmin: true}
	next, err := f.svc.SwitchOrganization(context.Background(), session, otherOrg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.CurrentOrganizationSlug != "other" {
		t.Errorf("expected slug lookup for superadmin, got %q", next.CurrentOrganizationSlug)
	}
}

func TestSwitchOrganization_SuperadminUnknownOrg(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "root@example.com", "pw", true)
	u.IsSuperadmin = true

	session := &auth.Session{UserID: u.ID, IsSuperadmin: true}
	if _, err := f.svc.SwitchOrganization(context.Background(), session, uuid.New()); !errors.Is(err, ErrOrgNotFound) {
		t.Errorf("expected ErrOrgNotFound, got %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash := HashPassword("rahasia")
	if !VerifyPassword("rahasia", hash) {
		t.Error("expected matching password to verify")
	}
	if VerifyPassword("salah", hash) {
		t.Error("expected wrong password to fail")
	}
}
