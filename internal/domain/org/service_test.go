package org

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockOrgRepo struct {
	orgs map[uuid.UUID]*Organization
}

func newMockOrgRepo() *mockOrgRepo {
	return &mockOrgRepo{orgs: make(map[uuid.UUID]*Organization)}
}

func (m *mockOrgRepo) Create(_ context.Context, o *Organization) error {
	o.ID = uuid.New()
	m.orgs[o.ID] = o
	return nil
}

func (m *mockOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrgRepo) GetBySlug(_ context.Context, slug string) (*Organization, error) {
	for _, o := range m.orgs {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrgRepo) Update(_ context.Context, o *Organization) error {
	if _, ok := m.orgs[o.ID]; !ok {
		return ErrNotFound
	}
	m.orgs[o.ID] = o
	return nil
}

func (m *mockOrgRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.orgs[id]; !ok {
		return ErrNotFound
	}
	delete(m.orgs, id)
	return nil
}

func (m *mockOrgRepo) List(_ context.Context, limit, offset int) ([]*Organization, int, error) {
	var all []*Organization
	for _, o := range m.orgs {
		all = append(all, o)
	}
	return all, len(all), nil
}

type mockMembershipRepo struct {
	memberships []*Membership
	orgs        *mockOrgRepo
}

func (m *mockMembershipRepo) Add(_ context.Context, mem *Membership) error {
	mem.ID = uuid.New()
	m.memberships = append(m.memberships, mem)
	return nil
}

func (m *mockMembershipRepo) Remove(_ context.Context, userID, orgID uuid.UUID) error {
	for i, mem := range m.memberships {
		if mem.UserID == userID && mem.OrganizationID == orgID {
			m.memberships = append(m.memberships[:i], m.memberships[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockMembershipRepo) Get(_ context.Context, userID, orgID uuid.UUID) (*Membership, error) {
	for _, mem := range m.memberships {
		if mem.UserID == userID && mem.OrganizationID == orgID {
			return mem, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockMembershipRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*UserOrganization, error) {
	var orgs []*UserOrganization
	for _, mem := range m.memberships {
		if mem.UserID != userID {
			continue
		}
		uo := &UserOrganization{ID: mem.OrganizationID, Role: mem.Role}
		if m.orgs != nil {
			if o, ok := m.orgs.orgs[mem.OrganizationID]; ok {
				uo.Name = o.Name
				uo.Slug = o.Slug
			}
		}
		orgs = append(orgs, uo)
	}
	return orgs, nil
}

func (m *mockMembershipRepo) ListMembers(_ context.Context, orgID uuid.UUID, limit, offset int) ([]*Membership, int, error) {
	var members []*Membership
	for _, mem := range m.memberships {
		if mem.OrganizationID == orgID {
			members = append(members, mem)
		}
	}
	return members, len(members), nil
}

func newTestService() (*Service, *mockOrgRepo, *mockMembershipRepo) {
	orgs := newMockOrgRepo()
	members := &mockMembershipRepo{orgs: orgs}
	return NewService(orgs, members), orgs, members
}

func TestCreate_RequiresName(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Create(context.Background(), &Organization{}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreate_DerivesSlug(t *testing.T) {
	svc, _, _ := newTestService()
	o := &Organization{Name: "RSIA Bunda Jakarta"}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Slug != "rsia-bunda-jakarta" {
		t.Errorf("unexpected slug %q", o.Slug)
	}
	if !o.IsActive {
		t.Error("new organizations must start active")
	}
}

func TestCreate_RejectsBadSlug(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Create(context.Background(), &Organization{Name: "X", Slug: "Bad Slug!"})
	if err == nil {
		t.Error("expected error for invalid slug")
	}
}

func TestUpdateSettings(t *testing.T) {
	svc, _, _ := newTestService()
	o := &Organization{Name: "RSIA", Slug: "rsia"}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateSettings(context.Background(), o.ID, Settings{
		HospitalAPI: &HospitalAPISettings{Enabled: true, BaseURL: "https://api.rsia.example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Settings.HospitalAPIConfigured() {
		t.Error("expected hospital api to be configured")
	}
}

func TestUpdateSettings_UnknownOrg(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.UpdateSettings(context.Background(), uuid.New(), Settings{}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddMember(t *testing.T) {
	svc, _, members := newTestService()
	o := &Organization{Name: "RSIA", Slug: "rsia"}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	userID := uuid.New()
	m, err := svc.AddMember(context.Background(), userID, o.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Role != RoleMember {
		t.Errorf("expected default role member, got %q", m.Role)
	}
	if len(members.memberships) != 1 {
		t.Errorf("expected one membership, got %d", len(members.memberships))
	}
}

func TestAddMember_InvalidRole(t *testing.T) {
	svc, _, _ := newTestService()
	o := &Organization{Name: "RSIA", Slug: "rsia"}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddMember(context.Background(), uuid.New(), o.ID, "boss"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestAddMember_UnknownOrg(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.AddMember(context.Background(), uuid.New(), uuid.New(), RoleAdmin); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHospitalAPIConfigured(t *testing.T) {
	cases := []struct {
		name     string
		settings Settings
		want     bool
	}{
		{"nil", Settings{}, false},
		{"disabled", Settings{HospitalAPI: &HospitalAPISettings{Enabled: false, BaseURL: "https://x"}}, false},
		{"no base url", Settings{HospitalAPI: &HospitalAPISettings{Enabled: true}}, false},
		{"configured", Settings{HospitalAPI: &HospitalAPISettings{Enabled: true, BaseURL: "https://x"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.settings.HospitalAPIConfigured(); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"RSIA Bunda Jakarta": "rsia-bunda-jakarta",
		"  Trim Me  ":        "trim-me",
		"Already-Good":       "already-good",
		"A & B Clinic":       "a-b-clinic",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
