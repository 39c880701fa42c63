package org

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ripac/ripac/internal/platform/db"
)

// queryable abstracts pgxpool.Pool and pgx.Tx.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- Organization Repository --

const orgColumns = `id, name, slug, description, logo, address, settings, is_active, created_at, updated_at`

type orgRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &orgRepoPG{pool: pool}
}

func (r *orgRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *orgRepoPG) Create(ctx context.Context, o *Organization) error {
	o.ID = uuid.New()
	settings, err := json.Marshal(o.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO organizations (id, name, slug, description, logo, address, settings, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.Name, o.Slug, o.Description, o.Logo, o.Address, settings, o.IsActive,
	)
	return err
}

func (r *orgRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return r.scanOrg(r.conn(ctx).QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

func (r *orgRepoPG) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	return r.scanOrg(r.conn(ctx).QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
}

func (r *orgRepoPG) Update(ctx context.Context, o *Organization) error {
	settings, err := json.Marshal(o.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE organizations SET
			name = $2, slug = $3, description = $4, logo = $5, address = $6,
			settings = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1`,
		o.ID, o.Name, o.Slug, o.Description, o.Logo, o.Address, settings, o.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orgRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orgRepoPG) List(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orgColumns+` FROM organizations ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []*Organization
	for rows.Next() {
		o, err := r.scanOrgRow(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, o)
	}
	return orgs, total, rows.Err()
}

func (r *orgRepoPG) scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	var settings []byte
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Logo, &o.Address,
		&settings, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &o.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return &o, nil
}

func (r *orgRepoPG) scanOrgRow(rows pgx.Rows) (*Organization, error) {
	var o Organization
	var settings []byte
	err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Logo, &o.Address,
		&settings, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &o.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return &o, nil
}

// -- Membership Repository --

type membershipRepoPG struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepoPG{pool: pool}
}

func (r *membershipRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *membershipRepoPG) Add(ctx context.Context, m *Membership) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO memberships (id, user_id, organization_id, role, invited_at, joined_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		m.ID, m.UserID, m.OrganizationID, m.Role, m.InvitedAt, m.JoinedAt,
	)
	return err
}

func (r *membershipRepoPG) Remove(ctx context.Context, userID, orgID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND organization_id = $2`, userID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *membershipRepoPG) Get(ctx context.Context, userID, orgID uuid.UUID) (*Membership, error) {
	var m Membership
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, organization_id, role, invited_at, joined_at, created_at, updated_at
		FROM memberships WHERE user_id = $1 AND organization_id = $2`, userID, orgID,
	).Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.InvitedAt, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*UserOrganization, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT o.id, o.name, o.slug, m.role
		FROM memberships m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1
		ORDER BY m.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*UserOrganization
	for rows.Next() {
		var uo UserOrganization
		if err := rows.Scan(&uo.ID, &uo.Name, &uo.Slug, &uo.Role); err != nil {
			return nil, err
		}
		orgs = append(orgs, &uo)
	}
	return orgs, rows.Err()
}

func (r *membershipRepoPG) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Membership, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, user_id, organization_id, role, invited_at, joined_at, created_at, updated_at
		FROM memberships WHERE organization_id = $1
		ORDER BY created_at LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role,
			&m.InvitedAt, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		members = append(members, &m)
	}
	return members, total, rows.Err()
}
