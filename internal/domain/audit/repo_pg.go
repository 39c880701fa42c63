package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ripac/ripac/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()

	var changes []byte
	if e.Changes != nil {
		var err error
		changes, err = json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("encode changes: %w", err)
		}
	}

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, organization_id, action, entity_type, entity_id,
			changes, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.UserID, e.OrganizationID, e.Action, e.EntityType, e.EntityID,
		changes, e.IPAddress, e.UserAgent,
	)
	return err
}

func (r *repoPG) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, user_id, organization_id, action, entity_type, entity_id,
			changes, ip_address, user_agent, created_at
		FROM audit_logs WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrganizationID, &e.Action, &e.EntityType, &e.EntityID,
			&changes, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, 0, fmt.Errorf("decode changes: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}
