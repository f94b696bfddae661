package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// GetByID retrieves a single organization.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Organization, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM orgs
		WHERE id = $1`

	var o Organization
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.Name, &o.OwnerID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("querying org: %w", err)
	}

	return &o, nil
}

// ListForUser retrieves the organizations the user owns or belongs to.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Organization, error) {
	query := `
		SELECT o.id, o.name, o.owner_id, o.created_at
		FROM orgs o
		WHERE o.owner_id = $1
		   OR EXISTS (SELECT 1 FROM org_members m WHERE m.org_id = o.id AND m.user_id = $1)
		ORDER BY o.created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orgs: %w", err)
	}
	defer rows.Close()

	orgs := []Organization{}
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.OwnerID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning org row: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating org rows: %w", err)
	}

	return orgs, nil
}

// Delete removes an organization; members, invites and teams cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM orgs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting org: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrgNotFound
	}

	return nil
}

// GetMember retrieves a membership record. A missing record is not an error.
func (r *PostgresRepository) GetMember(ctx context.Context, orgID int64, userID uuid.UUID) (*Member, error) {
	query := `
		SELECT org_id, user_id, role, created_at
		FROM org_members
		WHERE org_id = $1 AND user_id = $2`

	var m Member
	err := r.pool.QueryRow(ctx, query, orgID, userID).Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying org member: %w", err)
	}

	return &m, nil
}

// ListMembers retrieves the members of an organization ordered by join time.
func (r *PostgresRepository) ListMembers(ctx context.Context, orgID int64) ([]Member, error) {
	query := `
		SELECT org_id, user_id, role, created_at
		FROM org_members
		WHERE org_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing org members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning org member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating org member rows: %w", err)
	}

	return members, nil
}

// CountMembers returns the number of members in an organization.
func (r *PostgresRepository) CountMembers(ctx context.Context, orgID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM org_members WHERE org_id = $1", orgID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting org members: %w", err)
	}
	return count, nil
}

// ListInvites retrieves pending invites of an organization.
func (r *PostgresRepository) ListInvites(ctx context.Context, orgID int64) ([]Invite, error) {
	query := `
		SELECT id, org_id, email, created_by, created_at
		FROM org_invites
		WHERE org_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}
	defer rows.Close()

	invites := []Invite{}
	for rows.Next() {
		var inv Invite
		if err := rows.Scan(&inv.ID, &inv.OrgID, &inv.Email, &inv.CreatedBy, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning invite row: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invite rows: %w", err)
	}

	return invites, nil
}

// CreateInvite inserts a new invite record.
func (r *PostgresRepository) CreateInvite(ctx context.Context, inv *Invite) error {
	query := `
		INSERT INTO org_invites (org_id, email, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, inv.OrgID, inv.Email, inv.CreatedBy).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicateInvite
			case "23503":
				return ErrOrgNotFound
			}
		}
		return fmt.Errorf("inserting invite: %w", err)
	}

	return nil
}
