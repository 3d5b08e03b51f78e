package assignment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetdesk/assetdesk/internal/platform/db"
	"github.com/assetdesk/assetdesk/internal/shared"
)

// Snapshot is the authorization-relevant slice of a principal's state used by
// the assignment transaction.
type Snapshot struct {
	ID                int64
	Staff             bool
	Superuser         bool
	GroupIDs          []int64
	DirectPermissions []int64
}

// Repository runs role assignment writes.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository is the transactional view: every call inside one WithTx
// belongs to the same storage transaction, so the whole assignment commits or
// rolls back as a unit.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Snapshot, error)
	ApplyFlags(ctx context.Context, id int64, staff, superuser *bool) error
	ReplaceGroups(ctx context.Context, id int64, groupIDs []int64) error
	ReplaceDirectPermissions(ctx context.Context, id int64, permissionIDs []int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// WithTx executes fn inside one transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// GetForUpdate row-locks the principal so concurrent assignments against the
// same account serialize at the storage layer.
func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (*Snapshot, error) {
	var snap Snapshot
	err := r.tx.QueryRow(ctx, `
		SELECT id, is_staff, is_superuser,
			COALESCE(ARRAY(SELECT pg.group_id FROM principal_groups pg WHERE pg.principal_id = principals.id ORDER BY pg.group_id), '{}'),
			COALESCE(ARRAY(SELECT pp.permission_id FROM principal_permissions pp WHERE pp.principal_id = principals.id ORDER BY pp.permission_id), '{}')
		FROM principals WHERE id = $1 FOR UPDATE OF principals`, id).
		Scan(&snap.ID, &snap.Staff, &snap.Superuser, &snap.GroupIDs, &snap.DirectPermissions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// ApplyFlags writes the provided flags and bumps updated_at. Called for every
// assignment, so updated_at moves even when only edges changed.
func (r *txRepository) ApplyFlags(ctx context.Context, id int64, staff, superuser *bool) error {
	query := `UPDATE principals SET updated_at = NOW()`
	var args []any
	if staff != nil {
		args = append(args, *staff)
		query += `, is_staff = $1`
	}
	if superuser != nil {
		args = append(args, *superuser)
		if len(args) == 1 {
			query += `, is_superuser = $1`
		} else {
			query += `, is_superuser = $2`
		}
	}
	switch len(args) {
	case 0:
		query += ` WHERE id = $1`
	case 1:
		query += ` WHERE id = $2`
	default:
		query += ` WHERE id = $3`
	}
	args = append(args, id)
	_, err := r.tx.Exec(ctx, query, args...)
	return err
}

// ReplaceGroups replaces the principal's membership edges with the given set.
func (r *txRepository) ReplaceGroups(ctx context.Context, id int64, groupIDs []int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM principal_groups WHERE principal_id = $1`, id); err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `
		INSERT INTO principal_groups (principal_id, group_id, created_at)
		SELECT $1, g.id, NOW() FROM unnest($2::bigint[]) AS g(id)
		ON CONFLICT DO NOTHING`, id, groupIDs)
	return err
}

// ReplaceDirectPermissions replaces the principal's direct grants.
func (r *txRepository) ReplaceDirectPermissions(ctx context.Context, id int64, permissionIDs []int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM principal_permissions WHERE principal_id = $1`, id); err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `
		INSERT INTO principal_permissions (principal_id, permission_id, created_at)
		SELECT $1, p.id, NOW() FROM unnest($2::bigint[]) AS p(id)
		ON CONFLICT DO NOTHING`, id, permissionIDs)
	return err
}
