package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// Repository defines persistence operations for the permission catalog and
// group definitions.
type Repository interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	UpsertPermission(ctx context.Context, p Permission) (Permission, error)
	PermissionsByIDs(ctx context.Context, ids []int64) ([]Permission, error)
	MissingPermissionIDs(ctx context.Context, ids []int64) ([]int64, error)

	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id int64) (Group, error)
	GetGroupByName(ctx context.Context, name string) (Group, error)
	CreateGroup(ctx context.Context, name, description string) (Group, error)
	UpdateGroup(ctx context.Context, id int64, name, description string) (Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	MissingGroupIDs(ctx context.Context, ids []int64) ([]int64, error)

	GroupPermissions(ctx context.Context, groupID int64) ([]Permission, error)
	GroupsPermissions(ctx context.Context, groupIDs []int64) (map[int64][]Permission, error)
	AttachPermission(ctx context.Context, groupID, permissionID int64) error
	DetachPermission(ctx context.Context, groupID, permissionID int64) error
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

const permissionColumns = `id, scope, resource, action, label`

// ListPermissions returns the full catalog ordered by code.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY scope, resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// GetPermission fetches a permission by id.
func (r *PGRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.Scope, &p.Resource, &p.Action, &p.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// UpsertPermission inserts the permission or refreshes its label when the
// triple already exists. Used by the seeder only; permissions are never
// created through request handling.
func (r *PGRepository) UpsertPermission(ctx context.Context, p Permission) (Permission, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (scope, resource, action, label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope, resource, action) DO UPDATE SET label = EXCLUDED.label
		RETURNING `+permissionColumns,
		p.Scope, p.Resource, p.Action, p.Label,
	).Scan(&p.ID, &p.Scope, &p.Resource, &p.Action, &p.Label)
	if err != nil {
		return Permission{}, err
	}
	return p, nil
}

// PermissionsByIDs fetches the catalog entries for the given ids. Unknown ids
// are silently absent from the result.
func (r *PGRepository) PermissionsByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = ANY($1) ORDER BY scope, resource, action`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// MissingPermissionIDs returns the subset of ids with no catalog entry.
func (r *PGRepository) MissingPermissionIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return r.missingIDs(ctx, `permissions`, ids)
}

// PermissionCodesByIDs implements authz.CatalogSource for direct grants.
func (r *PGRepository) PermissionCodesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	perms, err := r.PermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, p.Code())
	}
	return codes, nil
}

// GroupsPermissionCodes implements authz.CatalogSource for group
// contributions. Every requested group appears in the result, empty or not.
func (r *PGRepository) GroupsPermissionCodes(ctx context.Context, groupIDs []int64) (map[int64][]string, error) {
	grouped, err := r.GroupsPermissions(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[int64][]string, len(grouped))
	for id, perms := range grouped {
		codes := make([]string, 0, len(perms))
		for _, p := range perms {
			codes = append(codes, p.Code())
		}
		result[id] = codes
	}
	return result, nil
}

const groupColumns = `id, name, description, created_at, updated_at`

// ListGroups returns all groups ordered by name.
func (r *PGRepository) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup fetches a group by id.
func (r *PGRepository) GetGroup(ctx context.Context, id int64) (Group, error) {
	return r.getGroup(ctx, `id = $1`, id)
}

// GetGroupByName fetches a group by its unique name.
func (r *PGRepository) GetGroupByName(ctx context.Context, name string) (Group, error) {
	return r.getGroup(ctx, `name = $1`, name)
}

func (r *PGRepository) getGroup(ctx context.Context, where string, arg any) (Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE `+where, arg).
		Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, shared.ErrNotFound
		}
		return Group{}, err
	}
	return g, nil
}

// CreateGroup inserts a new group.
func (r *PGRepository) CreateGroup(ctx context.Context, name, description string) (Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `
		INSERT INTO groups (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING `+groupColumns,
		name, description,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Group{}, fmt.Errorf("%w: group name %q", shared.ErrDuplicate, name)
		}
		return Group{}, err
	}
	return g, nil
}

// UpdateGroup renames or redescribes an existing group.
func (r *PGRepository) UpdateGroup(ctx context.Context, id int64, name, description string) (Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx, `
		UPDATE groups SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+groupColumns,
		id, name, description,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, shared.ErrNotFound
		}
		if isUniqueViolation(err) {
			return Group{}, fmt.Errorf("%w: group name %q", shared.ErrDuplicate, name)
		}
		return Group{}, err
	}
	return g, nil
}

// DeleteGroup removes a group. Membership edges cascade away; the referenced
// permissions stay in the catalog.
func (r *PGRepository) DeleteGroup(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MissingGroupIDs returns the subset of ids with no group record.
func (r *PGRepository) MissingGroupIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return r.missingIDs(ctx, `groups`, ids)
}

// GroupPermissions returns the permission set of one group.
func (r *PGRepository) GroupPermissions(ctx context.Context, groupID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.scope, p.resource, p.action, p.label
		FROM permissions p
		JOIN group_permissions gp ON gp.permission_id = p.id
		WHERE gp.group_id = $1
		ORDER BY p.scope, p.resource, p.action`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// GroupsPermissions bulk-fetches permission sets for the given groups. Groups
// without permissions appear with an empty slice so callers can distinguish
// "empty contribution" from "unknown group".
func (r *PGRepository) GroupsPermissions(ctx context.Context, groupIDs []int64) (map[int64][]Permission, error) {
	result := make(map[int64][]Permission, len(groupIDs))
	for _, id := range groupIDs {
		result[id] = nil
	}
	if len(groupIDs) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT gp.group_id, p.id, p.scope, p.resource, p.action, p.label
		FROM permissions p
		JOIN group_permissions gp ON gp.permission_id = p.id
		WHERE gp.group_id = ANY($1)`, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var groupID int64
		var p Permission
		if err := rows.Scan(&groupID, &p.ID, &p.Scope, &p.Resource, &p.Action, &p.Label); err != nil {
			return nil, err
		}
		result[groupID] = append(result[groupID], p)
	}
	return result, rows.Err()
}

// AttachPermission adds a permission to a group's set.
func (r *PGRepository) AttachPermission(ctx context.Context, groupID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_permissions (group_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING`, groupID, permissionID)
	return err
}

// DetachPermission removes a permission from a group's set.
func (r *PGRepository) DetachPermission(ctx context.Context, groupID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM group_permissions WHERE group_id = $1 AND permission_id = $2`, groupID, permissionID)
	return err
}

func (r *PGRepository) missingIDs(ctx context.Context, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT w.id FROM unnest($1::bigint[]) AS w(id) LEFT JOIN `+table+` t ON t.id = w.id WHERE t.id IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Scope, &p.Resource, &p.Action, &p.Label); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
