package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// Repository defines persistence operations for principals.
type Repository interface {
	Search(ctx context.Context, c Criteria) ([]Principal, int, error)
	Get(ctx context.Context, id int64) (*Principal, error)
	GetByUsername(ctx context.Context, username string) (*Principal, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*Principal, error)
	Create(ctx context.Context, p Principal) (int64, error)
	UpdateProfile(ctx context.Context, id int64, updates map[string]any) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetActiveEmployee(ctx context.Context, id int64, active bool) error
	RecordLogin(ctx context.Context, id int64, at time.Time) error
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

const principalColumns = `id, username, employee_id, first_name, last_name, email, phone, designation, office,
	is_active, is_active_employee, is_staff, is_superuser, created_at, updated_at, last_login`

// substring-matched per-field filters, in the order they bind.
var substringFilters = []struct {
	column string
	value  func(Criteria) string
}{
	{"first_name", func(c Criteria) string { return c.FirstName }},
	{"last_name", func(c Criteria) string { return c.LastName }},
	{"username", func(c Criteria) string { return c.Username }},
	{"employee_id", func(c Criteria) string { return c.EmployeeID }},
	{"email", func(c Criteria) string { return c.Email }},
	{"phone", func(c Criteria) string { return c.Phone }},
	{"office", func(c Criteria) string { return c.Office }},
	{"designation", func(c Criteria) string { return c.Designation }},
}

var booleanFilters = []struct {
	column string
	value  func(Criteria) *bool
}{
	{"is_active", func(c Criteria) *bool { return c.Active }},
	{"is_active_employee", func(c Criteria) *bool { return c.ActiveEmployee }},
	{"is_staff", func(c Criteria) *bool { return c.Staff }},
	{"is_superuser", func(c Criteria) *bool { return c.Superuser }},
}

// buildSearchWhere assembles the WHERE clause for normalized criteria.
// Returns an empty clause when no filter is present.
func buildSearchWhere(c Criteria) (string, []any) {
	var conditions []string
	var args []any
	next := func(v any) int {
		args = append(args, v)
		return len(args)
	}

	if c.FreeText != "" {
		n := next("%" + c.FreeText + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR username ILIKE $%d OR employee_id ILIKE $%d OR email ILIKE $%d)",
			n, n, n, n, n))
	}
	for _, f := range substringFilters {
		if v := f.value(c); v != "" {
			n := next("%" + v + "%")
			conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", f.column, n))
		}
	}
	for _, f := range booleanFilters {
		if v := f.value(c); v != nil {
			n := next(*v)
			conditions = append(conditions, fmt.Sprintf("%s = $%d", f.column, n))
		}
	}
	if c.Group != "" {
		n := next(c.Group)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM principal_groups pg JOIN groups g ON g.id = pg.group_id WHERE pg.principal_id = principals.id AND g.name = $%d)", n))
	}
	if c.CreatedAfter != nil {
		n := next(*c.CreatedAfter)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", n))
	}
	if c.CreatedBefore != nil {
		n := next(*c.CreatedBefore)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", n))
	}
	// A null last_login never matches a last-login bound.
	if c.LastLoginAfter != nil {
		n := next(*c.LastLoginAfter)
		conditions = append(conditions, fmt.Sprintf("last_login IS NOT NULL AND last_login >= $%d", n))
	}
	if c.LastLoginBefore != nil {
		n := next(*c.LastLoginBefore)
		conditions = append(conditions, fmt.Sprintf("last_login IS NOT NULL AND last_login <= $%d", n))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// buildOrderBy renders the ORDER BY clause. The employee id is a digit string
// ordered numerically; it also breaks ties on every other sort field so the
// overall ordering is total and pagination stays stable.
func buildOrderBy(c Criteria) string {
	dir := "ASC"
	if c.Order == OrderDesc {
		dir = "DESC"
	}
	column := sortColumns[c.SortBy]
	if c.SortBy == SortEmployeeID {
		return fmt.Sprintf("ORDER BY employee_id::bigint %s", dir)
	}
	return fmt.Sprintf("ORDER BY %s %s, employee_id::bigint ASC", column, dir)
}

// Search filters, sorts, and paginates the principal collection. Filtering
// and sorting apply before pagination.
func (r *PGRepository) Search(ctx context.Context, c Criteria) ([]Principal, int, error) {
	c = c.Normalize()
	where, args := buildSearchWhere(c)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM principals "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM principals %s %s LIMIT $%d OFFSET $%d",
		principalColumns, where, buildOrderBy(c), len(args)+1, len(args)+2)
	args = append(args, c.PerPage, (c.Page-1)*c.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var principals []Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, 0, err
		}
		principals = append(principals, p)
	}
	return principals, total, rows.Err()
}

// Get fetches a principal by id including membership and direct grant edges.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Principal, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByUsername fetches a principal by unique username.
func (r *PGRepository) GetByUsername(ctx context.Context, username string) (*Principal, error) {
	return r.getBy(ctx, "username = $1", username)
}

// GetByEmployeeID fetches a principal by unique employee identifier.
func (r *PGRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*Principal, error) {
	return r.getBy(ctx, "employee_id = $1", employeeID)
}

func (r *PGRepository) getBy(ctx context.Context, where string, arg any) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+principalColumns+`,
			COALESCE(ARRAY(SELECT pg.group_id FROM principal_groups pg WHERE pg.principal_id = principals.id ORDER BY pg.group_id), '{}'),
			COALESCE(ARRAY(SELECT pp.permission_id FROM principal_permissions pp WHERE pp.principal_id = principals.id ORDER BY pp.permission_id), '{}')
		FROM principals WHERE `+where, arg)

	var p Principal
	var lastLogin pgtype.Timestamptz
	err := row.Scan(
		&p.ID, &p.Username, &p.EmployeeID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Designation, &p.Office,
		&p.Active, &p.ActiveEmployee, &p.Staff, &p.Superuser, &p.CreatedAt, &p.UpdatedAt, &lastLogin,
		&p.Groups, &p.DirectPermissions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	return &p, nil
}

// Create inserts a new principal. Uniqueness of username and employee id is
// enforced by the store.
func (r *PGRepository) Create(ctx context.Context, p Principal) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO principals (username, employee_id, first_name, last_name, email, phone, designation, office,
			is_active, is_active_employee, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id`,
		p.Username, p.EmployeeID, p.FirstName, p.LastName, p.Email, p.Phone, p.Designation, p.Office,
		p.Active, p.ActiveEmployee, p.Staff, p.Superuser,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: username or employee id already taken", shared.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// UpdateProfile applies the provided non-authorization fields.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE principals SET updated_at = NOW()"
	var args []any
	for _, column := range []string{"first_name", "last_name", "email", "phone", "designation", "office"} {
		if v, ok := updates[column]; ok {
			args = append(args, v)
			query += fmt.Sprintf(", %s = $%d", column, len(args))
		}
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive flips the account-enabled flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

// SetActiveEmployee flips the employment-status flag.
func (r *PGRepository) SetActiveEmployee(ctx context.Context, id int64, active bool) error {
	return r.setFlag(ctx, id, "is_active_employee", active)
}

func (r *PGRepository) setFlag(ctx context.Context, id int64, column string, value bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE principals SET `+column+` = $2, updated_at = NOW() WHERE id = $1`, id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecordLogin stores the successful-authentication timestamp. Called by the
// external authentication collaborator; last_login does not count as a
// mutation for updated_at purposes.
func (r *PGRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE principals SET last_login = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPrincipal(rows pgx.Rows) (Principal, error) {
	var p Principal
	var lastLogin pgtype.Timestamptz
	err := rows.Scan(
		&p.ID, &p.Username, &p.EmployeeID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Designation, &p.Office,
		&p.Active, &p.ActiveEmployee, &p.Staff, &p.Superuser, &p.CreatedAt, &p.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return Principal{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
