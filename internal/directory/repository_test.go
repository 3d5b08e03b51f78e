package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchWhereEmpty(t *testing.T) {
	where, args := buildSearchWhere(Criteria{}.Normalize())

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildSearchWhereFreeText(t *testing.T) {
	where, args := buildSearchWhere(Criteria{FreeText: "smith"}.Normalize())

	assert.Equal(t, "WHERE (first_name ILIKE $1 OR last_name ILIKE $1 OR username ILIKE $1 OR employee_id ILIKE $1 OR email ILIKE $1)", where)
	assert.Equal(t, []any{"%smith%"}, args)
}

func TestBuildSearchWhereCombinesWithAnd(t *testing.T) {
	active := true
	staff := false
	c := Criteria{
		FirstName: "jane",
		Office:    "Berlin",
		Active:    &active,
		Staff:     &staff,
	}.Normalize()

	where, args := buildSearchWhere(c)

	assert.Equal(t, "WHERE first_name ILIKE $1 AND office ILIKE $2 AND is_active = $3 AND is_staff = $4", where)
	assert.Equal(t, []any{"%jane%", "%Berlin%", true, false}, args)
}

func TestBuildSearchWhereGroupMembership(t *testing.T) {
	where, args := buildSearchWhere(Criteria{Group: "Technicians"}.Normalize())

	assert.Contains(t, where, "EXISTS (SELECT 1 FROM principal_groups pg JOIN groups g ON g.id = pg.group_id")
	assert.Contains(t, where, "g.name = $1")
	assert.Equal(t, []any{"Technicians"}, args)
}

func TestBuildSearchWhereLastLoginGuardsNull(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	c := Criteria{LastLoginAfter: &after, LastLoginBefore: &before}.Normalize()

	where, args := buildSearchWhere(c)

	assert.Equal(t, "WHERE last_login IS NOT NULL AND last_login >= $1 AND last_login IS NOT NULL AND last_login <= $2", where)
	require.Len(t, args, 2)
	assert.Equal(t, after, args[0])
	assert.Equal(t, before, args[1])
}

func TestBuildSearchWhereCreatedBounds(t *testing.T) {
	after := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Criteria{CreatedAfter: &after}.Normalize()

	where, args := buildSearchWhere(c)

	assert.Equal(t, "WHERE created_at >= $1", where)
	assert.Equal(t, []any{after}, args)
}

func TestBuildOrderByEmployeeIDNumeric(t *testing.T) {
	assert.Equal(t, "ORDER BY employee_id::bigint ASC", buildOrderBy(Criteria{}.Normalize()))
	assert.Equal(t, "ORDER BY employee_id::bigint DESC", buildOrderBy(Criteria{Order: OrderDesc}.Normalize()))
}

func TestBuildOrderByTieBreak(t *testing.T) {
	c := Criteria{SortBy: SortLastName, Order: OrderDesc}.Normalize()
	assert.Equal(t, "ORDER BY last_name DESC, employee_id::bigint ASC", buildOrderBy(c))

	c = Criteria{SortBy: SortLastLogin}.Normalize()
	assert.Equal(t, "ORDER BY last_login ASC, employee_id::bigint ASC", buildOrderBy(c))
}
