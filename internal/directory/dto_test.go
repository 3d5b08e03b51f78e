package directory

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaFromQueryFull(t *testing.T) {
	q := url.Values{}
	q.Set("q", " smith ")
	q.Set("first_name", "Jane")
	q.Set("office", "Berlin")
	q.Set("group", "Technicians")
	q.Set("is_active", "true")
	q.Set("is_staff", "false")
	q.Set("created_after", "2024-01-01")
	q.Set("last_login_before", "2024-06-30T23:59:59Z")
	q.Set("sort_by", "last_name")
	q.Set("order", "desc")
	q.Set("page", "2")
	q.Set("per_page", "25")

	c := CriteriaFromQuery(q)

	assert.Equal(t, "smith", c.FreeText)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Berlin", c.Office)
	assert.Equal(t, "Technicians", c.Group)

	require.NotNil(t, c.Active)
	assert.True(t, *c.Active)
	require.NotNil(t, c.Staff)
	assert.False(t, *c.Staff)
	assert.Nil(t, c.ActiveEmployee)
	assert.Nil(t, c.Superuser)

	require.NotNil(t, c.CreatedAfter)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *c.CreatedAfter)
	require.NotNil(t, c.LastLoginBefore)
	assert.Equal(t, time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC), *c.LastLoginBefore)

	assert.Equal(t, SortLastName, c.SortBy)
	assert.Equal(t, OrderDesc, c.Order)
	assert.Equal(t, 2, c.Page)
	assert.Equal(t, 25, c.PerPage)
}

func TestCriteriaFromQueryMalformedValuesAbsent(t *testing.T) {
	q := url.Values{}
	q.Set("is_active", "yes")
	q.Set("is_superuser", "1")
	q.Set("created_after", "last tuesday")
	q.Set("sort_by", "salary")
	q.Set("order", "upward")
	q.Set("page", "many")
	q.Set("per_page", "37")

	c := CriteriaFromQuery(q)

	assert.Nil(t, c.Active)
	assert.Nil(t, c.Superuser)
	assert.Nil(t, c.CreatedAfter)
	assert.Equal(t, SortEmployeeID, c.SortBy)
	assert.Equal(t, OrderAsc, c.Order)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, 10, c.PerPage)
}

func TestCriteriaFromQueryEmpty(t *testing.T) {
	c := CriteriaFromQuery(url.Values{})

	assert.Empty(t, c.FreeText)
	assert.Nil(t, c.Active)
	assert.Nil(t, c.LastLoginAfter)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, 10, c.PerPage)
}

func TestParseTriState(t *testing.T) {
	require.NotNil(t, parseTriState("true"))
	assert.True(t, *parseTriState("true"))
	require.NotNil(t, parseTriState("false"))
	assert.False(t, *parseTriState("false"))
	assert.Nil(t, parseTriState(""))
	assert.Nil(t, parseTriState("TRUE"))
	assert.Nil(t, parseTriState("0"))
}
