package directory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/assetdesk/internal/shared"
)

type mockRepository struct {
	principals map[int64]*Principal
	nextID     int64

	searchErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		principals: make(map[int64]*Principal),
		nextID:     1,
	}
}

func (m *mockRepository) Search(ctx context.Context, c Criteria) ([]Principal, int, error) {
	if m.searchErr != nil {
		return nil, 0, m.searchErr
	}
	matched := make([]Principal, 0)
	for _, p := range m.principals {
		if c.FreeText != "" && !containsFold(p.FirstName, c.FreeText) && !containsFold(p.LastName, c.FreeText) &&
			!containsFold(p.Username, c.FreeText) && !containsFold(p.EmployeeID, c.FreeText) && !containsFold(p.Email, c.FreeText) {
			continue
		}
		if c.Active != nil && p.Active != *c.Active {
			continue
		}
		if c.Staff != nil && p.Staff != *c.Staff {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].EmployeeID < matched[j].EmployeeID })
	total := len(matched)
	start := (c.Page - 1) * c.PerPage
	if start >= total {
		return []Principal{}, total, nil
	}
	end := start + c.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Principal, error) {
	p, ok := m.principals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockRepository) GetByUsername(ctx context.Context, username string) (*Principal, error) {
	for _, p := range m.principals {
		if p.Username == username {
			clone := *p
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*Principal, error) {
	for _, p := range m.principals {
		if p.EmployeeID == employeeID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, p Principal) (int64, error) {
	for _, existing := range m.principals {
		if existing.Username == p.Username || existing.EmployeeID == p.EmployeeID {
			return 0, shared.ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	p.ID = id
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.principals[id] = &p
	return id, nil
}

func (m *mockRepository) UpdateProfile(ctx context.Context, id int64, updates map[string]any) error {
	p, ok := m.principals[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["first_name"].(string); ok {
		p.FirstName = v
	}
	if v, ok := updates["last_name"].(string); ok {
		p.LastName = v
	}
	if v, ok := updates["email"].(string); ok {
		p.Email = v
	}
	if v, ok := updates["phone"].(string); ok {
		p.Phone = v
	}
	if v, ok := updates["designation"].(string); ok {
		p.Designation = v
	}
	if v, ok := updates["office"].(string); ok {
		p.Office = v
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	p, ok := m.principals[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) SetActiveEmployee(ctx context.Context, id int64, active bool) error {
	p, ok := m.principals[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.ActiveEmployee = active
	p.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	p, ok := m.principals[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.LastLogin = &at
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo), repo
}

func seedPrincipals(t *testing.T, svc *Service, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := svc.Create(ctx, CreatePrincipalRequest{
			Username:   "user" + strconv.Itoa(i),
			EmployeeID: strconv.Itoa(1000 + i),
			FirstName:  "User",
			LastName:   "Number" + strconv.Itoa(i),
		})
		require.NoError(t, err)
	}
}

func TestCreatePrincipal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePrincipalRequest{
		Username:   "jdoe",
		EmployeeID: "10042",
		FirstName:  "  Jane ",
		LastName:   "Doe",
		Email:      "jane@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "jdoe", p.Username)
	assert.Equal(t, "Jane", p.FirstName)
	assert.True(t, p.Active)
	assert.True(t, p.ActiveEmployee)
	assert.False(t, p.Superuser)
	assert.True(t, p.IsEnabled())
	assert.Nil(t, p.LastLogin)
}

func TestCreatePrincipalInvalidEmployeeID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, id := range []string{"", "12", "EMP-100", "10a42"} {
		_, err := svc.Create(ctx, CreatePrincipalRequest{Username: "u", EmployeeID: id, FirstName: "X"})
		require.Error(t, err, "employee_id=%q", id)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	}
}

func TestCreatePrincipalDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePrincipalRequest{Username: "jdoe", EmployeeID: "100", FirstName: "A"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreatePrincipalRequest{Username: "jdoe", EmployeeID: "101", FirstName: "B"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicate))
}

func TestSearchEmptyCriteriaReturnsAll(t *testing.T) {
	svc, _ := newTestService()
	seedPrincipals(t, svc, 3)

	page, err := svc.Search(context.Background(), Criteria{})
	require.NoError(t, err)

	assert.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.False(t, page.HasNext)
}

func TestSearchPastEndReturnsEmptyPage(t *testing.T) {
	svc, _ := newTestService()
	seedPrincipals(t, svc, 3)

	page, err := svc.Search(context.Background(), Criteria{Page: 9})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.False(t, page.HasNext)
}

func TestSearchPagination(t *testing.T) {
	svc, _ := newTestService()
	seedPrincipals(t, svc, 12)

	page, err := svc.Search(context.Background(), Criteria{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.True(t, page.HasNext)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page, err = svc.Search(context.Background(), Criteria{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasNext)
}

func TestLifecycleFlagsAreIndependent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePrincipalRequest{Username: "jdoe", EmployeeID: "100", FirstName: "Jane"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkEmployeeResigned(ctx, p.ID))
	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.False(t, got.ActiveEmployee)
	assert.False(t, got.IsEnabled())

	// reactivating the account does not rehire the employee
	require.NoError(t, svc.Activate(ctx, p.ID))
	got, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsEnabled())

	require.NoError(t, svc.MarkEmployeeActive(ctx, p.ID))
	got, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEnabled())
}

func TestUpdateProfileCannotTouchFlags(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePrincipalRequest{Username: "jdoe", EmployeeID: "100", FirstName: "Jane"})
	require.NoError(t, err)

	office := "Berlin"
	updated, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileRequest{Office: &office})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", updated.Office)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.False(t, got.Superuser)
}

func TestRecordLogin(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePrincipalRequest{Username: "jdoe", EmployeeID: "100", FirstName: "Jane"})
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordLogin(ctx, p.ID, at))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, at, *got.LastLogin)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestValidateEmployeeID(t *testing.T) {
	assert.NoError(t, ValidateEmployeeID("100"))
	assert.NoError(t, ValidateEmployeeID("004217"))
	assert.Error(t, ValidateEmployeeID("99"))
	assert.Error(t, ValidateEmployeeID("abc"))
	assert.Error(t, ValidateEmployeeID("12 34"))

	// boundary of the bigint sort cast
	assert.NoError(t, ValidateEmployeeID(strings.Repeat("9", 18)))
	assert.Error(t, ValidateEmployeeID(strings.Repeat("9", 19)))
}
