package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/assetdesk/internal/authz"
	"github.com/assetdesk/assetdesk/internal/shared"
	_ "github.com/assetdesk/assetdesk/testing"
)

type stubCatalog struct{}

func (stubCatalog) PermissionCodesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	return nil, nil
}

func (stubCatalog) GroupsPermissionCodes(ctx context.Context, groupIDs []int64) (map[int64][]string, error) {
	return map[int64][]string{}, nil
}

func newTestRouter(t *testing.T) (chi.Router, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	// acting administrator
	repo.principals[1] = &Principal{ID: 1, Username: "root", EmployeeID: "100", Active: true, ActiveEmployee: true, Superuser: true}
	repo.nextID = 2

	svc := NewService(repo)
	resolver := authz.NewResolver(stubCatalog{})
	mw := authz.Middleware{Resolver: resolver, Principals: svc}
	handler := NewHandler(slog.Default(), svc, resolver, mw)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "test"}
			sess.SetActor("1")
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/directory/users", handler.MountRoutes)
	return r, repo
}

func TestSearchEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.principals[2] = &Principal{ID: 2, Username: "jdoe", EmployeeID: "200", FirstName: "Jane", Active: true, ActiveEmployee: true}
	repo.nextID = 3

	req := httptest.NewRequest(http.MethodGet, "/directory/users?q=jdoe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "jdoe", page.Items[0].Username)
	assert.Equal(t, 1, page.Pagination.Total)
	assert.False(t, page.HasNext)
}

func TestShowEndpointNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/directory/users/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestShowEndpointBadID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/directory/users/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"username":"jdoe","employee_id":"10042","first_name":"Jane","last_name":"Doe"}`
	req := httptest.NewRequest(http.MethodPost, "/directory/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var p Principal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "jdoe", p.Username)
	assert.True(t, p.Active)
}

func TestCreateEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"username":"","employee_id":"10042","first_name":"Jane"}`
	req := httptest.NewRequest(http.MethodPost, "/directory/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLifecycleEndpoints(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.principals[2] = &Principal{ID: 2, Username: "jdoe", EmployeeID: "200", Active: true, ActiveEmployee: true}
	repo.nextID = 3

	req := httptest.NewRequest(http.MethodPost, "/directory/users/2/employment/resign", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.principals[2].ActiveEmployee)
	assert.True(t, repo.principals[2].Active)
}

func TestEffectivePermissionsEndpointSuperuser(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/directory/users/1/permissions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PrincipalID    int64    `json:"principal_id"`
		Superuser      bool     `json:"is_superuser"`
		AllPermissions bool     `json:"all_permissions"`
		Permissions    []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AllPermissions)
	assert.Empty(t, resp.Permissions)
}
