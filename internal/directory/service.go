package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assetdesk/assetdesk/internal/authz"
	"github.com/assetdesk/assetdesk/internal/shared"
)

// Service handles directory business logic: the query engine plus principal
// lifecycle operations.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search executes a multi-criterion directory query. Empty criteria return
// all principals in default order. A page past the end yields an empty page
// with HasNext false, not an error.
func (s *Service) Search(ctx context.Context, c Criteria) (Page, error) {
	c = c.Normalize()
	items, total, err := s.repo.Search(ctx, c)
	if err != nil {
		return Page{}, fmt.Errorf("directory: search: %w", err)
	}
	pagination := shared.NewPagination(c.Page, c.PerPage, total)
	return Page{Items: items, Pagination: pagination, HasNext: pagination.HasNext()}, nil
}

// Get fetches a principal by id.
func (s *Service) Get(ctx context.Context, id int64) (*Principal, error) {
	return s.repo.Get(ctx, id)
}

// GetByUsername fetches a principal by unique username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*Principal, error) {
	return s.repo.GetByUsername(ctx, username)
}

// GetByEmployeeID fetches a principal by unique employee identifier.
func (s *Service) GetByEmployeeID(ctx context.Context, employeeID string) (*Principal, error) {
	return s.repo.GetByEmployeeID(ctx, employeeID)
}

// LoadPrincipal implements authz.PrincipalStore.
func (s *Service) LoadPrincipal(ctx context.Context, id int64) (authz.Principal, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account. Username and employee id are validated
// here and their uniqueness is enforced by the store.
func (s *Service) Create(ctx context.Context, req CreatePrincipalRequest) (*Principal, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username required", shared.ErrValidation)
	}
	if err := ValidateEmployeeID(req.EmployeeID); err != nil {
		return nil, err
	}

	p := Principal{
		Username:    username,
		EmployeeID:  req.EmployeeID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Designation: strings.TrimSpace(req.Designation),
		Office:      strings.TrimSpace(req.Office),
		// New accounts start enabled on both axes; superuser is never set at
		// creation, only through role assignment.
		Active:         true,
		ActiveEmployee: true,
		Staff:          req.Staff,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("directory: create principal: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// UpdateProfile applies self-service profile edits. Authorization-relevant
// fields cannot be reached through this path.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*Principal, error) {
	updates := make(map[string]any)
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Designation != nil {
		updates["designation"] = strings.TrimSpace(*req.Designation)
	}
	if req.Office != nil {
		updates["office"] = strings.TrimSpace(*req.Office)
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateProfile(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("directory: update profile: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

// Activate enables the account for login. Activation and deactivation are
// distinct operations rather than a toggle so a resigned employee is never
// reactivated by accident.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

// Deactivate disables the account for login.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// MarkEmployeeActive records the principal as a current employee.
func (s *Service) MarkEmployeeActive(ctx context.Context, id int64) error {
	return s.repo.SetActiveEmployee(ctx, id, true)
}

// MarkEmployeeResigned records the principal as no longer employed. The
// account flag is untouched; effective status is the AND of both.
func (s *Service) MarkEmployeeResigned(ctx context.Context, id int64) error {
	return s.repo.SetActiveEmployee(ctx, id, false)
}

// RecordLogin stores the successful-authentication timestamp on behalf of
// the external login gate.
func (s *Service) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	return s.repo.RecordLogin(ctx, id, at)
}
