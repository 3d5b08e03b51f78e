package directory

import (
	"fmt"
	"regexp"
	"time"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// Principal represents a user account, the subject of authorization
// decisions and the record the directory search surfaces operate on.
type Principal struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	EmployeeID  string `json:"employee_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	Office      string `json:"office"`

	// Active enables the account for login. ActiveEmployee is the HR
	// employment status and is independent of Active; both are surfaced
	// separately in every view.
	Active         bool `json:"is_active"`
	ActiveEmployee bool `json:"is_active_employee"`
	Staff          bool `json:"is_staff"`
	Superuser      bool `json:"is_superuser"`

	Groups            []int64 `json:"group_ids"`
	DirectPermissions []int64 `json:"direct_permission_ids"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// PrincipalID implements authz.Principal.
func (p *Principal) PrincipalID() int64 { return p.ID }

// IsSuperuser implements authz.Principal.
func (p *Principal) IsSuperuser() bool { return p.Superuser }

// IsEnabled is the effective account status: active AND active_employee.
// A resigned employee stays locked out even when the account flag is on.
func (p *Principal) IsEnabled() bool { return p.Active && p.ActiveEmployee }

// DirectPermissionIDs implements authz.Principal.
func (p *Principal) DirectPermissionIDs() []int64 { return p.DirectPermissions }

// GroupIDs implements authz.Principal.
func (p *Principal) GroupIDs() []int64 { return p.Groups }

// Capped at 18 digits so the employee_id::bigint sort cast can never
// overflow.
var employeeIDPattern = regexp.MustCompile(`^[0-9]{3,18}$`)

// ValidateEmployeeID checks the numeric employee identifier format.
func ValidateEmployeeID(id string) error {
	if !employeeIDPattern.MatchString(id) {
		return fmt.Errorf("%w: employee id must be numeric with 3 to 18 digits", shared.ErrValidation)
	}
	return nil
}
