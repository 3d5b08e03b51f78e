package directory

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CreatePrincipalRequest carries the fields an administrator supplies when
// creating an account.
type CreatePrincipalRequest struct {
	Username    string `json:"username" validate:"required,max=150"`
	EmployeeID  string `json:"employee_id" validate:"required"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	Designation string `json:"designation" validate:"omitempty,max=100"`
	Office      string `json:"office" validate:"omitempty,max=100"`
	Staff       bool   `json:"is_staff"`
}

// UpdateProfileRequest carries self-service profile edits. Only
// non-authorization fields are updatable through this path.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Designation *string `json:"designation,omitempty" validate:"omitempty,max=100"`
	Office      *string `json:"office,omitempty" validate:"omitempty,max=100"`
}

// CriteriaFromQuery builds search criteria from raw request parameters.
// Malformed values are treated as absent, matching the UI's behavior of only
// submitting valid enumerations.
func CriteriaFromQuery(q url.Values) Criteria {
	c := Criteria{
		FreeText:    strings.TrimSpace(q.Get("q")),
		FirstName:   strings.TrimSpace(q.Get("first_name")),
		LastName:    strings.TrimSpace(q.Get("last_name")),
		Username:    strings.TrimSpace(q.Get("username")),
		EmployeeID:  strings.TrimSpace(q.Get("employee_id")),
		Email:       strings.TrimSpace(q.Get("email")),
		Phone:       strings.TrimSpace(q.Get("phone")),
		Office:      strings.TrimSpace(q.Get("office")),
		Designation: strings.TrimSpace(q.Get("designation")),
		Group:       strings.TrimSpace(q.Get("group")),

		Active:         parseTriState(q.Get("is_active")),
		ActiveEmployee: parseTriState(q.Get("is_active_employee")),
		Staff:          parseTriState(q.Get("is_staff")),
		Superuser:      parseTriState(q.Get("is_superuser")),

		CreatedAfter:    parseDate(q.Get("created_after")),
		CreatedBefore:   parseDate(q.Get("created_before")),
		LastLoginAfter:  parseDate(q.Get("last_login_after")),
		LastLoginBefore: parseDate(q.Get("last_login_before")),

		SortBy: SortField(q.Get("sort_by")),
		Order:  q.Get("order"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		c.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		c.PerPage = perPage
	}
	return c.Normalize()
}

// parseTriState recognizes only "true" and "false"; anything else means no
// restriction.
func parseTriState(raw string) *bool {
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
