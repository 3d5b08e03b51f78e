package directory

import (
	"time"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// SortField enumerates the sortable directory columns.
type SortField string

// Recognized sort fields. SortEmployeeID is the default and also the
// tie-breaker, which keeps pagination stable across requests.
const (
	SortEmployeeID SortField = "employee_id"
	SortFirstName  SortField = "first_name"
	SortLastName   SortField = "last_name"
	SortUsername   SortField = "username"
	SortEmail      SortField = "email"
	SortCreatedAt  SortField = "created_at"
	SortLastLogin  SortField = "last_login"
)

// Order directions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Criteria configures a directory search. Every field is independently
// optional; present fields combine with logical AND. Boolean filters are
// tri-state: nil means no restriction. Malformed values never reach this
// struct; the request boundary maps them to "absent".
type Criteria struct {
	FreeText string

	FirstName   string
	LastName    string
	Username    string
	EmployeeID  string
	Email       string
	Phone       string
	Office      string
	Designation string

	Active         *bool
	ActiveEmployee *bool
	Staff          *bool
	Superuser      *bool

	// Group restricts to members of the named group.
	Group string

	// Inclusive bounds. A principal that has never logged in matches no
	// last-login bound.
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time

	SortBy  SortField
	Order   string
	Page    int
	PerPage int
}

var sortColumns = map[SortField]string{
	SortEmployeeID: "employee_id",
	SortFirstName:  "first_name",
	SortLastName:   "last_name",
	SortUsername:   "username",
	SortEmail:      "email",
	SortCreatedAt:  "created_at",
	SortLastLogin:  "last_login",
}

// Normalize maps unrecognized enumeration values to their defaults. Out of
// range values are treated as absent, not as errors.
func (c Criteria) Normalize() Criteria {
	if _, ok := sortColumns[c.SortBy]; !ok {
		c.SortBy = SortEmployeeID
	}
	if c.Order != OrderDesc {
		c.Order = OrderAsc
	}
	if c.Page <= 0 {
		c.Page = 1
	}
	c.PerPage = shared.NormalizePerPage(c.PerPage)
	return c
}

// Page is one ordered page of directory results.
type Page struct {
	Items      []Principal       `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
	HasNext    bool              `json:"has_next"`
}
