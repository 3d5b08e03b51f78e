package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Permission represents an atomic capability identified by a
// (scope, resource, action) triple. Permissions are seeded at system
// initialization and immutable once created.
type Permission struct {
	ID       int64  `json:"id"`
	Scope    string `json:"scope"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Label    string `json:"label"`
}

// Code renders the canonical scope.resource.action form.
func (p Permission) Code() string {
	return p.Scope + "." + p.Resource + "." + p.Action
}

// Group is a named, reusable bundle of permissions. A group's permission set
// may be empty.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParseCode splits and validates a scope.resource.action permission code.
// Validation happens once at catalog load so a typo in a code is a startup
// failure, not a silent authorization miss.
func ParseCode(code string) (scope, resource, action string, err error) {
	parts := strings.Split(code, ".")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("catalog: malformed permission code %q", code)
	}
	for _, part := range parts {
		if !validSegment(part) {
			return "", "", "", fmt.Errorf("catalog: malformed permission code %q", code)
		}
	}
	return parts[0], parts[1], parts[2], nil
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
