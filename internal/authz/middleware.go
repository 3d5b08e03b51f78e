package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// PrincipalStore loads the acting principal for a request.
type PrincipalStore interface {
	LoadPrincipal(ctx context.Context, id int64) (Principal, error)
}

// Middleware wires authorization helpers for HTTP handlers. The acting
// principal is resolved from the session and passed explicitly into the
// resolver, never read ambiently by the core.
type Middleware struct {
	Resolver   *Resolver
	Principals PrincipalStore
	Logger     *slog.Logger
}

// RequireAny ensures the acting principal has at least one of the required
// permissions. Disabled accounts are refused before resolution.
func (m Middleware) RequireAny(codes ...string) func(http.Handler) http.Handler {
	normalized := normalizeCodes(codes)
	return m.require(normalized, func(r *http.Request, p Principal) (bool, error) {
		return m.Resolver.HasAnyOf(r.Context(), p, normalized)
	})
}

// RequireAll ensures the acting principal has all required permissions.
func (m Middleware) RequireAll(codes ...string) func(http.Handler) http.Handler {
	normalized := normalizeCodes(codes)
	return m.require(normalized, func(r *http.Request, p Principal) (bool, error) {
		return m.Resolver.HasAllOf(r.Context(), p, normalized)
	})
}

func (m Middleware) require(normalized []string, check func(*http.Request, Principal) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := m.actingPrincipal(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			granted, err := check(r, principal)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz check", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !granted {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func (m Middleware) actingPrincipal(r *http.Request) (Principal, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	raw := strings.TrimSpace(sess.Actor())
	if raw == "" {
		return nil, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse actor id", slog.String("value", raw))
		}
		return nil, false
	}
	principal, err := m.Principals.LoadPrincipal(r.Context(), id)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Warn("authz load principal", slog.Int64("id", id), slog.Any("error", err))
		}
		return nil, false
	}
	// active and active_employee must both hold for the account to act.
	if !principal.IsEnabled() {
		return nil, false
	}
	return principal, true
}

func normalizeCodes(codes []string) []string {
	unique := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(strings.ToLower(code))
		if code == "" {
			continue
		}
		unique[code] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for code := range unique {
		normalized = append(normalized, code)
	}
	return normalized
}
