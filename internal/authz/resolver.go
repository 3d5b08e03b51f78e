// Package authz computes authorization decisions for principals. Resolution
// is a pure derivation of current state: no cache, recomputed on every check,
// so a group edit is visible to every member immediately.
package authz

import (
	"context"
)

// Principal describes the subject of an authorization decision. IsEnabled is
// the composite account status (active AND active_employee); the resolver
// deliberately ignores it, only the request gate in Middleware consults it.
type Principal interface {
	PrincipalID() int64
	IsSuperuser() bool
	IsEnabled() bool
	DirectPermissionIDs() []int64
	GroupIDs() []int64
}

// CatalogSource supplies permission codes for resolution.
type CatalogSource interface {
	PermissionCodesByIDs(ctx context.Context, ids []int64) ([]string, error)
	GroupsPermissionCodes(ctx context.Context, groupIDs []int64) (map[int64][]string, error)
}

// Resolver derives effective permission sets and yes/no decisions.
type Resolver struct {
	source CatalogSource
}

// NewResolver constructs a Resolver over the given catalog source.
func NewResolver(source CatalogSource) *Resolver {
	return &Resolver{source: source}
}

// EffectivePermissions returns the union of the principal's direct grants and
// every member group's permission set. A superuser yields the universal set
// without touching the store.
func (r *Resolver) EffectivePermissions(ctx context.Context, p Principal) (PermissionSet, error) {
	if p.IsSuperuser() {
		return UniversalSet(), nil
	}

	direct, err := r.source.PermissionCodesByIDs(ctx, p.DirectPermissionIDs())
	if err != nil {
		return PermissionSet{}, err
	}
	set := NewPermissionSet(direct...)

	grouped, err := r.source.GroupsPermissionCodes(ctx, p.GroupIDs())
	if err != nil {
		return PermissionSet{}, err
	}
	for _, codes := range grouped {
		for _, code := range codes {
			set.codes[code] = struct{}{}
		}
	}
	return set, nil
}

// HasPermission reports whether the principal may exercise the permission.
// The superuser path short-circuits before any store access so the check
// stays catalog-size independent. A false result is a normal outcome, never
// an error.
func (r *Resolver) HasPermission(ctx context.Context, p Principal, code string) (bool, error) {
	if p.IsSuperuser() {
		return true, nil
	}
	set, err := r.EffectivePermissions(ctx, p)
	if err != nil {
		return false, err
	}
	return set.Contains(code), nil
}

// HasAnyOf reports whether the principal holds at least one of the codes.
// An empty requirement is vacuously satisfied.
func (r *Resolver) HasAnyOf(ctx context.Context, p Principal, codes []string) (bool, error) {
	if len(codes) == 0 {
		return true, nil
	}
	if p.IsSuperuser() {
		return true, nil
	}
	set, err := r.EffectivePermissions(ctx, p)
	if err != nil {
		return false, err
	}
	for _, code := range codes {
		if set.Contains(code) {
			return true, nil
		}
	}
	return false, nil
}

// HasAllOf reports whether the principal holds every one of the codes.
func (r *Resolver) HasAllOf(ctx context.Context, p Principal, codes []string) (bool, error) {
	if p.IsSuperuser() {
		return true, nil
	}
	set, err := r.EffectivePermissions(ctx, p)
	if err != nil {
		return false, err
	}
	for _, code := range codes {
		if !set.Contains(code) {
			return false, nil
		}
	}
	return true, nil
}
