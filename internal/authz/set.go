package authz

import "sort"

// PermissionSet is the effective permission set of a principal. For a
// superuser it is the universal set: membership is always true and the set is
// never materialized, so it stays correct as the catalog grows.
type PermissionSet struct {
	all   bool
	codes map[string]struct{}
}

// NewPermissionSet builds a finite set from permission codes.
func NewPermissionSet(codes ...string) PermissionSet {
	set := PermissionSet{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		set.codes[code] = struct{}{}
	}
	return set
}

// UniversalSet returns the set containing every permission, present and future.
func UniversalSet() PermissionSet {
	return PermissionSet{all: true}
}

// IsUniversal reports whether the set is the superuser's conceptual
// all-permissions set.
func (s PermissionSet) IsUniversal() bool {
	return s.all
}

// Contains reports whether the code is in the set.
func (s PermissionSet) Contains(code string) bool {
	if s.all {
		return true
	}
	_, ok := s.codes[code]
	return ok
}

// Union returns a new set containing the members of both sets.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	if s.all || other.all {
		return UniversalSet()
	}
	merged := make(map[string]struct{}, len(s.codes)+len(other.codes))
	for code := range s.codes {
		merged[code] = struct{}{}
	}
	for code := range other.codes {
		merged[code] = struct{}{}
	}
	return PermissionSet{codes: merged}
}

// Len returns the number of materialized codes; zero for the universal set.
func (s PermissionSet) Len() int {
	return len(s.codes)
}

// List returns the sorted codes of a finite set, nil for the universal set.
func (s PermissionSet) List() []string {
	if s.all {
		return nil
	}
	codes := make([]string, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
