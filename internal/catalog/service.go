package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// Service orchestrates catalog operations. Group writes go through here; the
// permission universe itself is only ever touched by Seed.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Seed upserts the given permission codes into the catalog. Malformed codes
// fail the whole seed so typos surface at startup.
func (s *Service) Seed(ctx context.Context, codes []string) ([]Permission, error) {
	perms := make([]Permission, 0, len(codes))
	for _, code := range codes {
		scope, resource, action, err := ParseCode(code)
		if err != nil {
			return nil, err
		}
		p, err := s.repo.UpsertPermission(ctx, Permission{
			Scope:    scope,
			Resource: resource,
			Action:   action,
			Label:    defaultLabel(scope, resource, action),
		})
		if err != nil {
			return nil, fmt.Errorf("catalog: seed %s: %w", code, err)
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// ListPermissions returns the full permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// ListGroups returns all groups.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.repo.ListGroups(ctx)
}

// GetGroup fetches a group by id.
func (s *Service) GetGroup(ctx context.Context, id int64) (Group, error) {
	return s.repo.GetGroup(ctx, id)
}

// CreateGroup inserts a new named group.
func (s *Service) CreateGroup(ctx context.Context, name, description string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: group name required", shared.ErrValidation)
	}
	return s.repo.CreateGroup(ctx, name, strings.TrimSpace(description))
}

// UpdateGroup renames or redescribes an existing group.
func (s *Service) UpdateGroup(ctx context.Context, id int64, name, description string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: group name required", shared.ErrValidation)
	}
	return s.repo.UpdateGroup(ctx, id, name, strings.TrimSpace(description))
}

// DeleteGroup removes a group. Principals remain; only their membership edge
// to this group disappears.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	return s.repo.DeleteGroup(ctx, id)
}

// GroupPermissions returns the permission set of one group.
func (s *Service) GroupPermissions(ctx context.Context, groupID int64) ([]Permission, error) {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.GroupPermissions(ctx, groupID)
}

// SetGroupPermissions replaces the group's permission set by diffing against
// the current one, so an unchanged assignment is a no-op write.
func (s *Service) SetGroupPermissions(ctx context.Context, groupID int64, permissionIDs []int64) error {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	missing, err := s.repo.MissingPermissionIDs(ctx, permissionIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown permission ids %v", shared.ErrInvalidReference, missing)
	}

	current, err := s.repo.GroupPermissions(ctx, groupID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.repo.AttachPermission(ctx, groupID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, groupID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func defaultLabel(scope, resource, action string) string {
	return fmt.Sprintf("Can %s %s (%s)", action, resource, scope)
}
