package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/assetdesk/assetdesk/internal/authz"
	"github.com/assetdesk/assetdesk/internal/directory"
	"github.com/assetdesk/assetdesk/internal/shared"
)

// ReferenceChecker validates group and permission ids against the catalog.
type ReferenceChecker interface {
	MissingGroupIDs(ctx context.Context, ids []int64) ([]int64, error)
	MissingPermissionIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// PrincipalReader reloads the post-assignment state.
type PrincipalReader interface {
	Get(ctx context.Context, id int64) (*directory.Principal, error)
}

// AuditSink records role-management events. Superuser grants are
// audit-worthy; a sink failure is logged but never fails the assignment.
type AuditSink interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service applies batch role changes to a principal as one logical
// operation. It never creates catalog entries implicitly and touches nothing
// beyond the principal's own state.
type Service struct {
	repo       Repository
	refs       ReferenceChecker
	principals PrincipalReader
	resolver   *authz.Resolver
	audit      AuditSink
	logger     *slog.Logger
}

// NewService builds a Service instance. audit may be nil.
func NewService(repo Repository, refs ReferenceChecker, principals PrincipalReader, resolver *authz.Resolver, audit AuditSink, logger *slog.Logger) *Service {
	return &Service{repo: repo, refs: refs, principals: principals, resolver: resolver, audit: audit, logger: logger}
}

// AssignRoles applies the provided fields atomically. Unspecified fields are
// unchanged. The caller is responsible for any interactive confirmation of a
// superuser grant; the service performs the write unconditionally.
func (s *Service) AssignRoles(ctx context.Context, actorID, principalID int64, req AssignRolesRequest) (*Result, error) {
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	var wasSuperuser bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		snap, err := tx.GetForUpdate(ctx, principalID)
		if err != nil {
			return err
		}
		wasSuperuser = snap.Superuser

		if err := tx.ApplyFlags(ctx, principalID, req.Staff, req.Superuser); err != nil {
			return err
		}
		if req.GroupIDs != nil {
			if err := tx.ReplaceGroups(ctx, principalID, *req.GroupIDs); err != nil {
				return err
			}
		}
		if req.DirectPermissions != nil {
			if err := tx.ReplaceDirectPermissions(ctx, principalID, *req.DirectPermissions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assignment: assign roles: %w", err)
	}

	s.recordAudit(ctx, actorID, principalID, req, wasSuperuser)

	principal, err := s.principals.Get(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("assignment: reload principal: %w", err)
	}
	set, err := s.resolver.EffectivePermissions(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("assignment: resolve permissions: %w", err)
	}
	return &Result{
		Principal:            principal,
		AllPermissions:       set.IsUniversal(),
		EffectivePermissions: set.List(),
	}, nil
}

func (s *Service) checkReferences(ctx context.Context, req AssignRolesRequest) error {
	if req.GroupIDs != nil {
		missing, err := s.refs.MissingGroupIDs(ctx, *req.GroupIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown group ids %v", shared.ErrInvalidReference, missing)
		}
	}
	if req.DirectPermissions != nil {
		missing, err := s.refs.MissingPermissionIDs(ctx, *req.DirectPermissions)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown permission ids %v", shared.ErrInvalidReference, missing)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, principalID int64, req AssignRolesRequest, wasSuperuser bool) {
	if s.audit == nil {
		return
	}
	entityID := strconv.FormatInt(principalID, 10)
	logs := []shared.AuditLog{{
		ActorID:  actorID,
		Action:   shared.AuditActionRolesAssigned,
		Entity:   "principal",
		EntityID: entityID,
		Meta: map[string]any{
			"staff_set":       req.Staff != nil,
			"superuser_set":   req.Superuser != nil,
			"groups_set":      req.GroupIDs != nil,
			"permissions_set": req.DirectPermissions != nil,
		},
	}}
	if req.Superuser != nil && *req.Superuser != wasSuperuser {
		action := shared.AuditActionSuperuserGranted
		if !*req.Superuser {
			action = shared.AuditActionSuperuserRevoked
		}
		logs = append(logs, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "principal",
			EntityID: entityID,
		})
	}
	for _, log := range logs {
		if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
			s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
		}
	}
}
