package assignment

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/assetdesk/assetdesk/internal/authz"
	"github.com/assetdesk/assetdesk/internal/platform/httpx"
	"github.com/assetdesk/assetdesk/internal/shared"
)

// Handler exposes the role-management endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers role assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAll(shared.PermRolesAssign))
		r.Post("/{id}/roles", h.assignRoles)
	})
}

func (h *Handler) assignRoles(w http.ResponseWriter, r *http.Request) {
	principalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid principal id")
		return
	}

	var req AssignRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	var actorID int64
	if actor := authz.PrincipalFromContext(r.Context()); actor != nil {
		actorID = actor.PrincipalID()
	}

	result, err := h.service.AssignRoles(r.Context(), actorID, principalID, req)
	if err != nil {
		h.logger.Error("assign roles", slog.Int64("principal", principalID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
