package directory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/assetdesk/assetdesk/internal/authz"
	"github.com/assetdesk/assetdesk/internal/platform/httpx"
	"github.com/assetdesk/assetdesk/internal/shared"
)

// Handler wires directory endpoints: search, detail, lifecycle operations,
// and the effective-permission listing.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	resolver *authz.Resolver
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *authz.Resolver, mw authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		resolver: resolver,
		authz:    mw,
		validate: validator.New(),
	}
}

// MountRoutes registers directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermDirectoryUserView))
		r.Get("/", h.search)
		r.Get("/{id}", h.show)
		r.Get("/{id}/permissions", h.effectivePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAll(shared.PermDirectoryUserCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAll(shared.PermDirectoryUserEdit))
		r.Put("/{id}/profile", h.updateProfile)
		r.Post("/{id}/activate", h.lifecycle(h.service.Activate))
		r.Post("/{id}/deactivate", h.lifecycle(h.service.Deactivate))
		r.Post("/{id}/employment/activate", h.lifecycle(h.service.MarkEmployeeActive))
		r.Post("/{id}/employment/resign", h.lifecycle(h.service.MarkEmployeeResigned))
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	criteria := CriteriaFromQuery(r.URL.Query())
	page, err := h.service.Search(r.Context(), criteria)
	if err != nil {
		h.logger.Error("directory search", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, principal)
}

type effectivePermissionsResponse struct {
	PrincipalID    int64    `json:"principal_id"`
	Superuser      bool     `json:"is_superuser"`
	AllPermissions bool     `json:"all_permissions"`
	Permissions    []string `json:"permissions"`
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	set, err := h.resolver.EffectivePermissions(r.Context(), principal)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, effectivePermissionsResponse{
		PrincipalID:    principal.ID,
		Superuser:      principal.Superuser,
		AllPermissions: set.IsUniversal(),
		Permissions:    set.List(),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePrincipalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create principal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, principal)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, err := h.service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, principal)
}

func (h *Handler) lifecycle(op func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}
		if err := op(r.Context(), id); err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid principal id")
		return 0, false
	}
	return id, true
}
