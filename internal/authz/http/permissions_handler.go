package authzhttp

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/assetflow/assetflow/internal/authz"
	"github.com/assetflow/assetflow/internal/platform/httpx"
	"github.com/assetflow/assetflow/internal/shared"
)

// PermissionsHandler exposes the catalog and per-principal grants for
// operator tooling.
type PermissionsHandler struct {
	logger *slog.Logger
	matrix *authz.Matrix
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, matrix *authz.Matrix) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, matrix: matrix}
}

// MountRoutes registers permission routes. Callers mount this group behind
// the authenticate stage.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listCatalog)
	r.Get("/me", h.listMine)
}

type permissionView struct {
	Name     string `json:"name"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"permissions": toViews(authz.Catalog()),
	})
}

func (h *PermissionsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrAuthenticationMissing)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":        principal.Role,
		"permissions": toViews(h.matrix.Grants(principal.Role)),
	})
}

func toViews(perms []authz.Permission) []permissionView {
	views := make([]permissionView, 0, len(perms))
	for _, p := range perms {
		views = append(views, permissionView{
			Name:     p.String(),
			Action:   string(p.Action),
			Resource: string(p.Resource),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}
