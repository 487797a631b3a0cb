package authz

import (
	"fmt"
	"strings"
)

// Action is a grantable verb on a resource.
type Action string

// Actions supported by the permission catalog.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind names a protected resource family.
type ResourceKind string

// Resources protected by the pipeline.
const (
	ResourceAssets      ResourceKind = "assets"
	ResourceCheckouts   ResourceKind = "checkouts"
	ResourceMaintenance ResourceKind = "maintenance"
	ResourceUsers       ResourceKind = "users"
	ResourceReports     ResourceKind = "reports"
)

// Permission is one grantable (action, resource) capability. It is a plain
// comparable value: two permissions are equal when their fields are equal.
type Permission struct {
	Action   Action
	Resource ResourceKind
}

// String renders the permission in "resource.action" form, matching the
// naming used for stored permission records.
func (p Permission) String() string {
	return string(p.Resource) + "." + string(p.Action)
}

// ParsePermission converts a "resource.action" name back into a Permission.
func ParsePermission(name string) (Permission, error) {
	resource, action, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || resource == "" || action == "" {
		return Permission{}, fmt.Errorf("authz: malformed permission %q", name)
	}
	return Permission{Action: Action(action), Resource: ResourceKind(resource)}, nil
}

// Role is a closed enumeration of permission bundles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
	RoleViewer  Role = "VIEWER"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleUser, RoleViewer}
}

// ParseRole normalizes a stored role name. Unknown names are rejected rather
// than mapped to a default, so a corrupted session never gains permissions.
func ParseRole(name string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(name))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleUser:
		return RoleUser, nil
	case RoleViewer:
		return RoleViewer, nil
	}
	return "", fmt.Errorf("authz: unknown role %q", name)
}

// Catalog enumerates every grantable permission. The matrix below must stay
// in sync with this table; TestAdminMatchesCatalog enforces it for ADMIN.
func Catalog() []Permission {
	actions := []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}
	resources := []ResourceKind{ResourceAssets, ResourceCheckouts, ResourceMaintenance, ResourceUsers, ResourceReports}
	perms := make([]Permission, 0, len(actions)*len(resources))
	for _, res := range resources {
		for _, act := range actions {
			perms = append(perms, Permission{Action: act, Resource: res})
		}
	}
	return perms
}
