package authz

import (
	"github.com/assetflow/assetflow/internal/platform/httpx"
)

// Authorize checks every required permission against the role's set. All
// must hold; the first miss short-circuits. The returned error is generic on
// purpose so callers never learn which permission was missing.
func (m *Matrix) Authorize(role Role, required ...Permission) error {
	for _, perm := range required {
		if !m.HasPermission(role, perm) {
			return httpx.ErrPermissionDenied
		}
	}
	return nil
}

// OwnershipContext carries the facts needed for one ownership decision. It
// is built per check and never persisted. A nil OwnerID means the resource
// owner could not be established.
type OwnershipContext struct {
	UserID     int64
	Role       Role
	OwnerID    *int64
	Department string
}

// CanAccessResource refines the role decision with ownership, in fixed order:
//
//  1. ADMIN passes whenever the catalog grants the permission. Admins bypass
//     ownership, never the catalog.
//  2. Without the base permission the role is denied outright.
//  3. USER and VIEWER mutations (update, delete) additionally require the
//     resource owner to be the caller. An unknown owner fails closed.
//  4. Everything else is role-gated only.
func (m *Matrix) CanAccessResource(oc OwnershipContext, perm Permission) error {
	if oc.Role == RoleAdmin {
		if !m.HasPermission(RoleAdmin, perm) {
			return httpx.ErrPermissionDenied
		}
		return nil
	}
	if !m.HasPermission(oc.Role, perm) {
		return httpx.ErrPermissionDenied
	}
	mutating := perm.Action == ActionUpdate || perm.Action == ActionDelete
	if mutating && (oc.Role == RoleUser || oc.Role == RoleViewer) {
		if oc.OwnerID == nil || *oc.OwnerID != oc.UserID {
			return httpx.ErrOwnershipDenied
		}
	}
	return nil
}
