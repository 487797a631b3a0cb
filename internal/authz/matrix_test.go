package authz_test

import (
	"testing"

	"github.com/assetflow/assetflow/internal/authz"
)

func TestAdminMatchesCatalog(t *testing.T) {
	matrix := authz.NewMatrix()
	catalog := authz.Catalog()

	for _, perm := range catalog {
		if !matrix.HasPermission(authz.RoleAdmin, perm) {
			t.Errorf("admin is missing catalog permission %s", perm)
		}
	}

	inCatalog := make(map[authz.Permission]struct{}, len(catalog))
	for _, perm := range catalog {
		inCatalog[perm] = struct{}{}
	}
	for _, perm := range matrix.Grants(authz.RoleAdmin) {
		if _, ok := inCatalog[perm]; !ok {
			t.Errorf("admin granted %s which is not in the catalog", perm)
		}
	}
	if got, want := len(matrix.Grants(authz.RoleAdmin)), len(catalog); got != want {
		t.Fatalf("admin grant count = %d, catalog size = %d", got, want)
	}
}

func TestHasPermissionDeniesUnlisted(t *testing.T) {
	matrix := authz.NewMatrix()

	for _, role := range authz.Roles() {
		granted := make(map[authz.Permission]struct{})
		for _, perm := range matrix.Grants(role) {
			granted[perm] = struct{}{}
		}
		for _, perm := range authz.Catalog() {
			_, want := granted[perm]
			if got := matrix.HasPermission(role, perm); got != want {
				t.Errorf("%s: HasPermission(%s) = %v, want %v", role, perm, got, want)
			}
		}
	}
}

func TestHasPermissionUnknownRole(t *testing.T) {
	matrix := authz.NewMatrix()
	perm := authz.Permission{Action: authz.ActionView, Resource: authz.ResourceAssets}
	if matrix.HasPermission(authz.Role("INTERN"), perm) {
		t.Fatal("unknown role must have no permissions")
	}
}

func TestViewerCannotDeleteAssets(t *testing.T) {
	matrix := authz.NewMatrix()
	perm := authz.Permission{Action: authz.ActionDelete, Resource: authz.ResourceAssets}
	if matrix.HasPermission(authz.RoleViewer, perm) {
		t.Fatal("viewer must not hold assets.delete")
	}
}

func TestPermissionIdentity(t *testing.T) {
	a := authz.Permission{Action: authz.ActionView, Resource: authz.ResourceAssets}
	b := authz.Permission{Action: authz.ActionView, Resource: authz.ResourceAssets}
	if a != b {
		t.Fatal("permission equality must be structural")
	}
	if a.String() != "assets.view" {
		t.Fatalf("String() = %q, want %q", a.String(), "assets.view")
	}

	parsed, err := authz.ParsePermission("assets.view")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != a {
		t.Fatalf("parsed %+v, want %+v", parsed, a)
	}
	if _, err := authz.ParsePermission("garbage"); err == nil {
		t.Fatal("expected error for malformed permission name")
	}
}

func TestParseRole(t *testing.T) {
	role, err := authz.ParseRole(" manager ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if role != authz.RoleManager {
		t.Fatalf("role = %s, want %s", role, authz.RoleManager)
	}
	if _, err := authz.ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
