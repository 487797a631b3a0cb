package authz

// Matrix maps each role to its granted permission set. It is built once at
// startup and read-only afterward, so concurrent lookups need no locking.
type Matrix struct {
	grants map[Role]map[Permission]struct{}
}

// NewMatrix builds the role-permission matrix.
//
// ADMIN's grants are an explicit enumeration, not derived from Catalog(): a
// new catalog entry must be added here as well. TestAdminMatchesCatalog keeps
// the two tables from drifting apart.
func NewMatrix() *Matrix {
	grants := map[Role][]Permission{
		RoleAdmin: {
			{ActionView, ResourceAssets}, {ActionCreate, ResourceAssets}, {ActionUpdate, ResourceAssets}, {ActionDelete, ResourceAssets},
			{ActionView, ResourceCheckouts}, {ActionCreate, ResourceCheckouts}, {ActionUpdate, ResourceCheckouts}, {ActionDelete, ResourceCheckouts},
			{ActionView, ResourceMaintenance}, {ActionCreate, ResourceMaintenance}, {ActionUpdate, ResourceMaintenance}, {ActionDelete, ResourceMaintenance},
			{ActionView, ResourceUsers}, {ActionCreate, ResourceUsers}, {ActionUpdate, ResourceUsers}, {ActionDelete, ResourceUsers},
			{ActionView, ResourceReports}, {ActionCreate, ResourceReports}, {ActionUpdate, ResourceReports}, {ActionDelete, ResourceReports},
		},
		RoleManager: {
			{ActionView, ResourceAssets}, {ActionCreate, ResourceAssets}, {ActionUpdate, ResourceAssets}, {ActionDelete, ResourceAssets},
			{ActionView, ResourceCheckouts}, {ActionCreate, ResourceCheckouts}, {ActionUpdate, ResourceCheckouts}, {ActionDelete, ResourceCheckouts},
			{ActionView, ResourceMaintenance}, {ActionCreate, ResourceMaintenance}, {ActionUpdate, ResourceMaintenance}, {ActionDelete, ResourceMaintenance},
			{ActionView, ResourceUsers},
			{ActionView, ResourceReports}, {ActionCreate, ResourceReports},
		},
		RoleUser: {
			{ActionView, ResourceAssets},
			{ActionView, ResourceCheckouts}, {ActionCreate, ResourceCheckouts}, {ActionUpdate, ResourceCheckouts}, {ActionDelete, ResourceCheckouts},
			{ActionView, ResourceMaintenance}, {ActionCreate, ResourceMaintenance},
		},
		RoleViewer: {
			{ActionView, ResourceAssets},
			{ActionView, ResourceCheckouts},
			{ActionView, ResourceMaintenance},
			{ActionView, ResourceReports},
		},
	}

	m := &Matrix{grants: make(map[Role]map[Permission]struct{}, len(grants))}
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		m.grants[role] = set
	}
	return m
}

// HasPermission reports whether the role's set contains the exact permission.
// There is no hierarchy or wildcard inference.
func (m *Matrix) HasPermission(role Role, perm Permission) bool {
	set, ok := m.grants[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Grants returns the role's permission set as a slice. The result is a copy;
// the matrix itself never changes after construction.
func (m *Matrix) Grants(role Role) []Permission {
	set := m.grants[role]
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms
}
