package schedule

// Role is a capability tier controlling add/edit/delete.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a stored role string to a Role. Anything unrecognised is
// the least-privileged role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleEditor, RoleAdmin:
		return Role(s)
	}
	return RoleViewer
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleViewer || r == RoleEditor || r == RoleAdmin
}

// CanAddJobs reports whether the role may create tasks.
func CanAddJobs(r Role) bool {
	return r == RoleEditor || r == RoleAdmin
}

// CanEditJobs reports whether the role may change existing tasks.
func CanEditJobs(r Role) bool {
	return r == RoleAdmin
}

// CanDeleteJobs reports whether the role may remove tasks.
func CanDeleteJobs(r Role) bool {
	return r == RoleAdmin
}

// CanManageUsers reports whether the role may change other users' roles.
func CanManageUsers(r Role) bool {
	return r == RoleAdmin
}

// Capabilities bundles the role predicates for rendering.
type Capabilities struct {
	Add    bool `json:"canAdd"`
	Edit   bool `json:"canEdit"`
	Delete bool `json:"canDelete"`
	Users  bool `json:"canManageUsers"`
}

// CapabilitiesFor evaluates every predicate for r.
func CapabilitiesFor(r Role) Capabilities {
	return Capabilities{
		Add:    CanAddJobs(r),
		Edit:   CanEditJobs(r),
		Delete: CanDeleteJobs(r),
		Users:  CanManageUsers(r),
	}
}
