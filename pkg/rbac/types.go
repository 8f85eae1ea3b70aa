package rbac

// Role identifies what a signed-in user is allowed to do. It is issued by the
// identity provider and never changes during a session.
type Role string

const (
	RoleSuperusuario Role = "SUPERUSUARIO"
	RoleDelegado     Role = "DELEGADO"
	RoleAsistente    Role = "ASISTENTE"
	RoleArbitro      Role = "ARBITRO"
)

// Roles returns every known role, most privileged first
func Roles() []Role {
	return []Role{RoleSuperusuario, RoleDelegado, RoleAsistente, RoleArbitro}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSuperusuario, RoleDelegado, RoleAsistente, RoleArbitro:
		return true
	}
	return false
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a claim value into a Role
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Action is an operation guarded by the permission matrix. The set is closed.
type Action string

const (
	ActionUsersSetRole          Action = "users.setRole"
	ActionDesignacionesView     Action = "designaciones.view"
	ActionDesignacionesCreate   Action = "designaciones.create"
	ActionDesignacionesUpdate   Action = "designaciones.update"
	ActionDesignacionesDelete   Action = "designaciones.delete"
	ActionDesignacionesOverride Action = "designaciones.override"
)

// Actions returns the closed action set in a stable order
func Actions() []Action {
	return []Action{
		ActionUsersSetRole,
		ActionDesignacionesView,
		ActionDesignacionesCreate,
		ActionDesignacionesUpdate,
		ActionDesignacionesDelete,
		ActionDesignacionesOverride,
	}
}
