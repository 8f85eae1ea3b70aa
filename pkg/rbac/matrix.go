package rbac

// permissionMatrix lists the actions each role is granted. Anything absent is denied.
// It is built once at init and never mutated; use Matrix for a copy.
//
// ASISTENTE and ARBITRO hold designaciones.view but have no delegate scope, so
// scope.Scope.Require denies them every tenant read. Their view grant only
// drives dashboard affordances until a referee self view exists.
var permissionMatrix = map[Role]map[Action]bool{
	RoleSuperusuario: {
		ActionUsersSetRole:          true,
		ActionDesignacionesView:     true,
		ActionDesignacionesCreate:   true,
		ActionDesignacionesUpdate:   true,
		ActionDesignacionesDelete:   true,
		ActionDesignacionesOverride: true,
	},
	RoleDelegado: {
		ActionDesignacionesView:   true,
		ActionDesignacionesCreate: true,
		ActionDesignacionesUpdate: true,
		ActionDesignacionesDelete: true,
	},
	RoleAsistente: {
		ActionDesignacionesView: true,
	},
	RoleArbitro: {
		ActionDesignacionesView: true,
	},
}

// Can reports whether role may perform action. Unknown roles and actions are denied.
func Can(role Role, action Action) bool {
	return permissionMatrix[role][action]
}

// CanEditDesignaciones requires create, update and delete together.
// A role holding only some of them gets no edit affordance at all.
func CanEditDesignaciones(role Role) bool {
	return Can(role, ActionDesignacionesCreate) &&
		Can(role, ActionDesignacionesUpdate) &&
		Can(role, ActionDesignacionesDelete)
}

// CanWriteRules reports whether role may create or edit referee internal rules.
// Tenant ownership of the referee is checked separately by the repository.
func CanWriteRules(role Role) bool {
	return role == RoleSuperusuario || role == RoleDelegado
}

// Granted returns the actions role may perform, in Actions order
func Granted(role Role) []Action {
	granted := make([]Action, 0, len(permissionMatrix[role]))
	for _, a := range Actions() {
		if Can(role, a) {
			granted = append(granted, a)
		}
	}
	return granted
}

// Matrix returns a copy of the full permission table
func Matrix() map[Role]map[Action]bool {
	out := make(map[Role]map[Action]bool, len(permissionMatrix))
	for role, actions := range permissionMatrix {
		row := make(map[Action]bool, len(actions))
		for a, ok := range actions {
			row[a] = ok
		}
		out[role] = row
	}
	return out
}
