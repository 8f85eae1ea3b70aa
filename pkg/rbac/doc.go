// Package rbac holds the static role/permission matrix for the designaciones dashboard.
//
// # Roles
//
//	SUPERUSUARIO - manages every delegate, may switch the active delegate
//	DELEGADO     - manages the data of its own delegate only
//	ASISTENTE    - read-only helper
//	ARBITRO      - referee, read-only
//
// # Usage
//
//	if !rbac.Can(ident.Role, rbac.ActionDesignacionesOverride) {
//		return apperr.Forbidden()
//	}
//
//	canEdit := rbac.CanEditDesignaciones(ident.Role) // create && update && delete
//
// The matrix is a package-level table built at init. Callers never mutate it; Matrix
// returns a copy suitable for serialising to the UI.
package rbac
