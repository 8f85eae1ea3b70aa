// Package repository contains the tenant-scoped gateways for every entity.
//
// Every method takes the request's scope.Scope:
//
//   - non-applicable scopes (ASISTENTE, ARBITRO, missing identity) are denied
//     with an AuthorizationError;
//   - documents owned by another delegate are reported as NotFound;
//   - new documents are owned by the effective delegate, or by the delegateId
//     named in the input for an unscoped SUPERUSUARIO.
//
// Names are stored with a normalized "_lc" shadow (validation.Normalize) used
// for ordering and for the uniqueness checks, which return ConflictError.
//
// Reads go through cache.Fetch under scope.CacheKey keys; each write drops the
// collection prefix of the owning delegate and of the unscoped view.
package repository
