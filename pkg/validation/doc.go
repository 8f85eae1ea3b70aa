// Package validation normalizes user-entered names into the lowercase shadow
// values stored next to them.
//
// Shadow fields (name_lc, season_lc, municipio_lc) back case- and
// accent-insensitive ordering and the uniqueness checks run by the repositories:
//
//	validation.Normalize("  Club  Atlético Móstoles ") // "club atletico mostoles"
//
// A Normalizer with a custom NormalizationConfig can keep accents or case when a
// caller needs a softer fold.
package validation
