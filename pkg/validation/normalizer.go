package validation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer produces the lowercase shadow values (name_lc, season_lc) used for
// case- and accent-insensitive lookups and uniqueness checks
type Normalizer struct {
	config *NormalizationConfig
}

// NormalizationConfig defines normalization rules
type NormalizationConfig struct {
	// Lowercase folds the value to lower case
	Lowercase bool
	// StripAccents removes combining marks after NFD decomposition ("Móstoles" -> "mostoles")
	StripAccents bool
	// CollapseWhitespace trims and joins inner whitespace runs with a single space
	CollapseWhitespace bool
}

// DefaultNormalizationConfig returns default normalization settings
func DefaultNormalizationConfig() *NormalizationConfig {
	return &NormalizationConfig{
		Lowercase:          true,
		StripAccents:       true,
		CollapseWhitespace: true,
	}
}

// NewNormalizer creates a new normalizer
func NewNormalizer(config *NormalizationConfig) *Normalizer {
	if config == nil {
		config = DefaultNormalizationConfig()
	}
	return &Normalizer{config: config}
}

// NormalizeString applies the configured rules to s
func (n *Normalizer) NormalizeString(s string) string {
	if n.config.StripAccents {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if out, _, err := transform.String(t, s); err == nil {
			s = out
		}
	}
	if n.config.Lowercase {
		s = strings.ToLower(s)
	}
	if n.config.CollapseWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	}
	return s
}

// Equal reports whether a and b normalize to the same value
func (n *Normalizer) Equal(a, b string) bool {
	return n.NormalizeString(a) == n.NormalizeString(b)
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize applies the default normalization to s
func Normalize(s string) string {
	return defaultNormalizer.NormalizeString(s)
}
