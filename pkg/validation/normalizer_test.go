package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNormalizationConfig(t *testing.T) {
	config := DefaultNormalizationConfig()

	assert.True(t, config.Lowercase)
	assert.True(t, config.StripAccents)
	assert.True(t, config.CollapseWhitespace)
}

func TestNewNormalizer(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		n := NewNormalizer(nil)
		assert.Equal(t, DefaultNormalizationConfig(), n.config)
	})

	t.Run("custom config", func(t *testing.T) {
		n := NewNormalizer(&NormalizationConfig{Lowercase: true})
		assert.Equal(t, "móstoles", n.NormalizeString("Móstoles"))
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Primera Division", "primera division"},
		{"accents", "Móstoles", "mostoles"},
		{"enye keeps base letter", "Alcañiz", "alcaniz"},
		{"whitespace", "  Liga   de  Invierno ", "liga de invierno"},
		{"season", "2025/26", "2025/26"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizer_Equal(t *testing.T) {
	n := NewNormalizer(nil)

	assert.True(t, n.Equal("Leganés", "LEGANES"))
	assert.False(t, n.Equal("Leganés", "Getafe"))
}
