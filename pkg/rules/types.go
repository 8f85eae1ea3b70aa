package rules

import (
	"strings"
	"time"
)

// Type discriminates a referee internal rule
type Type string

const (
	TypeMunicipiosProhibidos Type = "municipios_prohibidos"
	TypeMunicipiosPreferidos Type = "municipios_preferidos"
	TypeDiasProhibidos       Type = "dias_prohibidos"
	TypeDiasPreferidos       Type = "dias_preferidos"
	TypeEquiposProhibidos    Type = "equipos_prohibidos"
	TypeEquiposPreferidos    Type = "equipos_preferidos"
)

// legacyPrefix is accepted on input ("RA_dias_preferidos") and dropped on storage
const legacyPrefix = "RA_"

// Kind is the attribute a rule looks at
type Kind string

const (
	KindMunicipios Kind = "municipios"
	KindDias       Kind = "dias"
	KindEquipos    Kind = "equipos"
)

var typeKinds = map[Type]Kind{
	TypeMunicipiosProhibidos: KindMunicipios,
	TypeMunicipiosPreferidos: KindMunicipios,
	TypeDiasProhibidos:       KindDias,
	TypeDiasPreferidos:       KindDias,
	TypeEquiposProhibidos:    KindEquipos,
	TypeEquiposPreferidos:    KindEquipos,
}

// Types returns every rule type
func Types() []Type {
	return []Type{
		TypeMunicipiosProhibidos, TypeMunicipiosPreferidos,
		TypeDiasProhibidos, TypeDiasPreferidos,
		TypeEquiposProhibidos, TypeEquiposPreferidos,
	}
}

// ParseType accepts both the bare and the RA_-prefixed spelling
func ParseType(s string) (Type, bool) {
	t := Type(strings.TrimPrefix(strings.TrimSpace(s), legacyPrefix))
	if _, ok := typeKinds[t]; !ok {
		return "", false
	}
	return t, true
}

// Kind returns the attribute the rule type inspects
func (t Type) Kind() Kind {
	return typeKinds[t]
}

// Preferred reports whether the type adds weight instead of blocking
func (t Type) Preferred() bool {
	return strings.HasSuffix(string(t), "_preferidos")
}

// Prohibited reports whether the type blocks a candidate
func (t Type) Prohibited() bool {
	return strings.HasSuffix(string(t), "_prohibidos")
}

// Weekday is one of the seven single-letter weekday symbols
type Weekday string

const (
	Lunes     Weekday = "L"
	Martes    Weekday = "M"
	Miercoles Weekday = "X"
	Jueves    Weekday = "J"
	Viernes   Weekday = "V"
	Sabado    Weekday = "S"
	Domingo   Weekday = "D"
)

var goWeekdays = map[time.Weekday]Weekday{
	time.Monday:    Lunes,
	time.Tuesday:   Martes,
	time.Wednesday: Miercoles,
	time.Thursday:  Jueves,
	time.Friday:    Viernes,
	time.Saturday:  Sabado,
	time.Sunday:    Domingo,
}

// Valid reports whether w is one of L, M, X, J, V, S, D
func (w Weekday) Valid() bool {
	switch w {
	case Lunes, Martes, Miercoles, Jueves, Viernes, Sabado, Domingo:
		return true
	}
	return false
}

// WeekdayOf returns the weekday symbol of t in its own location
func WeekdayOf(t time.Time) Weekday {
	return goWeekdays[t.Weekday()]
}

// Params is the type-specific payload of a rule. The implementations in this
// package are the only ones; a type switch over them is exhaustive.
type Params interface {
	kind() Kind
	// Values returns the raw configured values
	Values() []string
}

// MunicipiosParams lists municipalities
type MunicipiosParams struct {
	Municipios []string `json:"municipios"`
}

func (p MunicipiosParams) kind() Kind { return KindMunicipios }

// Values returns the configured municipalities
func (p MunicipiosParams) Values() []string { return p.Municipios }

// DiasParams lists weekdays
type DiasParams struct {
	Dias []Weekday `json:"dias"`
}

func (p DiasParams) kind() Kind { return KindDias }

// Values returns the configured weekday symbols
func (p DiasParams) Values() []string {
	out := make([]string, len(p.Dias))
	for i, d := range p.Dias {
		out[i] = string(d)
	}
	return out
}

// EquiposParams lists team ids
type EquiposParams struct {
	TeamIDs []string `json:"teamIds"`
}

func (p EquiposParams) kind() Kind { return KindEquipos }

// Values returns the configured team ids
func (p EquiposParams) Values() []string { return p.TeamIDs }

const (
	// MinPesoExtra is the lowest accepted preference weight
	MinPesoExtra = 0.1
	// MaxPesoExtra is the highest accepted preference weight
	MaxPesoExtra = 10.0
	// DefaultPesoExtra applies when a preference omits pesoExtra
	DefaultPesoExtra = 1.0
	// MaxReasonLength bounds reason/comentario, in characters
	MaxReasonLength = 500
)

// Rule is a referee-specific restriction or preference
type Rule struct {
	ID         string
	RefereeID  string
	DelegateID string
	Type       Type
	Params     Params
	// PesoExtra is only meaningful for _preferidos rules; it is zero otherwise
	PesoExtra float64
	Enabled   bool
	Reason    *string
	UpdatedAt time.Time
	UpdatedBy string
}
