package rules

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arbitros/designaciones/pkg/apperr"
)

// Input is an unvalidated rule as submitted by the dashboard
type Input struct {
	Type       string          `json:"type"`
	Params     json.RawMessage `json:"params"`
	PesoExtra  *float64        `json:"pesoExtra,omitempty"`
	Reason     *string         `json:"reason,omitempty"`
	Comentario *string         `json:"comentario,omitempty"`
	Enabled    *bool           `json:"enabled,omitempty"`
}

// rawParams accepts every variant's keys so a single decode reports all field errors
type rawParams struct {
	Municipios json.RawMessage `json:"municipios"`
	Dias       json.RawMessage `json:"dias"`
	TeamIDs    json.RawMessage `json:"teamIds"`
	PesoExtra  *float64        `json:"pesoExtra"`
}

// Validate checks input and builds the Rule it describes. ID, referee, delegate and
// audit fields are left for the caller. Failures are *apperr.ValidationError.
func Validate(input Input) (*Rule, error) {
	verr := apperr.NewValidationError()

	ruleType, ok := ParseType(input.Type)
	if !ok {
		verr.Add("type", fmt.Sprintf("unknown rule type %q", input.Type))
		return nil, verr
	}

	var raw rawParams
	if len(input.Params) == 0 || string(input.Params) == "null" {
		verr.Add("params", "params is required")
		return nil, verr
	}
	if err := json.Unmarshal(input.Params, &raw); err != nil {
		verr.Add("params", "params must be an object")
		return nil, verr
	}

	rule := &Rule{Type: ruleType, Enabled: true}
	if input.Enabled != nil {
		rule.Enabled = *input.Enabled
	}

	switch ruleType.Kind() {
	case KindMunicipios:
		values := decodeStrings(verr, "params.municipios", raw.Municipios)
		rule.Params = MunicipiosParams{Municipios: values}
	case KindDias:
		values := decodeStrings(verr, "params.dias", raw.Dias)
		dias := make([]Weekday, 0, len(values))
		for _, v := range values {
			d := Weekday(v)
			if !d.Valid() {
				verr.Add("params.dias", fmt.Sprintf("invalid weekday %q, expected one of L,M,X,J,V,S,D", v))
				continue
			}
			dias = append(dias, d)
		}
		rule.Params = DiasParams{Dias: dias}
	case KindEquipos:
		values := decodeStrings(verr, "params.teamIds", raw.TeamIDs)
		rule.Params = EquiposParams{TeamIDs: values}
	}

	peso, pesoField := input.PesoExtra, "pesoExtra"
	if peso == nil {
		peso, pesoField = raw.PesoExtra, "params.pesoExtra"
	} else if raw.PesoExtra != nil && *raw.PesoExtra != *peso {
		verr.Add("params.pesoExtra", "must match pesoExtra when both are given")
	}
	if ruleType.Preferred() {
		rule.PesoExtra = DefaultPesoExtra
		if peso != nil {
			if *peso < MinPesoExtra || *peso > MaxPesoExtra {
				verr.Add(pesoField, fmt.Sprintf("must be between %g and %g", MinPesoExtra, MaxPesoExtra))
			}
			rule.PesoExtra = *peso
		}
	} else if peso != nil {
		verr.Add(pesoField, "only _preferidos rules accept pesoExtra")
	}

	rule.Reason = validateReason(verr, input.Reason, input.Comentario)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return rule, nil
}

// decodeStrings reads a non-empty list of non-empty strings. Values are trimmed and
// duplicates dropped, keeping first-seen order.
func decodeStrings(verr *apperr.ValidationError, field string, raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		verr.Add(field, "is required")
		return nil
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		verr.Add(field, "must be a list of strings")
		return nil
	}
	if len(values) == 0 {
		verr.Add(field, "must not be empty")
		return nil
	}

	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			verr.Add(field, fmt.Sprintf("item %d must not be empty", i))
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// validateReason merges the comentario alias into reason
func validateReason(verr *apperr.ValidationError, reason, comentario *string) *string {
	value, field := reason, "reason"
	if value == nil {
		value, field = comentario, "comentario"
	} else if comentario != nil && *comentario != *reason {
		verr.Add("comentario", "must match reason when both are given")
	}
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if utf8.RuneCountInString(trimmed) > MaxReasonLength {
		verr.Add(field, fmt.Sprintf("must be at most %d characters", MaxReasonLength))
		return nil
	}
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
