package rules

import (
	"encoding/json"
	"fmt"
	"time"
)

// ruleDocument is the persisted shape of a Rule
type ruleDocument struct {
	ID         string          `json:"id"`
	RefereeID  string          `json:"refereeId"`
	DelegateID string          `json:"delegateId"`
	Type       Type            `json:"type"`
	Params     json.RawMessage `json:"params"`
	Enabled    bool            `json:"enabled"`
	Reason     *string         `json:"reason,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	UpdatedBy  string          `json:"updatedBy"`
}

// MarshalJSON writes the storage shape. Preference weight is carried inside params.
func (r Rule) MarshalJSON() ([]byte, error) {
	params, err := marshalParams(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleDocument{
		ID:         r.ID,
		RefereeID:  r.RefereeID,
		DelegateID: r.DelegateID,
		Type:       r.Type,
		Params:     params,
		Enabled:    r.Enabled,
		Reason:     r.Reason,
		UpdatedAt:  r.UpdatedAt,
		UpdatedBy:  r.UpdatedBy,
	})
}

// UnmarshalJSON reads the storage shape, accepting legacy RA_ types
func (r *Rule) UnmarshalJSON(data []byte) error {
	var doc ruleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	ruleType, ok := ParseType(string(doc.Type))
	if !ok {
		return fmt.Errorf("unknown rule type %q", doc.Type)
	}

	var raw rawParams
	if len(doc.Params) > 0 {
		if err := json.Unmarshal(doc.Params, &raw); err != nil {
			return fmt.Errorf("failed to decode params: %w", err)
		}
	}

	*r = Rule{
		ID:         doc.ID,
		RefereeID:  doc.RefereeID,
		DelegateID: doc.DelegateID,
		Type:       ruleType,
		Enabled:    doc.Enabled,
		Reason:     doc.Reason,
		UpdatedAt:  doc.UpdatedAt,
		UpdatedBy:  doc.UpdatedBy,
	}

	switch ruleType.Kind() {
	case KindMunicipios:
		var p MunicipiosParams
		if err := unmarshalOptional(doc.Params, &p); err != nil {
			return err
		}
		r.Params = p
	case KindDias:
		var p DiasParams
		if err := unmarshalOptional(doc.Params, &p); err != nil {
			return err
		}
		r.Params = p
	case KindEquipos:
		var p EquiposParams
		if err := unmarshalOptional(doc.Params, &p); err != nil {
			return err
		}
		r.Params = p
	}

	if ruleType.Preferred() {
		r.PesoExtra = DefaultPesoExtra
		if raw.PesoExtra != nil {
			r.PesoExtra = *raw.PesoExtra
		}
	}
	return nil
}

func marshalParams(r Rule) (json.RawMessage, error) {
	if r.Params == nil {
		return nil, fmt.Errorf("rule %s has no params", r.ID)
	}
	if r.Params.kind() != r.Type.Kind() {
		return nil, fmt.Errorf("rule %s: params do not match type %s", r.ID, r.Type)
	}

	fields := map[string]any{}
	switch p := r.Params.(type) {
	case MunicipiosParams:
		fields["municipios"] = p.Municipios
	case DiasParams:
		fields["dias"] = p.Dias
	case EquiposParams:
		fields["teamIds"] = p.TeamIDs
	}
	if r.Type.Preferred() {
		fields["pesoExtra"] = r.PesoExtra
	}
	return json.Marshal(fields)
}

func unmarshalOptional(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}
