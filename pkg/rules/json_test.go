package rules

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleJSON_StorageShape(t *testing.T) {
	reason := "lejos"
	r := Rule{
		ID:         "r1",
		RefereeID:  "ref1",
		DelegateID: "del_a",
		Type:       TypeMunicipiosPreferidos,
		Params:     MunicipiosParams{Municipios: []string{"Getafe"}},
		PesoExtra:  2,
		Enabled:    true,
		Reason:     &reason,
		UpdatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		UpdatedBy:  "uid1",
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"r1","refereeId":"ref1","delegateId":"del_a",
		"type":"municipios_preferidos",
		"params":{"municipios":["Getafe"],"pesoExtra":2},
		"enabled":true,"reason":"lejos",
		"updatedAt":"2024-05-01T10:00:00Z","updatedBy":"uid1"
	}`, string(data))

	var back Rule
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestRuleJSON_ProhibitionHasNoWeight(t *testing.T) {
	r := Rule{ID: "r2", Type: TypeDiasProhibidos, Params: DiasParams{Dias: []Weekday{Lunes}}}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "pesoExtra")
	assert.NotContains(t, string(data), "reason")
}

func TestRuleJSON_LegacyType(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r3","type":"RA_equipos_preferidos","params":{"teamIds":["t1"]},"enabled":true}`), &r))
	assert.Equal(t, TypeEquiposPreferidos, r.Type)
	assert.Equal(t, EquiposParams{TeamIDs: []string{"t1"}}, r.Params)
	assert.Equal(t, DefaultPesoExtra, r.PesoExtra)
}

func TestRuleJSON_Errors(t *testing.T) {
	var r Rule
	assert.Error(t, json.Unmarshal([]byte(`{"type":"nope"}`), &r))

	_, err := json.Marshal(Rule{ID: "x", Type: TypeDiasProhibidos})
	assert.Error(t, err)

	_, err = json.Marshal(Rule{ID: "x", Type: TypeDiasProhibidos, Params: EquiposParams{TeamIDs: []string{"t"}}})
	assert.Error(t, err)
}
