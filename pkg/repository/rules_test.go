package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/rbac"
	"github.com/arbitros/designaciones/pkg/rules"
	"github.com/arbitros/designaciones/pkg/scope"
)

func ruleInput(typ, params string) rules.Input {
	return rules.Input{Type: typ, Params: json.RawMessage(params)}
}

func TestRules_SaveAndList(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)

	created, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{
		RefereeID: w.referee.ID,
		Input:     ruleInput("RA_dias_preferidos", `{"dias":["S","D"],"pesoExtra":2}`),
		UpdatedBy: "u_a",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, rules.TypeDiasPreferidos, created.Type)
	assert.Equal(t, w.referee.ID, created.RefereeID)
	assert.Equal(t, "del_a", created.DelegateID)
	assert.Equal(t, 2.0, created.PesoExtra)
	assert.True(t, created.Enabled)
	assert.Equal(t, "u_a", created.UpdatedBy)
	assert.False(t, created.UpdatedAt.IsZero())

	_, err = f.repos.Rules.Save(ctx, delA, SaveRuleRequest{
		RefereeID: w.referee.ID,
		Input:     ruleInput("equipos_prohibidos", `{"teamIds":["`+w.home.ID+`"]}`),
		UpdatedBy: "u_a",
	})
	require.NoError(t, err)

	list, err := f.repos.Rules.ListByReferee(ctx, delA, w.referee.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	updated, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{
		RuleID:    created.ID,
		Input:     ruleInput("dias_preferidos", `{"dias":["V"]}`),
		UpdatedBy: "u_a2",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, w.referee.ID, updated.RefereeID)
	assert.Equal(t, rules.DiasParams{Dias: []rules.Weekday{rules.Viernes}}, updated.Params)
	assert.Equal(t, rules.DefaultPesoExtra, updated.PesoExtra)

	list, err = f.repos.Rules.ListByReferee(ctx, delA, w.referee.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2, "update replaces, cache is refreshed")
}

func TestRules_WriteAccess(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)
	valid := ruleInput("municipios_prohibidos", `{"municipios":["Alcalá"]}`)

	tests := []struct {
		name  string
		sc    scope.Scope
		match func(error) bool
	}{
		{"asistente", scope.Scope{UID: "as", Role: rbac.RoleAsistente}, apperr.IsAuthorization},
		{"arbitro", scope.Scope{UID: "ar", Role: rbac.RoleArbitro}, apperr.IsAuthorization},
		{"other delegate", delB, apperr.IsAuthorization},
		{"no identity", scope.Scope{}, apperr.IsAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.repos.Rules.Save(ctx, tt.sc, SaveRuleRequest{RefereeID: w.referee.ID, Input: valid})
			require.Error(t, err)
			assert.True(t, tt.match(err), "got %v", err)
		})
	}

	_, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{RefereeID: "missing", Input: valid})
	assert.True(t, apperr.IsAuthorization(err), "missing referee is indistinguishable from a foreign one")

	_, err = f.repos.Rules.Save(ctx, super, SaveRuleRequest{RefereeID: w.referee.ID, Input: valid})
	assert.NoError(t, err, "unscoped superusuario writes anywhere")

	_, err = f.repos.Rules.Save(ctx, delA, SaveRuleRequest{
		RefereeID: w.referee.ID,
		Input:     ruleInput("RA_dias_preferidos", `{"dias":["L","Z"]}`),
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestRules_SetEnabledAndListEnabled(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)
	second, err := f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "Luis"})
	require.NoError(t, err)

	r1, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{RefereeID: w.referee.ID, Input: ruleInput("dias_prohibidos", `{"dias":["S"]}`)})
	require.NoError(t, err)
	_, err = f.repos.Rules.Save(ctx, delA, SaveRuleRequest{RefereeID: second.ID, Input: ruleInput("dias_preferidos", `{"dias":["S"]}`)})
	require.NoError(t, err)

	byReferee, err := f.repos.Rules.ListEnabledByReferees(ctx, delA, []string{w.referee.ID, second.ID, "unknown"})
	require.NoError(t, err)
	assert.Len(t, byReferee[w.referee.ID], 1)
	assert.Len(t, byReferee[second.ID], 1)

	disabled, err := f.repos.Rules.SetEnabled(ctx, delA, r1.ID, false, "u_a")
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	byReferee, err = f.repos.Rules.ListEnabledByReferees(ctx, delA, []string{w.referee.ID, second.ID})
	require.NoError(t, err)
	assert.NotContains(t, byReferee, w.referee.ID)
	assert.Len(t, byReferee[second.ID], 1)

	all, err := f.repos.Rules.ListByReferee(ctx, delA, w.referee.ID)
	require.NoError(t, err)
	require.Len(t, all, 1, "disabled rules are kept")

	_, err = f.repos.Rules.SetEnabled(ctx, delB, r1.ID, true, "u_b")
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.repos.Rules.SetEnabled(ctx, scope.Scope{UID: "as", Role: rbac.RoleAsistente}, r1.ID, true, "as")
	assert.True(t, apperr.IsAuthorization(err))

	empty, err := f.repos.Rules.ListEnabledByReferees(ctx, delA, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRules_EditKeepsEnabledFlag(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)

	rule, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{
		RefereeID: w.referee.ID,
		Input:     ruleInput("equipos_prohibidos", `{"teamIds":["`+w.home.ID+`"]}`),
	})
	require.NoError(t, err)
	_, err = f.repos.Rules.SetEnabled(ctx, delA, rule.ID, false, "u_a")
	require.NoError(t, err)

	edited, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{
		RuleID: rule.ID,
		Input:  ruleInput("equipos_prohibidos", `{"teamIds":["`+w.home.ID+`","`+w.away.ID+`"]}`),
	})
	require.NoError(t, err)
	assert.False(t, edited.Enabled, "editing params does not re-enable")
	assert.Equal(t, rules.EquiposParams{TeamIDs: []string{w.home.ID, w.away.ID}}, edited.Params)

	byReferee, err := f.repos.Rules.ListEnabledByReferees(ctx, delA, []string{w.referee.ID})
	require.NoError(t, err)
	assert.NotContains(t, byReferee, w.referee.ID)

	input := ruleInput("equipos_prohibidos", `{"teamIds":["`+w.home.ID+`"]}`)
	input.Enabled = boolPtr(true)
	enabled, err := f.repos.Rules.Save(ctx, delA, SaveRuleRequest{RuleID: rule.ID, Input: input})
	require.NoError(t, err)
	assert.True(t, enabled.Enabled, "explicit enabled wins")
}
