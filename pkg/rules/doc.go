// Package rules implements referee internal rules: per-referee restrictions and
// preferences consulted when proposing designations.
//
// # Overview
//
// A rule targets one attribute of a candidate match:
//
//   - municipios: the municipality of the venue
//   - dias: the weekday the match is played (L, M, X, J, V, S, D)
//   - equipos: the home or away team
//
// Each attribute has a _prohibidos variant, which removes the referee from
// consideration, and a _preferidos variant, which adds PesoExtra (0.1 to 10,
// default 1) to the referee's score. The legacy RA_ prefix is accepted on input.
//
// # Validation
//
//	rule, err := rules.Validate(rules.Input{
//	    Type:   "RA_dias_preferidos",
//	    Params: json.RawMessage(`{"dias":["S","D"],"pesoExtra":2}`),
//	})
//	if apperr.IsValidation(err) {
//	    // field-level messages in err.(*apperr.ValidationError).Fields
//	}
//
// # Evaluation
//
// Evaluate is pure. Disabled rules are skipped, any matching prohibition wins
// regardless of rule order, and matching preferences add up.
//
//	eval := rules.Evaluate(refereeRules, rules.Candidate{
//	    HomeTeamID: "t1",
//	    AwayTeamID: "t2",
//	    Municipio:  "Móstoles",
//	    Weekday:    rules.WeekdayOf(kickoff),
//	})
package rules
