package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arbitros/designaciones/pkg/validation"
)

// Candidate describes the match a referee is being considered for
type Candidate struct {
	HomeTeamID string
	AwayTeamID string
	Municipio  string
	Weekday    Weekday
}

// Evaluation is the outcome of applying a referee's rules to a candidate match
type Evaluation struct {
	Blocked          bool     `json:"blocked"`
	WeightAdjustment float64  `json:"weightAdjustment"`
	Reasons          []string `json:"reasons"`
}

// Evaluate applies rules to c. Disabled rules are ignored. Any matching prohibition
// blocks the candidate outright with no weight; otherwise every matching preference
// adds its PesoExtra.
func Evaluate(rules []Rule, c Candidate) Evaluation {
	for _, r := range rules {
		if !r.Enabled || !r.Type.Prohibited() {
			continue
		}
		if hit, ok := r.match(c); ok {
			return Evaluation{
				Blocked: true,
				Reasons: []string{r.describe(hit)},
			}
		}
	}

	eval := Evaluation{Reasons: []string{}}
	for _, r := range rules {
		if !r.Enabled || !r.Type.Preferred() {
			continue
		}
		if hit, ok := r.match(c); ok {
			eval.WeightAdjustment += r.PesoExtra
			eval.Reasons = append(eval.Reasons, r.describe(hit))
		}
	}
	return eval
}

// match returns the configured value that intersects the candidate
func (r Rule) match(c Candidate) (string, bool) {
	switch p := r.Params.(type) {
	case MunicipiosParams:
		if c.Municipio == "" {
			return "", false
		}
		want := validation.Normalize(c.Municipio)
		for _, m := range p.Municipios {
			if validation.Normalize(m) == want {
				return m, true
			}
		}
	case DiasParams:
		if slices.Contains(p.Dias, c.Weekday) {
			return string(c.Weekday), true
		}
	case EquiposParams:
		for _, id := range p.TeamIDs {
			if id != "" && (id == c.HomeTeamID || id == c.AwayTeamID) {
				return id, true
			}
		}
	}
	return "", false
}

func (r Rule) describe(hit string) string {
	var b strings.Builder
	b.WriteString(string(r.Type))
	b.WriteString(": ")
	b.WriteString(hit)
	if r.Type.Preferred() {
		fmt.Fprintf(&b, " (+%g)", r.PesoExtra)
	}
	if r.Reason != nil {
		b.WriteString(" - ")
		b.WriteString(*r.Reason)
	}
	return b.String()
}
