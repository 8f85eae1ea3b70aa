package suggest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arbitros/designaciones/pkg/difficulty"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/repository"
	"github.com/arbitros/designaciones/pkg/rules"
	"github.com/arbitros/designaciones/pkg/scope"
)

// Candidate is a referee that may be designated to a match
type Candidate struct {
	RefereeID        string   `json:"refereeId"`
	Name             string   `json:"name"`
	Level            int      `json:"level"`
	Score            float64  `json:"score"`
	WeightAdjustment float64  `json:"weightAdjustment"`
	LevelPenalty     int      `json:"levelPenalty"`
	Reasons          []string `json:"reasons"`
	// Busy is set when the referee is designated to another match on the same matchday
	Busy        bool   `json:"busy"`
	BusyMatchID string `json:"busyMatchId,omitempty"`
	// Current marks the referee already designated to this match
	Current bool `json:"current"`

	nameLC string
}

// Service computes suggestions from repository data
type Service struct {
	repos   *repository.Repositories
	metrics *observability.Metrics
}

// NewService creates a Service; metrics may be nil
func NewService(repos *repository.Repositories, metrics *observability.Metrics) *Service {
	return &Service{repos: repos, metrics: metrics}
}

// matchContext holds everything loaded for one suggestion
type matchContext struct {
	match    *repository.Match
	home     *repository.Team
	away     *repository.Team
	venue    *repository.Venue
	referees []repository.Referee
	rules    map[string][]rules.Rule
	siblings []repository.Match
}

// Suggest ranks the active referees visible in sc for matchID
func (s *Service) Suggest(ctx context.Context, sc scope.Scope, matchID string) ([]Candidate, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}

	mc, err := s.load(ctx, sc, matchID)
	if err != nil {
		return nil, err
	}

	mds := difficulty.ComputeMatchMDS(mc.home.Tier, mc.away.Tier)
	target := rules.Candidate{
		HomeTeamID: mc.match.HomeTeamID,
		AwayTeamID: mc.match.AwayTeamID,
	}
	if mc.venue != nil {
		target.Municipio = mc.venue.Municipio
	}
	if day, err := time.Parse(repository.DateLayout, mc.match.Date); err == nil {
		target.Weekday = rules.WeekdayOf(day)
	}

	busy := make(map[string]string)
	for _, m := range mc.siblings {
		if m.ID != mc.match.ID && m.Designated() {
			busy[m.RefereeID] = m.ID
		}
	}

	candidates := make([]Candidate, 0, len(mc.referees))
	for _, ref := range mc.referees {
		eval := rules.Evaluate(mc.rules[ref.ID], target)
		s.recordEvaluation(eval)
		if eval.Blocked {
			continue
		}

		c := Candidate{
			RefereeID:        ref.ID,
			Name:             ref.Name,
			Level:            ref.Level,
			WeightAdjustment: eval.WeightAdjustment,
			LevelPenalty:     levelPenalty(mds, ref.Level),
			Reasons:          eval.Reasons,
			Current:          ref.ID == mc.match.RefereeID,
			nameLC:           ref.NameLC,
		}
		c.Score = c.WeightAdjustment - float64(c.LevelPenalty)
		if other, ok := busy[ref.ID]; ok {
			c.Busy = true
			c.BusyMatchID = other
		}
		candidates = append(candidates, c)
	}
	sortCandidates(candidates)

	if s.metrics != nil {
		s.metrics.SuggestionsTotal.Inc()
		s.metrics.SuggestionCandidates.Observe(float64(len(candidates)))
	}
	observability.LoggerFrom(ctx).WithFields(logrus.Fields{
		"match_id":   matchID,
		"referees":   len(mc.referees),
		"candidates": len(candidates),
		"scope":      sc.Key(),
	}).Debug("Computed referee suggestions")

	return candidates, nil
}

// load reads the match and its surroundings. The match and the referee list
// are independent; everything else hangs off the match.
func (s *Service) load(ctx context.Context, sc scope.Scope, matchID string) (*matchContext, error) {
	mc := &matchContext{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mc.match, err = s.repos.Matches.Get(gCtx, sc, matchID)
		return err
	})
	g.Go(func() error {
		var err error
		mc.referees, err = s.repos.Referees.List(gCtx, sc, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Referees and rules live with the match owner; an unscoped caller would
	// otherwise see every delegate's referees.
	owner := mc.match.DelegateID
	referees := make([]repository.Referee, 0, len(mc.referees))
	for _, ref := range mc.referees {
		if ref.DelegateID == owner {
			referees = append(referees, ref)
		}
	}
	mc.referees = referees
	ids := make([]string, 0, len(referees))
	for _, ref := range referees {
		ids = append(ids, ref.ID)
	}

	g, gCtx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mc.home, err = s.repos.Teams.Get(gCtx, sc, mc.match.HomeTeamID)
		return err
	})
	g.Go(func() error {
		var err error
		mc.away, err = s.repos.Teams.Get(gCtx, sc, mc.match.AwayTeamID)
		return err
	})
	if mc.match.VenueID != "" {
		g.Go(func() error {
			var err error
			mc.venue, err = s.repos.Venues.Get(gCtx, sc, mc.match.VenueID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		mc.rules, err = s.repos.Rules.ListEnabledByReferees(gCtx, sc, ids)
		return err
	})
	g.Go(func() error {
		var err error
		mc.siblings, err = s.repos.Matches.ListByMatchday(gCtx, sc, mc.match.MatchdayID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	return mc, nil
}

func (s *Service) recordEvaluation(eval rules.Evaluation) {
	if s.metrics == nil {
		return
	}
	outcome := "neutral"
	switch {
	case eval.Blocked:
		outcome = "blocked"
	case eval.WeightAdjustment != 0:
		outcome = "weighted"
	}
	s.metrics.RuleEvaluationsTotal.WithLabelValues(outcome).Inc()
}

// levelPenalty is how far the match difficulty exceeds the referee level
func levelPenalty(mds *int, level int) int {
	if mds == nil || *mds <= level {
		return 0
	}
	return *mds - level
}

// sortCandidates orders candidates: free before busy, then score descending, then name and id
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Busy != b.Busy {
			return !a.Busy
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.nameLC != b.nameLC {
			return a.nameLC < b.nameLC
		}
		return a.RefereeID < b.RefereeID
	})
}
