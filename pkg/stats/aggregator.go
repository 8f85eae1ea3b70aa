package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/repository"
	"github.com/arbitros/designaciones/pkg/rules"
)

// DelegateStats are the gauge values of one delegate
type DelegateStats struct {
	ActiveReferees int
	PendingMatches int
	// EnabledRules counts enabled rules by rule type
	EnabledRules map[string]int
}

// Snapshot maps delegate ids to their stats
type Snapshot map[string]*DelegateStats

// Delegates returns the delegate ids in s in sorted order
func (s Snapshot) Delegates() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Snapshot) of(delegateID string) *DelegateStats {
	st, ok := s[delegateID]
	if !ok {
		st = &DelegateStats{EnabledRules: map[string]int{}}
		s[delegateID] = st
	}
	return st
}

// Aggregator computes statistics across all delegates
type Aggregator struct {
	store   *docstore.Store
	metrics *observability.Metrics
}

// NewAggregator creates a new aggregator; metrics may be nil
func NewAggregator(store *docstore.Store, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{store: store, metrics: metrics}
}

// Collect reads referees, rules and matches of every delegate
func (a *Aggregator) Collect(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{}

	var referee struct {
		Active bool `json:"active"`
	}
	err := a.each(ctx, repository.CollectionReferees, func(doc docstore.Document) error {
		referee.Active = false
		if err := doc.Decode(&referee); err != nil {
			return err
		}
		st := snap.of(doc.DelegateID)
		if referee.Active {
			st.ActiveReferees++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// only the type and flag are needed; params are not decoded
	var rule struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	}
	err = a.each(ctx, repository.CollectionRules, func(doc docstore.Document) error {
		rule.Type, rule.Enabled = "", false
		if err := doc.Decode(&rule); err != nil {
			return err
		}
		st := snap.of(doc.DelegateID)
		if rule.Enabled {
			st.EnabledRules[canonicalType(rule.Type)]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var match struct {
		RefereeID string `json:"refereeId"`
	}
	err = a.each(ctx, repository.CollectionMatches, func(doc docstore.Document) error {
		match.RefereeID = ""
		if err := doc.Decode(&match); err != nil {
			return err
		}
		st := snap.of(doc.DelegateID)
		if match.RefereeID == "" {
			st.PendingMatches++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Refresh collects a snapshot and publishes it to the gauges
func (a *Aggregator) Refresh(ctx context.Context) (Snapshot, error) {
	snap, err := a.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if a.metrics == nil {
		return snap, nil
	}

	a.metrics.RefereesActive.Reset()
	a.metrics.RulesEnabled.Reset()
	a.metrics.MatchesPending.Reset()
	for _, id := range snap.Delegates() {
		st := snap[id]
		a.metrics.RefereesActive.WithLabelValues(id).Set(float64(st.ActiveReferees))
		a.metrics.MatchesPending.WithLabelValues(id).Set(float64(st.PendingMatches))
		for typ, n := range st.EnabledRules {
			a.metrics.RulesEnabled.WithLabelValues(id, typ).Set(float64(n))
		}
	}
	return snap, nil
}

func (a *Aggregator) each(ctx context.Context, collection string, fn func(docstore.Document) error) error {
	docs, err := a.store.Collection(collection).All(ctx, docstore.Query{Limit: docstore.MaxLimit})
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", collection, err)
	}
	for _, doc := range docs {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// canonicalType strips the legacy prefix; unknown types are grouped together
func canonicalType(t string) string {
	parsed, ok := rules.ParseType(t)
	if !ok {
		return "unknown"
	}
	return string(parsed)
}
