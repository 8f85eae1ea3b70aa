package repository

import (
	"context"
	"time"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
)

// MatchRepository stores matches and their designations
type MatchRepository struct {
	base
	matchdays *MatchdayRepository
	teams     *TeamRepository
	venues    *VenueRepository
	referees  *RefereeRepository
	now       func() time.Time
}

// NewMatchRepository creates a MatchRepository; c may be nil
func NewMatchRepository(store *docstore.Store, c cache.Cache, matchdays *MatchdayRepository, teams *TeamRepository, venues *VenueRepository, referees *RefereeRepository) *MatchRepository {
	return &MatchRepository{
		base:      base{store: store, cache: c, collection: CollectionMatches, entity: "match"},
		matchdays: matchdays,
		teams:     teams,
		venues:    venues,
		referees:  referees,
		now:       time.Now,
	}
}

// Create adds a match to a matchday. Both teams must belong to the matchday's group.
func (r *MatchRepository) Create(ctx context.Context, sc scope.Scope, matchdayID string, in MatchInput) (*Match, error) {
	md, err := r.matchdays.Get(ctx, sc, matchdayID)
	if err != nil {
		return nil, err
	}

	verr := apperr.NewValidationError()
	m := Match{
		ID:         newID(),
		DelegateID: md.DelegateID,
		GroupID:    md.GroupID,
		MatchdayID: md.ID,
		Date:       md.Date,
		Time:       in.Time,
	}
	if in.Date != "" {
		if _, err := time.Parse(DateLayout, in.Date); err != nil {
			verr.Add("date", "date must be YYYY-MM-DD")
		}
		m.Date = in.Date
	}
	if in.Time != "" {
		if _, err := time.Parse(TimeLayout, in.Time); err != nil {
			verr.Add("time", "time must be HH:MM")
		}
	}

	checkTeam := func(field, id string) string {
		if id == "" {
			verr.Add(field, field+" is required")
			return ""
		}
		t, err := r.teams.Get(ctx, sc, id)
		if err != nil || t.GroupID != md.GroupID {
			verr.Add(field, "team is not in the matchday group")
			return ""
		}
		return t.ID
	}
	m.HomeTeamID = checkTeam("homeTeamId", in.HomeTeamID)
	m.AwayTeamID = checkTeam("awayTeamId", in.AwayTeamID)
	if m.HomeTeamID != "" && m.HomeTeamID == m.AwayTeamID {
		verr.Add("awayTeamId", "a team cannot play itself")
	}

	venueID := in.VenueID
	if venueID == "" && m.HomeTeamID != "" {
		if home, err := r.teams.Get(ctx, sc, m.HomeTeamID); err == nil {
			venueID = home.VenueID
		}
	}
	if venueID != "" {
		v, err := r.venues.Get(ctx, sc, venueID)
		if err != nil || v.DelegateID != md.DelegateID {
			verr.Add("venueId", "unknown venue")
		} else {
			m.VenueID = v.ID
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	doc, err := docstore.NewDocument(m.ID, m.DelegateID, m)
	if err != nil {
		return nil, err
	}
	created, err := r.coll().Create(ctx, doc)
	if err != nil {
		return nil, r.translate(err, m.ID)
	}
	var out Match
	if err := created.Decode(&out); err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// Get returns a match visible in sc
func (r *MatchRepository) Get(ctx context.Context, sc scope.Scope, id string) (*Match, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	m, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (Match, error) {
		var m Match
		err := r.get(ctx, sc, id, &m)
		return m, err
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByMatchday returns the matches of a matchday
func (r *MatchRepository) ListByMatchday(ctx context.Context, sc scope.Scope, matchdayID string) ([]Match, error) {
	if _, err := r.matchdays.Get(ctx, sc, matchdayID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "matchday", matchdayID), func(ctx context.Context) ([]Match, error) {
		return list[Match](ctx, r.base, sc, "date", docstore.Eq("matchdayId", matchdayID))
	})
}

// Assign designates refereeID to the match. Replacing a different referee
// already designated requires allowOverride; otherwise it is denied.
func (r *MatchRepository) Assign(ctx context.Context, sc scope.Scope, matchID, refereeID, by string, allowOverride bool) (*Match, error) {
	var current Match
	if err := r.get(ctx, sc, matchID, &current); err != nil {
		return nil, err
	}

	ref, err := r.referees.Get(ctx, sc, refereeID)
	if apperr.IsNotFound(err) {
		return nil, apperr.FieldError("refereeId", "unknown referee")
	}
	if err != nil {
		return nil, err
	}
	if ref.DelegateID != current.DelegateID {
		return nil, apperr.FieldError("refereeId", "unknown referee")
	}
	if !ref.Active {
		return nil, apperr.FieldError("refereeId", "referee is not active")
	}

	updated, err := r.coll().Update(ctx, matchID, func(doc *docstore.Document) error {
		var m Match
		if err := doc.Decode(&m); err != nil {
			return err
		}
		if m.Designated() && m.RefereeID != ref.ID && !allowOverride {
			return apperr.Forbidden()
		}
		now := r.now().UTC()
		m.RefereeID = ref.ID
		m.AssignedBy = by
		m.AssignedAt = &now
		replaced, err := docstore.NewDocument(matchID, doc.DelegateID, m)
		if err != nil {
			return err
		}
		*doc = replaced
		return nil
	})
	if err != nil {
		return nil, r.translate(err, matchID)
	}
	return r.finish(ctx, updated)
}

// Unassign removes the designation of a match
func (r *MatchRepository) Unassign(ctx context.Context, sc scope.Scope, matchID, by string) (*Match, error) {
	var current Match
	if err := r.get(ctx, sc, matchID, &current); err != nil {
		return nil, err
	}

	updated, err := r.coll().Update(ctx, matchID, func(doc *docstore.Document) error {
		var m Match
		if err := doc.Decode(&m); err != nil {
			return err
		}
		m.RefereeID = ""
		m.AssignedBy = by
		m.AssignedAt = nil
		replaced, err := docstore.NewDocument(matchID, doc.DelegateID, m)
		if err != nil {
			return err
		}
		*doc = replaced
		return nil
	})
	if err != nil {
		return nil, r.translate(err, matchID)
	}
	return r.finish(ctx, updated)
}

func (r *MatchRepository) finish(ctx context.Context, doc *docstore.Document) (*Match, error) {
	var out Match
	if err := doc.Decode(&out); err != nil {
		return nil, err
	}
	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}
