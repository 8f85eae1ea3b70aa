package repository

import (
	"context"
	"fmt"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/validation"
)

// LeagueRepository stores leagues
type LeagueRepository struct {
	base
}

// NewLeagueRepository creates a LeagueRepository; c may be nil
func NewLeagueRepository(store *docstore.Store, c cache.Cache) *LeagueRepository {
	return &LeagueRepository{base{store: store, cache: c, collection: CollectionLeagues, entity: "league"}}
}

func validateLeague(sc scope.Scope, in LeagueInput) (League, error) {
	verr := apperr.NewValidationError()
	l := League{
		Name:   requireName(verr, "name", in.Name),
		Season: requireName(verr, "season", in.Season),
	}
	delegateID, err := ownerFor(sc, in.DelegateID, verr)
	if err != nil {
		return League{}, err
	}
	if err := verr.OrNil(); err != nil {
		return League{}, err
	}
	l.DelegateID = delegateID
	l.NameLC = validation.Normalize(l.Name)
	l.SeasonLC = validation.Normalize(l.Season)
	return l, nil
}

func leagueKey(l League) []docstore.Filter {
	return []docstore.Filter{docstore.Eq("name_lc", l.NameLC), docstore.Eq("season_lc", l.SeasonLC)}
}

// Create adds a league. Name and season are unique within the delegate,
// ignoring case and accents.
func (r *LeagueRepository) Create(ctx context.Context, sc scope.Scope, in LeagueInput, by string) (*League, error) {
	l, err := validateLeague(sc, in)
	if err != nil {
		return nil, err
	}
	l.ID = newID()
	l.UpdatedBy = by

	var out League
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		if err := r.claim(ctx, tx, l.ID, l.DelegateID, "name", l.Name+" "+l.Season, leagueKey(l)...); err != nil {
			return err
		}
		doc, err := docstore.NewDocument(l.ID, l.DelegateID, l)
		if err != nil {
			return err
		}
		created, err := coll.Create(ctx, doc)
		if err != nil {
			return r.translate(err, l.ID)
		}
		return created.Decode(&out)
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// Get returns a league visible in sc
func (r *LeagueRepository) Get(ctx context.Context, sc scope.Scope, id string) (*League, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	l, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (League, error) {
		var l League
		err := r.get(ctx, sc, id, &l)
		return l, err
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns the leagues visible in sc ordered by name
func (r *LeagueRepository) List(ctx context.Context, sc scope.Scope) ([]League, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "list"), func(ctx context.Context) ([]League, error) {
		return list[League](ctx, r.base, sc, "name_lc")
	})
}

// Update renames a league, keeping the uniqueness rule of Create
func (r *LeagueRepository) Update(ctx context.Context, sc scope.Scope, id string, in LeagueInput, by string) (*League, error) {
	var current League
	if err := r.get(ctx, sc, id, &current); err != nil {
		return nil, err
	}
	in.DelegateID = current.DelegateID
	next, err := validateLeague(sc, in)
	if err != nil {
		return nil, err
	}

	var out League
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		if next.NameLC != current.NameLC || next.SeasonLC != current.SeasonLC {
			if err := r.claim(ctx, tx, id, current.DelegateID, "name", next.Name+" "+next.Season, leagueKey(next)...); err != nil {
				return err
			}
			if err := r.release(ctx, tx, current.DelegateID, leagueKey(current)...); err != nil {
				return err
			}
		}
		updated, err := coll.Update(ctx, id, func(doc *docstore.Document) error {
			var l League
			if err := doc.Decode(&l); err != nil {
				return err
			}
			l.Name, l.NameLC = next.Name, next.NameLC
			l.Season, l.SeasonLC = next.Season, next.SeasonLC
			l.UpdatedBy = by
			replaced, err := docstore.NewDocument(id, doc.DelegateID, l)
			if err != nil {
				return err
			}
			*doc = replaced
			return nil
		})
		if err != nil {
			return r.translate(err, id)
		}
		return updated.Decode(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update league: %w", err)
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}
