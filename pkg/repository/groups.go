package repository

import (
	"context"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/validation"
)

// GroupRepository stores league groups
type GroupRepository struct {
	base
	leagues *LeagueRepository
}

// NewGroupRepository creates a GroupRepository; c may be nil
func NewGroupRepository(store *docstore.Store, c cache.Cache, leagues *LeagueRepository) *GroupRepository {
	return &GroupRepository{
		base:    base{store: store, cache: c, collection: CollectionGroups, entity: "group"},
		leagues: leagues,
	}
}

// Create adds a group to a league. Names are unique within the league.
func (r *GroupRepository) Create(ctx context.Context, sc scope.Scope, leagueID string, in GroupInput) (*Group, error) {
	league, err := r.leagues.Get(ctx, sc, leagueID)
	if err != nil {
		return nil, err
	}

	verr := apperr.NewValidationError()
	g := Group{
		ID:         newID(),
		DelegateID: league.DelegateID,
		LeagueID:   league.ID,
		Name:       requireName(verr, "name", in.Name),
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	g.NameLC = validation.Normalize(g.Name)

	var out Group
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		if err := r.claim(ctx, tx, g.ID, g.DelegateID, "name", g.Name, docstore.Eq("leagueId", g.LeagueID), docstore.Eq("name_lc", g.NameLC)); err != nil {
			return err
		}
		doc, err := docstore.NewDocument(g.ID, g.DelegateID, g)
		if err != nil {
			return err
		}
		created, err := coll.Create(ctx, doc)
		if err != nil {
			return r.translate(err, g.ID)
		}
		return created.Decode(&out)
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// Get returns a group visible in sc
func (r *GroupRepository) Get(ctx context.Context, sc scope.Scope, id string) (*Group, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	g, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (Group, error) {
		var g Group
		err := r.get(ctx, sc, id, &g)
		return g, err
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByLeague returns the groups of a league ordered by name
func (r *GroupRepository) ListByLeague(ctx context.Context, sc scope.Scope, leagueID string) ([]Group, error) {
	if _, err := r.leagues.Get(ctx, sc, leagueID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "league", leagueID), func(ctx context.Context) ([]Group, error) {
		return list[Group](ctx, r.base, sc, "name_lc", docstore.Eq("leagueId", leagueID))
	})
}
