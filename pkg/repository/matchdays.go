package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
)

// MatchdayRepository stores matchdays
type MatchdayRepository struct {
	base
	groups *GroupRepository
}

// NewMatchdayRepository creates a MatchdayRepository; c may be nil
func NewMatchdayRepository(store *docstore.Store, c cache.Cache, groups *GroupRepository) *MatchdayRepository {
	return &MatchdayRepository{
		base:   base{store: store, cache: c, collection: CollectionMatchdays, entity: "matchday"},
		groups: groups,
	}
}

// Create adds a matchday to a group. Numbers are unique within the group.
func (r *MatchdayRepository) Create(ctx context.Context, sc scope.Scope, groupID string, in MatchdayInput) (*Matchday, error) {
	group, err := r.groups.Get(ctx, sc, groupID)
	if err != nil {
		return nil, err
	}

	verr := apperr.NewValidationError()
	if in.Number < 1 {
		verr.Add("number", "number must be positive")
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		verr.Add("date", "date must be YYYY-MM-DD")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	md := Matchday{
		ID:         newID(),
		DelegateID: group.DelegateID,
		LeagueID:   group.LeagueID,
		GroupID:    group.ID,
		Number:     in.Number,
		Date:       in.Date,
	}

	var out Matchday
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		// numbers are compared through their zero-padded text form
		if err := r.claim(ctx, tx, md.ID, md.DelegateID, "number", strconv.Itoa(md.Number), docstore.Eq("groupId", md.GroupID), docstore.Eq("numberKey", numberKey(md.Number))); err != nil {
			return err
		}
		doc, err := docstore.NewDocument(md.ID, md.DelegateID, matchdayDocument{Matchday: md, NumberKey: numberKey(md.Number)})
		if err != nil {
			return err
		}
		created, err := coll.Create(ctx, doc)
		if err != nil {
			return r.translate(err, md.ID)
		}
		return created.Decode(&out)
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// matchdayDocument adds a sortable text key for the number
type matchdayDocument struct {
	Matchday
	NumberKey string `json:"numberKey"`
}

func numberKey(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// Get returns a matchday visible in sc
func (r *MatchdayRepository) Get(ctx context.Context, sc scope.Scope, id string) (*Matchday, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	md, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (Matchday, error) {
		var md Matchday
		err := r.get(ctx, sc, id, &md)
		return md, err
	})
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// ListByGroup returns the matchdays of a group in number order
func (r *MatchdayRepository) ListByGroup(ctx context.Context, sc scope.Scope, groupID string) ([]Matchday, error) {
	if _, err := r.groups.Get(ctx, sc, groupID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "group", groupID), func(ctx context.Context) ([]Matchday, error) {
		return list[Matchday](ctx, r.base, sc, "numberKey", docstore.Eq("groupId", groupID))
	})
}
