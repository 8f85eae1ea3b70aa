package repository

import (
	"context"
	"fmt"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/difficulty"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/validation"
)

// TeamRepository stores teams
type TeamRepository struct {
	base
	groups *GroupRepository
	venues *VenueRepository
}

// NewTeamRepository creates a TeamRepository; c may be nil
func NewTeamRepository(store *docstore.Store, c cache.Cache, groups *GroupRepository, venues *VenueRepository) *TeamRepository {
	return &TeamRepository{
		base:   base{store: store, cache: c, collection: CollectionTeams, entity: "team"},
		groups: groups,
		venues: venues,
	}
}

func parseTier(verr *apperr.ValidationError, s *string) *difficulty.Tier {
	if s == nil || *s == "" {
		return nil
	}
	tier, ok := difficulty.ParseTier(*s)
	if !ok {
		verr.Add("tier", fmt.Sprintf("unknown tier %q", *s))
		return nil
	}
	return &tier
}

// Create adds a team to a group. Names are unique within the group.
func (r *TeamRepository) Create(ctx context.Context, sc scope.Scope, groupID string, in TeamInput) (*Team, error) {
	group, err := r.groups.Get(ctx, sc, groupID)
	if err != nil {
		return nil, err
	}

	verr := apperr.NewValidationError()
	t := Team{
		ID:         newID(),
		DelegateID: group.DelegateID,
		LeagueID:   group.LeagueID,
		GroupID:    group.ID,
		Name:       requireName(verr, "name", in.Name),
		Tier:       parseTier(verr, in.Tier),
	}
	if in.VenueID != "" {
		venue, err := r.venues.Get(ctx, sc, in.VenueID)
		switch {
		case apperr.IsNotFound(err):
			verr.Add("venueId", "unknown venue")
		case err != nil:
			return nil, err
		case venue.DelegateID != group.DelegateID:
			verr.Add("venueId", "unknown venue")
		default:
			t.VenueID = venue.ID
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	t.NameLC = validation.Normalize(t.Name)

	var out Team
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		if err := r.claim(ctx, tx, t.ID, t.DelegateID, "name", t.Name, docstore.Eq("groupId", t.GroupID), docstore.Eq("name_lc", t.NameLC)); err != nil {
			return err
		}
		doc, err := docstore.NewDocument(t.ID, t.DelegateID, t)
		if err != nil {
			return err
		}
		created, err := coll.Create(ctx, doc)
		if err != nil {
			return r.translate(err, t.ID)
		}
		return created.Decode(&out)
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// Get returns a team visible in sc
func (r *TeamRepository) Get(ctx context.Context, sc scope.Scope, id string) (*Team, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	t, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (Team, error) {
		var t Team
		err := r.get(ctx, sc, id, &t)
		return t, err
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByGroup returns the teams of a group ordered by name
func (r *TeamRepository) ListByGroup(ctx context.Context, sc scope.Scope, groupID string) ([]Team, error) {
	if _, err := r.groups.Get(ctx, sc, groupID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "group", groupID), func(ctx context.Context) ([]Team, error) {
		return list[Team](ctx, r.base, sc, "name_lc", docstore.Eq("groupId", groupID))
	})
}

// SetTier changes or clears (nil) the difficulty tier of a team
func (r *TeamRepository) SetTier(ctx context.Context, sc scope.Scope, id string, tier *string) (*Team, error) {
	var current Team
	if err := r.get(ctx, sc, id, &current); err != nil {
		return nil, err
	}
	verr := apperr.NewValidationError()
	next := parseTier(verr, tier)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	updated, err := r.coll().Update(ctx, id, func(doc *docstore.Document) error {
		var t Team
		if err := doc.Decode(&t); err != nil {
			return err
		}
		t.Tier = next
		replaced, err := docstore.NewDocument(id, doc.DelegateID, t)
		if err != nil {
			return err
		}
		*doc = replaced
		return nil
	})
	if err != nil {
		return nil, r.translate(err, id)
	}

	var out Team
	if err := updated.Decode(&out); err != nil {
		return nil, err
	}
	// match scores derive from tiers
	r.invalidate(ctx, out.DelegateID, CollectionMatches)
	return &out, nil
}
