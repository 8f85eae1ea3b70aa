package repository

import (
	"context"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/validation"
)

// VenueRepository stores venues
type VenueRepository struct {
	base
}

// NewVenueRepository creates a VenueRepository; c may be nil
func NewVenueRepository(store *docstore.Store, c cache.Cache) *VenueRepository {
	return &VenueRepository{base{store: store, cache: c, collection: CollectionVenues, entity: "venue"}}
}

// Create adds a venue. Names are unique within the delegate.
func (r *VenueRepository) Create(ctx context.Context, sc scope.Scope, in VenueInput) (*Venue, error) {
	verr := apperr.NewValidationError()
	v := Venue{
		ID:        newID(),
		Name:      requireName(verr, "name", in.Name),
		Municipio: requireName(verr, "municipio", in.Municipio),
		Address:   in.Address,
	}
	delegateID, err := ownerFor(sc, in.DelegateID, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	v.DelegateID = delegateID
	v.NameLC = validation.Normalize(v.Name)
	v.MunicipioLC = validation.Normalize(v.Municipio)

	var out Venue
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		if err := r.claim(ctx, tx, v.ID, v.DelegateID, "name", v.Name, docstore.Eq("name_lc", v.NameLC)); err != nil {
			return err
		}
		doc, err := docstore.NewDocument(v.ID, v.DelegateID, v)
		if err != nil {
			return err
		}
		created, err := coll.Create(ctx, doc)
		if err != nil {
			return r.translate(err, v.ID)
		}
		return created.Decode(&out)
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// Get returns a venue visible in sc
func (r *VenueRepository) Get(ctx context.Context, sc scope.Scope, id string) (*Venue, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	v, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (Venue, error) {
		var v Venue
		err := r.get(ctx, sc, id, &v)
		return v, err
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns the venues visible in sc ordered by name
func (r *VenueRepository) List(ctx context.Context, sc scope.Scope) ([]Venue, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "list"), func(ctx context.Context) ([]Venue, error) {
		return list[Venue](ctx, r.base, sc, "name_lc")
	})
}
