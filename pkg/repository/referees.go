package repository

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/difficulty"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/validation"
)

// DefaultRefereeLevel is used when a referee is created without a level
const DefaultRefereeLevel = 2

// RefereeRepository stores referees
type RefereeRepository struct {
	base
}

// NewRefereeRepository creates a RefereeRepository; c may be nil
func NewRefereeRepository(store *docstore.Store, c cache.Cache) *RefereeRepository {
	return &RefereeRepository{base{store: store, cache: c, collection: CollectionReferees, entity: "referee"}}
}

// Create adds a referee. Names are unique within the delegate.
func (r *RefereeRepository) Create(ctx context.Context, sc scope.Scope, in RefereeInput) (*Referee, error) {
	verr := apperr.NewValidationError()
	ref := Referee{
		ID:        newID(),
		Name:      requireName(verr, "name", in.Name),
		Municipio: strings.TrimSpace(in.Municipio),
		Level:     DefaultRefereeLevel,
		Active:    true,
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			verr.Add("email", "invalid email address")
		}
		ref.Email = email
	}
	if in.Level != nil {
		if *in.Level < difficulty.MinMDS || *in.Level > difficulty.MaxMDS {
			verr.Add("level", fmt.Sprintf("level must be between %d and %d", difficulty.MinMDS, difficulty.MaxMDS))
		}
		ref.Level = *in.Level
	}
	if in.Active != nil {
		ref.Active = *in.Active
	}
	delegateID, err := ownerFor(sc, in.DelegateID, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	ref.DelegateID = delegateID
	ref.NameLC = validation.Normalize(ref.Name)
	ref.MunicipioLC = validation.Normalize(ref.Municipio)

	var out Referee
	err = r.store.Batch(ctx, func(tx *docstore.Tx) error {
		coll := tx.Collection(r.collection)
		if err := r.claim(ctx, tx, ref.ID, ref.DelegateID, "name", ref.Name, docstore.Eq("name_lc", ref.NameLC)); err != nil {
			return err
		}
		doc, err := docstore.NewDocument(ref.ID, ref.DelegateID, ref)
		if err != nil {
			return err
		}
		created, err := coll.Create(ctx, doc)
		if err != nil {
			return r.translate(err, ref.ID)
		}
		return created.Decode(&out)
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, out.DelegateID)
	return &out, nil
}

// Get returns a referee visible in sc
func (r *RefereeRepository) Get(ctx context.Context, sc scope.Scope, id string) (*Referee, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	ref, err := cache.Fetch(ctx, r.cache, r.key(sc, "id", id), func(ctx context.Context) (Referee, error) {
		var ref Referee
		err := r.get(ctx, sc, id, &ref)
		return ref, err
	})
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// List returns the referees visible in sc ordered by name
func (r *RefereeRepository) List(ctx context.Context, sc scope.Scope, activeOnly bool) ([]Referee, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	all, err := cache.Fetch(ctx, r.cache, r.key(sc, "list"), func(ctx context.Context) ([]Referee, error) {
		return list[Referee](ctx, r.base, sc, "name_lc")
	})
	if err != nil || !activeOnly {
		return all, err
	}

	active := make([]Referee, 0, len(all))
	for _, ref := range all {
		if ref.Active {
			active = append(active, ref)
		}
	}
	return active, nil
}
