package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/scope"
)

// Collection names
const (
	CollectionLeagues   = "leagues"
	CollectionGroups    = "groups"
	CollectionTeams     = "teams"
	CollectionVenues    = "venues"
	CollectionReferees  = "referees"
	CollectionMatchdays = "matchdays"
	CollectionMatches   = "matches"
	CollectionRules     = "referee_rules"

	// CollectionUniqueKeys holds one marker per claimed unique key
	CollectionUniqueKeys = "unique_keys"
)

// MaxNameLength bounds every display name, in characters
const MaxNameLength = 120

// base holds what every entity repository shares
type base struct {
	store      *docstore.Store
	cache      cache.Cache
	collection string
	entity     string
}

func (b base) coll() *docstore.Collection {
	return b.store.Collection(b.collection)
}

// key builds a cache key under the scope and collection
func (b base) key(sc scope.Scope, parts ...string) string {
	return sc.CacheKey(append([]string{b.collection}, parts...)...)
}

// invalidate drops cached reads of the collection for delegateID and the unscoped view
func (b base) invalidate(ctx context.Context, delegateID string, collections ...string) {
	collections = append([]string{b.collection}, collections...)
	prefixes := make([]string, 0, 2*len(collections))
	for _, c := range collections {
		prefixes = append(prefixes, scope.PrefixFor(delegateID)+c+":")
		if delegateID != "" {
			prefixes = append(prefixes, scope.PrefixFor("")+c+":")
		}
	}
	cache.Invalidate(ctx, b.cache, prefixes...)
}

// get loads id into v when it is visible in sc. Documents of other delegates
// are reported as not found.
func (b base) get(ctx context.Context, sc scope.Scope, id string, v interface{}) error {
	if err := sc.Require(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.NotFound(b.entity, id)
	}

	doc, err := b.coll().Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(b.entity, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", b.entity, err)
	}
	if !sc.Allows(doc.DelegateID) {
		return apperr.NotFound(b.entity, id)
	}
	return doc.Decode(v)
}

// list returns every document visible in sc matching filters, decoded into T
func list[T any](ctx context.Context, b base, sc scope.Scope, orderBy string, filters ...docstore.Filter) ([]T, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	delegateID, _ := sc.Filter()
	docs, err := b.coll().All(ctx, docstore.Query{
		DelegateID: delegateID,
		Filters:    filters,
		OrderBy:    orderBy,
		Limit:      docstore.MaxLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.collection, err)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ownerFor picks the delegate a new document belongs to. Scoped callers always
// write into their own scope; an unscoped SUPERUSUARIO must name the delegate.
func ownerFor(sc scope.Scope, requested string, verr *apperr.ValidationError) (string, error) {
	if err := sc.Require(); err != nil {
		return "", err
	}
	if delegateID, scoped := sc.Filter(); scoped {
		requested = strings.TrimSpace(requested)
		if requested != "" && requested != delegateID {
			return "", apperr.Forbidden()
		}
		return delegateID, nil
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		verr.Add("delegateId", "delegateId is required when no delegate is selected")
		return "", nil
	}
	if !scope.ValidDelegateID(requested) {
		verr.Add("delegateId", "invalid delegate id")
		return "", nil
	}
	return requested, nil
}

// requireName trims s and records a field error when it is empty or too long
func requireName(verr *apperr.ValidationError, field, s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		verr.Add(field, field+" is required")
	case utf8.RuneCountInString(s) > MaxNameLength:
		verr.Add(field, fmt.Sprintf("%s must be at most %d characters", field, MaxNameLength))
	}
	return s
}

// uniqueKey is the id of the marker document that claims filters for the delegate
func (b base) uniqueKey(delegateID string, filters []docstore.Filter) string {
	parts := make([]string, 0, len(filters)+2)
	parts = append(parts, b.collection, strconv.Quote(delegateID))
	for _, f := range filters {
		parts = append(parts, f.Field+"="+strconv.Quote(f.Value))
	}
	return strings.Join(parts, "|")
}

// claim reserves the equality filters as a unique key for document id inside tx.
// Concurrent claims of the same key race on the marker's primary key, so only
// one commits. Matching documents that predate their marker are still found by
// query. A taken key is a ConflictError on field.
func (b base) claim(ctx context.Context, tx *docstore.Tx, id, delegateID, field, value string, filters ...docstore.Filter) error {
	page, err := tx.Collection(b.collection).Query(ctx, docstore.Query{DelegateID: delegateID, Filters: filters, Limit: 2})
	if err != nil {
		return fmt.Errorf("failed to check %s uniqueness: %w", b.entity, err)
	}
	for _, doc := range page.Docs {
		if doc.ID != id {
			return apperr.Conflict(b.entity, field, value)
		}
	}

	marker, err := docstore.NewDocument(b.uniqueKey(delegateID, filters), delegateID, uniqueMarker{Collection: b.collection, DocumentID: id})
	if err != nil {
		return err
	}
	_, err = tx.Collection(CollectionUniqueKeys).Create(ctx, marker)
	switch {
	case errors.Is(err, docstore.ErrExists):
		return apperr.Conflict(b.entity, field, value)
	case err != nil:
		return fmt.Errorf("failed to claim %s %s: %w", b.entity, field, err)
	}
	return nil
}

// release drops the marker claimed for filters. A missing marker is not an error.
func (b base) release(ctx context.Context, tx *docstore.Tx, delegateID string, filters ...docstore.Filter) error {
	err := tx.Collection(CollectionUniqueKeys).Delete(ctx, b.uniqueKey(delegateID, filters))
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("failed to release %s key: %w", b.entity, err)
	}
	return nil
}

type uniqueMarker struct {
	Collection string `json:"collection"`
	DocumentID string `json:"documentId"`
}

func newID() string {
	return uuid.NewString()
}

// translate maps store sentinels to application errors
func (b base) translate(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound(b.entity, id)
	case errors.Is(err, docstore.ErrExists):
		return apperr.Conflict(b.entity, "id", id)
	}
	return err
}
