package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/rbac"
	"github.com/arbitros/designaciones/pkg/rules"
	"github.com/arbitros/designaciones/pkg/scope"
)

// RuleRepository stores referee internal rules. Rules are never deleted;
// SetEnabled toggles them.
type RuleRepository struct {
	base
	referees *RefereeRepository
}

// NewRuleRepository creates a RuleRepository; c may be nil
func NewRuleRepository(store *docstore.Store, c cache.Cache, referees *RefereeRepository) *RuleRepository {
	return &RuleRepository{
		base:     base{store: store, cache: c, collection: CollectionRules, entity: "rule"},
		referees: referees,
	}
}

// SaveRuleRequest creates a rule when RuleID is empty and replaces it otherwise
type SaveRuleRequest struct {
	RuleID    string
	RefereeID string
	Input     rules.Input
	UpdatedBy string
}

// writable loads the referee a rule write targets. A caller without write
// permission, or a referee outside the caller's scope, is denied without
// revealing whether the referee exists.
func (r *RuleRepository) writable(ctx context.Context, sc scope.Scope, refereeID string) (*Referee, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	if !rbac.CanWriteRules(sc.Role) {
		return nil, apperr.Forbidden()
	}
	ref, err := r.referees.Get(ctx, sc, refereeID)
	if apperr.IsNotFound(err) {
		return nil, apperr.Forbidden()
	}
	return ref, err
}

// Save validates and stores a rule
func (r *RuleRepository) Save(ctx context.Context, sc scope.Scope, req SaveRuleRequest) (*rules.Rule, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	if !rbac.CanWriteRules(sc.Role) {
		return nil, apperr.Forbidden()
	}

	refereeID := strings.TrimSpace(req.RefereeID)
	var existing *rules.Rule
	if req.RuleID != "" {
		existing = &rules.Rule{}
		if err := r.get(ctx, sc, req.RuleID, existing); err != nil {
			return nil, err
		}
		if refereeID != "" && refereeID != existing.RefereeID {
			return nil, apperr.FieldError("refereeId", "rule belongs to another referee")
		}
		refereeID = existing.RefereeID
	}

	ref, err := r.writable(ctx, sc, refereeID)
	if err != nil {
		return nil, err
	}

	rule, err := rules.Validate(req.Input)
	if err != nil {
		return nil, err
	}
	rule.ID = req.RuleID
	if rule.ID == "" {
		rule.ID = newID()
	}
	// Edits leave the enabled flag alone unless it is sent
	if existing != nil && req.Input.Enabled == nil {
		rule.Enabled = existing.Enabled
	}
	rule.RefereeID = ref.ID
	rule.DelegateID = ref.DelegateID
	rule.UpdatedBy = req.UpdatedBy

	doc, err := docstore.NewDocument(rule.ID, rule.DelegateID, rule)
	if err != nil {
		return nil, err
	}
	stored, err := r.coll().Put(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}
	return r.finish(ctx, stored)
}

// Get returns a rule visible in sc
func (r *RuleRepository) Get(ctx context.Context, sc scope.Scope, id string) (*rules.Rule, error) {
	var rule rules.Rule
	if err := r.get(ctx, sc, id, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListByReferee returns every rule of a referee, enabled or not
func (r *RuleRepository) ListByReferee(ctx context.Context, sc scope.Scope, refereeID string) ([]rules.Rule, error) {
	if _, err := r.referees.Get(ctx, sc, refereeID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.cache, r.key(sc, "referee", refereeID), func(ctx context.Context) ([]rules.Rule, error) {
		return list[rules.Rule](ctx, r.base, sc, "updatedAt", docstore.Eq("refereeId", refereeID))
	})
}

// ListEnabledByReferees returns the enabled rules of each referee in refereeIDs.
// Referees without rules are absent from the result.
func (r *RuleRepository) ListEnabledByReferees(ctx context.Context, sc scope.Scope, refereeIDs []string) (map[string][]rules.Rule, error) {
	if err := sc.Require(); err != nil {
		return nil, err
	}
	out := make(map[string][]rules.Rule)
	if len(refereeIDs) == 0 {
		return out, nil
	}

	ids := append([]string(nil), refereeIDs...)
	sort.Strings(ids)
	found, err := list[rules.Rule](ctx, r.base, sc, "refereeId", docstore.In("refereeId", ids...))
	if err != nil {
		return nil, err
	}
	for _, rule := range found {
		if rule.Enabled {
			out[rule.RefereeID] = append(out[rule.RefereeID], rule)
		}
	}
	return out, nil
}

// SetEnabled toggles a rule
func (r *RuleRepository) SetEnabled(ctx context.Context, sc scope.Scope, id string, enabled bool, by string) (*rules.Rule, error) {
	current, err := r.Get(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.writable(ctx, sc, current.RefereeID); err != nil {
		return nil, err
	}

	updated, err := r.coll().Update(ctx, id, func(doc *docstore.Document) error {
		var rule rules.Rule
		if err := doc.Decode(&rule); err != nil {
			return err
		}
		rule.Enabled = enabled
		rule.UpdatedBy = by
		replaced, err := docstore.NewDocument(id, doc.DelegateID, rule)
		if err != nil {
			return err
		}
		*doc = replaced
		return nil
	})
	if err != nil {
		return nil, r.translate(err, id)
	}
	return r.finish(ctx, updated)
}

func (r *RuleRepository) finish(ctx context.Context, doc *docstore.Document) (*rules.Rule, error) {
	var rule rules.Rule
	if err := doc.Decode(&rule); err != nil {
		return nil, err
	}
	r.invalidate(ctx, rule.DelegateID)
	return &rule, nil
}
