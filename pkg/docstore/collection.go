package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Collection is a named set of documents
type Collection struct {
	store *Store
	name  string
	q     querier
	inTx  bool
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) ph(n int) string {
	return c.store.dialect.Placeholder(n)
}

// Get returns the document with id
func (c *Collection) Get(ctx context.Context, id string) (doc *Document, err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "get", start, err) }()

	return c.get(ctx, c.q, id, false)
}

func (c *Collection) get(ctx context.Context, q querier, id string, lock bool) (*Document, error) {
	query := fmt.Sprintf(
		"SELECT id, delegate_id, data FROM documents WHERE collection = %s AND id = %s",
		c.ph(1), c.ph(2),
	)
	if lock {
		query += c.store.dialect.LockClause()
	}

	var doc Document
	var data string
	err := q.QueryRowContext(ctx, query, c.name, id).Scan(&doc.ID, &doc.DelegateID, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", c.name, id, err)
	}
	doc.Data = json.RawMessage(data)
	return &doc, nil
}

// Create inserts doc and fails with ErrExists when the id is taken
func (c *Collection) Create(ctx context.Context, doc Document) (out *Document, err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "create", start, err) }()

	now := c.store.now()
	data, err := stamp(doc.Data, doc.ID, now, now)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"INSERT INTO documents (collection, id, delegate_id, data, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s)",
		c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5), c.ph(6),
	)
	if _, err := c.q.ExecContext(ctx, query, c.name, doc.ID, doc.DelegateID, string(data), now, now); err != nil {
		if c.store.dialect.IsUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("failed to create %s/%s: %w", c.name, doc.ID, err)
	}

	return &Document{ID: doc.ID, DelegateID: doc.DelegateID, Data: data}, nil
}

// Put creates or replaces doc. createdAt survives replacement.
func (c *Collection) Put(ctx context.Context, doc Document) (out *Document, err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "put", start, err) }()

	err = c.withTx(ctx, func(q querier) error {
		now := c.store.now()
		createdAt := now
		existing, getErr := c.get(ctx, q, doc.ID, true)
		switch {
		case getErr == nil:
			if t, ok := createdAtOf(existing.Data); ok {
				createdAt = t
			}
		case !errors.Is(getErr, ErrNotFound):
			return getErr
		}

		data, stampErr := stamp(doc.Data, doc.ID, createdAt, now)
		if stampErr != nil {
			return stampErr
		}

		var query string
		var args []interface{}
		if existing == nil {
			query = fmt.Sprintf(
				"INSERT INTO documents (collection, id, delegate_id, data, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s)",
				c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5), c.ph(6),
			)
			args = []interface{}{c.name, doc.ID, doc.DelegateID, string(data), createdAt, now}
		} else {
			query = fmt.Sprintf(
				"UPDATE documents SET delegate_id = %s, data = %s, updated_at = %s WHERE collection = %s AND id = %s",
				c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5),
			)
			args = []interface{}{doc.DelegateID, string(data), now, c.name, doc.ID}
		}
		if _, execErr := q.ExecContext(ctx, query, args...); execErr != nil {
			return fmt.Errorf("failed to put %s/%s: %w", c.name, doc.ID, execErr)
		}

		out = &Document{ID: doc.ID, DelegateID: doc.DelegateID, Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update reads the document, applies fn to its body and writes the result in
// one transaction. Returning an error from fn aborts without writing.
func (c *Collection) Update(ctx context.Context, id string, fn func(doc *Document) error) (out *Document, err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "update", start, err) }()

	err = c.withTx(ctx, func(q querier) error {
		doc, getErr := c.get(ctx, q, id, true)
		if getErr != nil {
			return getErr
		}
		createdAt, ok := createdAtOf(doc.Data)
		if !ok {
			createdAt = c.store.now()
		}

		if fnErr := fn(doc); fnErr != nil {
			return fnErr
		}

		now := c.store.now()
		data, stampErr := stamp(doc.Data, id, createdAt, now)
		if stampErr != nil {
			return stampErr
		}

		query := fmt.Sprintf(
			"UPDATE documents SET delegate_id = %s, data = %s, updated_at = %s WHERE collection = %s AND id = %s",
			c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5),
		)
		if _, execErr := q.ExecContext(ctx, query, doc.DelegateID, string(data), now, c.name, id); execErr != nil {
			return fmt.Errorf("failed to update %s/%s: %w", c.name, id, execErr)
		}

		out = &Document{ID: id, DelegateID: doc.DelegateID, Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the document with id
func (c *Collection) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "delete", start, err) }()

	query := fmt.Sprintf("DELETE FROM documents WHERE collection = %s AND id = %s", c.ph(1), c.ph(2))
	res, err := c.q.ExecContext(ctx, query, c.name, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// withTx runs fn inside the bound transaction or a new one
func (c *Collection) withTx(ctx context.Context, fn func(q querier) error) error {
	if c.inTx {
		return fn(c.q)
	}
	return c.store.Batch(ctx, func(tx *Tx) error {
		return fn(tx.tx)
	})
}
