package docstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLimit is the page size used when Query.Limit is zero
	DefaultLimit = 100
	// MaxLimit caps Query.Limit
	MaxLimit = 500
)

// Filter restricts a query to documents whose field equals Value, or is one of In
// when In is non-nil. Fields are compared as text.
type Filter struct {
	Field string
	Value string
	In    []string
}

// Eq returns an equality filter
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// In returns a membership filter. An empty list matches nothing.
func In(field string, values ...string) Filter {
	if values == nil {
		values = []string{}
	}
	return Filter{Field: field, In: values}
}

// Query selects documents of one collection
type Query struct {
	// DelegateID restricts results to one delegate; empty means every delegate
	DelegateID string
	Filters    []Filter
	// OrderBy is a document field; id always breaks ties
	OrderBy string
	Desc    bool
	Limit   int
	Cursor  string
}

// Page is one page of query results. NextCursor is empty on the last page.
type Page struct {
	Docs       []Document
	NextCursor string
}

type cursor struct {
	Value string `json:"v"`
	ID    string `json:"id"`
}

func encodeCursor(c cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(s string) (cursor, error) {
	var c cursor
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, ErrInvalidCursor
	}
	if err := json.Unmarshal(b, &c); err != nil || c.ID == "" {
		return c, ErrInvalidCursor
	}
	return c, nil
}

type builder struct {
	dialect Dialect
	where   []string
	args    []interface{}
}

func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// where builds the shared WHERE clause of Query and Count
func (c *Collection) where(q Query) (*builder, error) {
	b := &builder{dialect: c.store.dialect}
	b.where = append(b.where, "collection = "+b.arg(c.name))
	if q.DelegateID != "" {
		b.where = append(b.where, "delegate_id = "+b.arg(q.DelegateID))
	}

	for _, f := range q.Filters {
		if err := validField(f.Field); err != nil {
			return nil, err
		}
		expr := c.store.dialect.Field(f.Field)
		if f.In == nil {
			b.where = append(b.where, expr+" = "+b.arg(f.Value))
			continue
		}
		if len(f.In) == 0 {
			b.where = append(b.where, "1 = 0")
			continue
		}
		placeholders := make([]string, len(f.In))
		for i, v := range f.In {
			placeholders[i] = b.arg(v)
		}
		b.where = append(b.where, expr+" IN ("+strings.Join(placeholders, ", ")+")")
	}
	return b, nil
}

// Query returns one page of matching documents
func (c *Collection) Query(ctx context.Context, q Query) (page *Page, err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "query", start, err) }()

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	orderExpr := "id"
	if q.OrderBy != "" {
		if err := validField(q.OrderBy); err != nil {
			return nil, err
		}
		orderExpr = "COALESCE(" + c.store.dialect.Field(q.OrderBy) + ", '')"
	}

	b, err := c.where(q)
	if err != nil {
		return nil, err
	}

	dir, cmp := "ASC", ">"
	if q.Desc {
		dir, cmp = "DESC", "<"
	}
	if q.Cursor != "" {
		cur, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		// placeholders are allocated in text order for positional dialects
		after := b.arg(cur.Value)
		same := b.arg(cur.Value)
		afterID := b.arg(cur.ID)
		b.where = append(b.where, fmt.Sprintf("(%s %s %s OR (%s = %s AND id %s %s))",
			orderExpr, cmp, after, orderExpr, same, cmp, afterID))
	}

	query := fmt.Sprintf(
		"SELECT id, delegate_id, data, %s FROM documents WHERE %s ORDER BY %s %s, id %s LIMIT %d",
		orderExpr, strings.Join(b.where, " AND "), orderExpr, dir, dir, limit+1,
	)

	rows, err := c.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	defer rows.Close()

	page = &Page{Docs: []Document{}}
	var last cursor
	for rows.Next() {
		var doc Document
		var data, orderValue string
		if err := rows.Scan(&doc.ID, &doc.DelegateID, &data, &orderValue); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.name, err)
		}
		if len(page.Docs) == limit {
			page.NextCursor = encodeCursor(last)
			break
		}
		doc.Data = json.RawMessage(data)
		page.Docs = append(page.Docs, doc)
		last = cursor{Value: orderValue, ID: doc.ID}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", c.name, err)
	}

	return page, nil
}

// All follows cursors until every matching document is read
func (c *Collection) All(ctx context.Context, q Query) ([]Document, error) {
	var docs []Document
	for {
		page, err := c.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page.Docs...)
		if page.NextCursor == "" {
			return docs, nil
		}
		q.Cursor = page.NextCursor
	}
}

// Count returns the number of matching documents. Order, limit and cursor are ignored.
func (c *Collection) Count(ctx context.Context, q Query) (n int, err error) {
	start := time.Now()
	defer func() { c.store.observe(c.name, "count", start, err) }()

	b, err := c.where(q)
	if err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM documents WHERE " + strings.Join(b.where, " AND ")
	if err := c.q.QueryRowContext(ctx, query, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.name, err)
	}
	return n, nil
}
