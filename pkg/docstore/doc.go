// Package docstore is the document database behind the repositories.
//
// # Overview
//
// Documents are JSON objects grouped in collections and stored in one SQL table:
//
//	documents(collection, id, delegate_id, data, created_at, updated_at)
//
// delegate_id is a column so tenant filters never depend on document content.
// The store writes "id", "createdAt" and "updatedAt" into every body using a
// fixed-width UTC layout, so ordering by those keys is chronological.
//
// # Dialects
//
// Postgres (lib/pq, jsonb, row locks with FOR UPDATE) is used in production.
// SQLite (mattn/go-sqlite3, json_extract) backs tests and single-node setups.
//
// # Queries
//
//	page, err := store.Collection("teams").Query(ctx, docstore.Query{
//		DelegateID: "del_a",
//		Filters:    []docstore.Filter{docstore.Eq("groupId", groupID)},
//		OrderBy:    "name_lc",
//		Limit:      50,
//	})
//
// Pages are keyset-paginated: pass Page.NextCursor back as Query.Cursor.
//
// # Transactions
//
// Update is a read-modify-write inside one transaction. Batch groups several
// writes; collections obtained from the Tx share it.
package docstore
