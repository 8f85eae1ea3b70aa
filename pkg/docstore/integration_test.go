//go:build integration

package docstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("designaciones_test"),
		postgres.WithUsername("designaciones"),
		postgres.WithPassword("designaciones_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, dialect, err := Open(ctx, "postgres", dsn, DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, dialect)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestPostgresIntegration_Lifecycle(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()
	leagues := s.Collection("leagues")

	_, err := leagues.Create(ctx, mustDoc(t, "l1", "del_a", map[string]string{"name_lc": "primera", "season_lc": "2026"}))
	require.NoError(t, err)
	_, err = leagues.Create(ctx, mustDoc(t, "l1", "del_a", map[string]string{"name_lc": "dup"}))
	assert.ErrorIs(t, err, ErrExists)
	_, err = leagues.Create(ctx, mustDoc(t, "l2", "del_a", map[string]string{"name_lc": "segunda", "season_lc": "2026"}))
	require.NoError(t, err)
	_, err = leagues.Create(ctx, mustDoc(t, "l3", "del_b", map[string]string{"name_lc": "tercera", "season_lc": "2026"}))
	require.NoError(t, err)

	page, err := leagues.Query(ctx, Query{DelegateID: "del_a", Filters: []Filter{Eq("season_lc", "2026")}, OrderBy: "name_lc", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, ids(page.Docs))

	page, err = leagues.Query(ctx, Query{DelegateID: "del_a", OrderBy: "name_lc", Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"l2"}, ids(page.Docs))

	_, err = leagues.Update(ctx, "l2", func(doc *Document) error {
		doc.Data = []byte(`{"name_lc":"segunda b","season_lc":"2026"}`)
		return nil
	})
	require.NoError(t, err)

	n, err := leagues.Count(ctx, Query{Filters: []Filter{In("name_lc", "segunda b", "tercera")}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, leagues.Delete(ctx, "l3"))
	assert.ErrorIs(t, leagues.Delete(ctx, "l3"), ErrNotFound)
}

// Two transactions that both see no league named primera race on the same key
// document. The loser fails on the primary key once the winner commits.
func TestPostgresIntegration_KeyDocumentSerializesCreates(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	var checked sync.WaitGroup
	checked.Add(2)
	errs := make(chan error, 2)
	for _, id := range []string{"l1", "l2"} {
		go func(id string) {
			errs <- s.Batch(ctx, func(tx *Tx) error {
				n, err := tx.Collection("leagues").Count(ctx, Query{DelegateID: "del_a", Filters: []Filter{Eq("name_lc", "primera")}})
				checked.Done()
				checked.Wait()
				if err != nil {
					return err
				}
				if n > 0 {
					return ErrExists
				}

				key, err := NewDocument("leagues|primera", "del_a", map[string]string{"documentId": id})
				if err != nil {
					return err
				}
				if _, err := tx.Collection("unique_keys").Create(ctx, key); err != nil {
					return err
				}
				doc, err := NewDocument(id, "del_a", map[string]string{"name_lc": "primera"})
				if err != nil {
					return err
				}
				_, err = tx.Collection("leagues").Create(ctx, doc)
				return err
			})
		}(id)
	}

	var failed []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], ErrExists)

	n, err := s.Collection("leagues").Count(ctx, Query{DelegateID: "del_a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
