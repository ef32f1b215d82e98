package firestore_test

import (
	"context"
	"os"
	"testing"

	gfirestore "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/repository/firestore"
)

// newEmulatorStore connects to the Firestore emulator; tests are skipped without it
func newEmulatorStore(t *testing.T) (repository.DocumentStore, string) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping Firestore integration tests")
	}

	client, err := gfirestore.NewClient(context.Background(), "route-drafts-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := firestore.NewDocumentStore(firestore.NewClientForTest(client, zap.NewNop()))
	// every test works under its own draft id so runs do not interfere
	return store, "drafts/" + uuid.NewString()
}

func TestDocumentStore_SetMergeGet(t *testing.T) {
	store, root := newEmulatorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, root, []byte(`{"ownerId":"u1","meta":{"a":1,"b":2}}`)))
	require.NoError(t, store.Merge(ctx, root, []byte(`{"meta":{"a":5},"name":"Ride"}`)))

	data, err := store.Get(ctx, root)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ownerId":"u1","meta":{"a":5},"name":"Ride"}`, string(data))
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store, root := newEmulatorStore(t)

	_, err := store.Get(context.Background(), root)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestDocumentStore_CommitAndDeleteTree(t *testing.T) {
	store, root := newEmulatorStore(t)
	ctx := context.Background()

	batch := domain.NewWriteBatch()
	require.NoError(t, batch.Set(root, map[string]string{"ownerId": "u1"}))
	require.NoError(t, batch.Set(root+"/data/segments", map[string]interface{}{"segments": []string{}}))
	require.NoError(t, batch.Set(root+"/segments/s1/data/coords", map[string]interface{}{
		"coordinates": []map[string]float64{{"lng": 2.1, "lat": 41.3}},
	}))
	require.NoError(t, store.Commit(ctx, batch))

	docs, err := store.GetMany(ctx, []string{root + "/data/segments", root + "/segments/s1/data/coords", root + "/data/pois"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	require.NoError(t, store.DeleteTree(ctx, root))

	docs, err = store.GetMany(ctx, []string{root, root + "/data/segments", root + "/segments/s1/data/coords"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStore_CommitRejectsNonObject(t *testing.T) {
	store, root := newEmulatorStore(t)
	ctx := context.Background()

	batch := domain.NewWriteBatch()
	require.NoError(t, batch.Set(root, map[string]string{"ownerId": "u1"}))
	require.NoError(t, batch.Set(root+"/data/pois", []int{1, 2}))

	err := store.Commit(ctx, batch)
	assert.ErrorIs(t, err, repository.ErrEncoding)

	_, err = store.Get(ctx, root)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}
