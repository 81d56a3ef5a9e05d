package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_Compliance(t *testing.T) {
	compliance.RunStorageComplianceTest(t, func() (storage.Backend, func()) {
		tmpDir, err := os.MkdirTemp("", "fs-store-test-*")
		require.NoError(t, err)

		store, err := NewStore(tmpDir)
		require.NoError(t, err)

		cleanup := func() {
			os.RemoveAll(tmpDir)
		}

		return store, cleanup
	})
}

func TestFSStore_KeyEscaping(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "user/../../etc"
	require.NoError(t, store.Save(ctx, key, nil))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	entries, err := os.ReadDir(store.baseDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "/")
	}
}

func TestFSStore_MigratesLegacyDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	legacy := `[{"id":"1","title":"Rent","scheduleMode":"monthDay","monthDay":1,"time":"09:00"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte(legacy), 0644))

	list, err := store.Load(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].IsRecurring())

	require.NoError(t, store.Save(ctx, "default", list))
	data, err := os.ReadFile(filepath.Join(dir, "default.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scheduleType":"MONTHLY_DAY"`)
}
