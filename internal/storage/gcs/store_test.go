package gcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	backend "github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/compliance"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

func TestGCSStore_Compliance(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set, skipping GCS tests")
	}

	compliance.RunStorageComplianceTest(t, func() (backend.Backend, func()) {
		// Note: This assumes Application Default Credentials are set up
		// and point to a valid project with access to the bucket.
		ctx := context.Background()
		prefix := fmt.Sprintf("reminders-test-%d/", time.Now().UnixNano())

		store, err := NewStore(ctx, bucket, prefix)
		require.NoError(t, err)

		// Cleanup deletes every object under the test prefix.
		cleanup := func() {
			defer store.Close()
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			it := store.client.Bucket(bucket).Objects(cleanupCtx, &storage.Query{Prefix: prefix})
			for {
				attrs, err := it.Next()
				if errors.Is(err, iterator.Done) {
					break
				}
				if err != nil {
					t.Logf("Warning: failed to list objects during cleanup: %v", err)
					break
				}
				if err := store.client.Bucket(bucket).Object(attrs.Name).Delete(cleanupCtx); err != nil {
					t.Logf("Warning: failed to delete object %s: %v", attrs.Name, err)
				}
			}
		}

		return store, cleanup
	})
}

func TestObjectNames(t *testing.T) {
	s := &Store{prefix: "prod/"}

	name, err := s.listObject("user/42")
	require.NoError(t, err)
	require.Equal(t, "prod/lists/user%2F42.json", name)

	name, err = s.markerObject("last_digest_day")
	require.NoError(t, err)
	require.Equal(t, "prod/markers/last_digest_day", name)

	_, err = s.listObject("")
	require.ErrorIs(t, err, backend.ErrInvalidKey)
}
