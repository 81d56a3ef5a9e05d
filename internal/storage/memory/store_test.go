package memory

import (
	"context"
	"testing"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Compliance(t *testing.T) {
	compliance.RunStorageComplianceTest(t, func() (storage.Backend, func()) {
		return NewStore(), func() {}
	})
}

func TestMemoryStore_DoesNotAlias(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	list := []domain.Reminder{{ID: "a", Title: "Dentist", Kind: domain.KindOneOff, OneOff: &domain.OneOff{}}}
	require.NoError(t, store.Save(ctx, "k", list))
	list[0].OneOff.Done = true

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, got[0].OneOff.Done)
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	_, err := NewStore().Load(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
}
