package store_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/internal/application"
	"docketvoice/internal/domain"
	"docketvoice/internal/infra/store"
)

var (
	_ application.PetitionWriter = (*store.PetitionFile)(nil)
	_ application.ProgressStore  = (*store.ProgressStore)(nil)
)

func sampleData() *domain.PetitionData {
	d := domain.NewPetitionData()
	d.CaseType = domain.CaseChapter7
	d.Name = "Jane Doe"
	d.Assets = append(d.Assets, domain.Asset{Item: "car", Value: "$5,000"})
	return d
}

func TestPetitionFile_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	pf := store.NewPetitionFile(dir)

	data := sampleData()
	path, err := pf.Write(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, store.PetitionFileName), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be gone")

	raw, err := os.ReadFile(pf.Path())
	require.NoError(t, err)

	var got domain.PetitionData
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, data.SessionID, got.SessionID)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, data.Assets, got.Assets)
	assert.Contains(t, string(raw), "\n  \"session_id\"")
}

func TestProgressStore(t *testing.T) {
	ctx := context.Background()
	ps, err := store.OpenProgressStore(filepath.Join(t.TempDir(), "db", "progress.db"))
	require.NoError(t, err)
	defer ps.Close()

	snap, err := ps.Load(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, snap)

	saved := time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC)
	require.NoError(t, ps.Save(ctx, domain.Snapshot{SessionKey: "default", Step: 3, Data: sampleData(), SavedAt: saved}))
	require.NoError(t, ps.Save(ctx, domain.Snapshot{ID: "snap-2", SessionKey: "default", Step: 5, Data: sampleData(), SavedAt: saved}))

	snap, err = ps.Load(ctx, "default")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 5, snap.Step)
	assert.Equal(t, "snap-2", snap.ID, "the latest save replaces the snapshot id")
	assert.Equal(t, "Jane Doe", snap.Data.Name)
	assert.True(t, saved.Equal(snap.SavedAt))

	other, err := ps.Load(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, ps.Delete(ctx, "default"))
	snap, err = ps.Load(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestProgressStore_Memory(t *testing.T) {
	ps, err := store.OpenProgressStore(":memory:")
	require.NoError(t, err)
	defer ps.Close()

	ctx := context.Background()
	require.NoError(t, ps.Save(ctx, domain.Snapshot{SessionKey: "k", Step: 1, Data: sampleData()}))

	snap, err := ps.Load(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.False(t, snap.SavedAt.IsZero())
	assert.NotEmpty(t, snap.ID, "an id is assigned when the snapshot has none")
}
