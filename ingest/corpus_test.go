package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hafidzyami/CivilConstructionApp-sub000/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndLoadCorpus(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	regionalKey, err := SaveDocument(ctx, store, regionalDoc())
	require.NoError(t, err)
	assert.Equal(t, "corpus/seoul.json", regionalKey)

	nationalKey, err := SaveDocument(ctx, store, nationalDoc())
	require.NoError(t, err)
	assert.Equal(t, "corpus/building_act.json", nationalKey)

	require.NoError(t, store.Put(ctx, "corpus/README.md", strings.NewReader("notes")))

	docs, err := LoadCorpus(ctx, store)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Building Act", docs[0].Name)
	assert.Equal(t, "Seoul Building Ordinance", docs[1].Name)
	assert.Equal(t, []string{"article_55"}, docs[1].Articles[0].RelatedTo)

	require.NoError(t, Validate(docs...))
}

func TestLoadDocument_Errors(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := LoadDocument(ctx, store, "corpus/missing.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put(ctx, "corpus/bad.json", strings.NewReader(`{"level":"National"}`)))
	_, err = LoadCorpus(ctx, store)
	assert.ErrorContains(t, err, "corpus/bad.json")
}

func TestSaveDocument_RequiresName(t *testing.T) {
	_, err := SaveDocument(context.Background(), newTestStorage(t), &RegulationDocument{})
	assert.Error(t, err)
}

func TestStoreSource(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	src := filepath.Join(t.TempDir(), "Building Act.txt")
	require.NoError(t, os.WriteFile(src, []byte(sampleRegulation), 0o600))

	key, err := StoreSource(ctx, store, src)
	require.NoError(t, err)
	assert.Equal(t, "sources/Building_Act.txt", key)

	keys, err := store.List(ctx, storage.SourcePrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}
