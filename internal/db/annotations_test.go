package db

import (
	"context"
	"testing"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "ACT 1, SCENE 1": {
    "1": {"play": "Thunder and lightning. Enter three Witches."},
    "10": {"play": "ALL: Fair is foul, and foul is fair:", "notes": ["Chiasmus.", "Sets the play's moral inversion."]}
  },
  "ACT 2, SCENE 1": {
    "33": {"play": "MACBETH: Is this a dagger which I see before me,", "notes": ["The dagger soliloquy."]},
    "31": {"play": "Enter MACBETH and a Servant."}
  }
}`

func parseDoc(t *testing.T, data string) *annotation.Corpus {
	t.Helper()
	c, err := annotation.Parse([]byte(data), annotation.FormatJSON)
	require.NoError(t, err)
	return c
}

func TestStore_ImportCorpus(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)
	corpus := parseDoc(t, doc)

	result, err := store.ImportCorpus(ctx, corpus, ImportOptions{Source: "macbeth.json"})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Written)
	assert.Equal(t, 0, result.Unchanged)

	count, err := store.CountLines(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	byScene, err := store.CountLinesByScene(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SceneCount{
		{SceneID: "ACT 1, SCENE 1", Count: 2},
		{SceneID: "ACT 2, SCENE 1", Count: 2},
	}, byScene)

	latest, err := store.GetLatestImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, corpus.Fingerprint(), latest.Fingerprint)
	assert.Equal(t, "macbeth.json", latest.Source)
	assert.Equal(t, int64(4), latest.LineCount)

	t.Run("re-import leaves unchanged lines alone", func(t *testing.T) {
		result, err := store.ImportCorpus(ctx, corpus, ImportOptions{Source: "macbeth.json"})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Written)
		assert.Equal(t, 4, result.Unchanged)
	})

	t.Run("changed notes are rewritten", func(t *testing.T) {
		edited := parseDoc(t, `{"ACT 1, SCENE 1": {
			"1": {"play": "Thunder and lightning. Enter three Witches."},
			"10": {"play": "ALL: Fair is foul, and foul is fair:", "notes": ["Chiasmus."]}
		}}`)

		result, err := store.ImportCorpus(ctx, edited, ImportOptions{Source: "edited.json"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Written)
		assert.Equal(t, 1, result.Unchanged)
		assert.Equal(t, int64(2), result.Removed, "ACT 2, SCENE 1 is gone from the document")

		line, ok := mustLoad(t, store).Line("ACT 1, SCENE 1", 10)
		require.True(t, ok)
		assert.Equal(t, []string{"Chiasmus."}, line.Notes)
	})

	t.Run("replace removes lines missing from the document", func(t *testing.T) {
		only := parseDoc(t, `{"ACT 5, SCENE 1": {"35": {"play": "LADY MACBETH: Out, damned spot!"}}}`)

		result, err := store.ImportCorpus(ctx, only, ImportOptions{Source: "only.json", Replace: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Removed)
		assert.Equal(t, 1, result.Written)

		count, err := store.CountLines(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestStore_ImportCorpus_DropsMissingLines(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	v1 := parseDoc(t, `{"ACT 1, SCENE 1": {
		"1": {"play": "Thunder and lightning. Enter three Witches."},
		"2": {"play": "FIRST WITCH: When shall we three meet again"}
	}}`)
	v2 := parseDoc(t, `{"ACT 1, SCENE 1": {
		"1": {"play": "Thunder and lightning. Enter three Witches."}
	}}`)

	_, err := store.ImportCorpus(ctx, v1, ImportOptions{Source: "v1.json"})
	require.NoError(t, err)

	result, err := store.ImportCorpus(ctx, v2, ImportOptions{Source: "v2.json"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, int64(1), result.Removed)

	loaded := mustLoad(t, store)
	assert.Equal(t, v2.Len(), loaded.Len())
	assert.Equal(t, v2.Fingerprint(), loaded.Fingerprint())

	_, ok := loaded.Line("ACT 1, SCENE 1", 2)
	assert.False(t, ok, "a line dropped from the document must not be matchable")
}

func TestStore_LoadAnnotations(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)
	corpus := parseDoc(t, doc)

	_, err := store.ImportCorpus(ctx, corpus, ImportOptions{Source: "macbeth.json"})
	require.NoError(t, err)

	loaded := mustLoad(t, store)

	assert.Equal(t, corpus.Scenes(), loaded.Scenes())
	assert.Equal(t, corpus.Fingerprint(), loaded.Fingerprint())
	for _, scene := range corpus.Scenes() {
		want, _ := corpus.Lines(scene)
		got, ok := loaded.Lines(scene)
		require.True(t, ok)
		assert.Equal(t, want, got, "document order is preserved for %s", scene)
	}

	var _ annotation.Source = store
}

func TestStore_LoadAnnotations_Empty(t *testing.T) {
	store := NewTestStore(t)

	loaded, err := store.LoadAnnotations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
	assert.Empty(t, loaded.Fingerprint())
}

func mustLoad(t *testing.T, store *Store) *annotation.Corpus {
	t.Helper()
	c, err := store.LoadAnnotations(context.Background())
	require.NoError(t, err)
	return c
}
