package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/reperio/internal/models"
)

func testStore(t *testing.T) *KnowledgeStore {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewKnowledgeStore(db, arbor.NewLogger())
}

func TestKnowledgeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("notebook round trip", func(t *testing.T) {
		store := testStore(t)

		notebook, err := store.CreateNotebook(ctx, "Discovery water pumps", "Product discovery for water pumps (Thailand)")
		require.NoError(t, err)
		require.NotEmpty(t, notebook.ID)

		loaded, err := store.GetNotebook(ctx, notebook.ID)
		require.NoError(t, err)
		assert.Equal(t, notebook.Name, loaded.Name)

		_, err = store.GetNotebook(ctx, "nb_missing")
		require.Error(t, err)
	})

	t.Run("source text update", func(t *testing.T) {
		store := testStore(t)

		notebook, err := store.CreateNotebook(ctx, "nb", "")
		require.NoError(t, err)

		source, err := store.CreateSource(ctx, notebook.ID, "https://example.com/p1", "Pump A")
		require.NoError(t, err)
		assert.Empty(t, source.FullText)

		require.NoError(t, store.UpdateSourceText(ctx, source.ID, "Pump A (full)", "extracted specification text"))

		loaded, err := store.GetSource(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pump A (full)", loaded.Title)
		assert.Equal(t, "extracted specification text", loaded.FullText)

		require.Error(t, store.UpdateSourceText(ctx, "src_missing", "", ""))
	})

	t.Run("list sources by notebook", func(t *testing.T) {
		store := testStore(t)

		first, err := store.CreateNotebook(ctx, "first", "")
		require.NoError(t, err)
		second, err := store.CreateNotebook(ctx, "second", "")
		require.NoError(t, err)

		_, err = store.CreateSource(ctx, first.ID, "https://example.com/a", "A")
		require.NoError(t, err)
		_, err = store.CreateSource(ctx, first.ID, "https://example.com/b", "B")
		require.NoError(t, err)
		_, err = store.CreateSource(ctx, second.ID, "https://example.com/c", "C")
		require.NoError(t, err)

		sources, err := store.ListSources(ctx, first.ID)
		require.NoError(t, err)
		assert.Len(t, sources, 2)
	})

	t.Run("notes and chat sessions", func(t *testing.T) {
		store := testStore(t)

		notebook, err := store.CreateNotebook(ctx, "nb", "")
		require.NoError(t, err)

		note, err := store.CreateNote(ctx, notebook.ID, "Specs Table (Markdown)", "| a | b |", models.NoteTypeAI)
		require.NoError(t, err)
		assert.NotEmpty(t, note.ID)
		assert.Equal(t, models.NoteTypeAI, note.Type)

		session, err := store.CreateChatSession(ctx, notebook.ID, "Specs Table", []models.ChatMessage{
			{Role: "user", Content: "prompt"},
			{Role: "assistant", Content: "table"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, session.ID)
		assert.Len(t, session.Messages, 2)
	})
}
