package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

type fakeDiscovery struct {
	translated string
}

func (f *fakeDiscovery) Discover(ctx context.Context, req models.DiscoverRequest, progress interfaces.ProgressSink) ([]models.DiscoveredItem, error) {
	return nil, nil
}

func (f *fakeDiscovery) TranslateCategory(ctx context.Context, category string, progress interfaces.ProgressSink) (string, error) {
	return f.translated, nil
}

type fakeCollector struct {
	items   []models.DiscoveredItem
	sources []models.CollectedSource
	err     error
}

func (f *fakeCollector) Collect(ctx context.Context, req models.CollectRequest, progress interfaces.ProgressSink) ([]models.DiscoveredItem, []models.CollectedSource, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.items, f.sources, nil
}

type fakePrompts struct {
	responses []string
	calls     int
	prompts   []string
}

func (f *fakePrompts) GenerateGrounded(ctx context.Context, model, prompt string) (string, error) {
	return "", interfaces.ErrGroundingUnsupported
}

func (f *fakePrompts) Generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	f.prompts = append(f.prompts, prompt)
	response := ""
	if f.calls < len(f.responses) {
		response = f.responses[f.calls]
	}
	f.calls++
	return response, nil
}

func (f *fakePrompts) HealthCheck(ctx context.Context) error { return nil }
func (f *fakePrompts) Close() error                          { return nil }

type fakeAggregator struct {
	listings []models.ParsedListing
	summary  models.AggregationSummary
}

func (f *fakeAggregator) Aggregate(ctx context.Context, keyword string, limit int, progress interfaces.ProgressSink) ([]models.ParsedListing, models.AggregationSummary) {
	return f.listings, f.summary
}

// memoryKnowledgeStore is a minimal in-memory KnowledgeStore for tests.
type memoryKnowledgeStore struct {
	notebooks    map[string]*models.Notebook
	sources      map[string]*models.Source
	notes        []*models.Note
	sessions     []*models.ChatSession
	failSessions bool
}

func newMemoryKnowledgeStore() *memoryKnowledgeStore {
	return &memoryKnowledgeStore{
		notebooks: make(map[string]*models.Notebook),
		sources:   make(map[string]*models.Source),
	}
}

func (m *memoryKnowledgeStore) CreateNotebook(ctx context.Context, name, description string) (*models.Notebook, error) {
	notebook := &models.Notebook{ID: common.NewNotebookID(), Name: name, Description: description}
	m.notebooks[notebook.ID] = notebook
	return notebook, nil
}

func (m *memoryKnowledgeStore) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	return m.notebooks[id], nil
}

func (m *memoryKnowledgeStore) CreateSource(ctx context.Context, notebookID, url, title string) (*models.Source, error) {
	source := &models.Source{ID: common.NewSourceID(), NotebookID: notebookID, URL: url, Title: title}
	m.sources[source.ID] = source
	return source, nil
}

func (m *memoryKnowledgeStore) UpdateSourceText(ctx context.Context, sourceID, title, fullText string) error {
	source, ok := m.sources[sourceID]
	if !ok {
		return fmt.Errorf("source %s not found", sourceID)
	}
	source.Title = title
	source.FullText = fullText
	return nil
}

func (m *memoryKnowledgeStore) GetSource(ctx context.Context, id string) (*models.Source, error) {
	return m.sources[id], nil
}

func (m *memoryKnowledgeStore) ListSources(ctx context.Context, notebookID string) ([]*models.Source, error) {
	var result []*models.Source
	for _, source := range m.sources {
		if source.NotebookID == notebookID {
			result = append(result, source)
		}
	}
	return result, nil
}

func (m *memoryKnowledgeStore) CreateNote(ctx context.Context, notebookID, title, content string, noteType models.NoteType) (*models.Note, error) {
	note := &models.Note{ID: common.NewNoteID(), NotebookID: notebookID, Title: title, Content: content, Type: noteType}
	m.notes = append(m.notes, note)
	return note, nil
}

func (m *memoryKnowledgeStore) CreateChatSession(ctx context.Context, notebookID, title string, messages []models.ChatMessage) (*models.ChatSession, error) {
	if m.failSessions {
		return nil, fmt.Errorf("chat backend unavailable")
	}
	session := &models.ChatSession{ID: common.NewChatSessionID(), NotebookID: notebookID, Title: title, Messages: messages}
	m.sessions = append(m.sessions, session)
	return session, nil
}

func (m *memoryKnowledgeStore) Close() error { return nil }

const testMarkdownTable = `| brand | product_name | flow |
| --- | --- | --- |
| Mitsubishi | WP-155 | 33 L/min |`

func testOrchestrator(t *testing.T, collector SourceCollector, prompts *fakePrompts, store *memoryKnowledgeStore) (*Orchestrator, *MemoryRunStore) {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Discovery.CompetitorsPath = ""
	runs := NewMemoryRunStore()
	orchestrator := NewOrchestrator(
		config,
		&fakeDiscovery{translated: "water pump"},
		collector,
		prompts,
		&fakeAggregator{
			listings: []models.ParsedListing{{Identity: "a", Name: "Pump A"}},
			summary:  models.AggregationSummary{UniqueItems: 1},
		},
		store,
		runs,
		common.GetLogger(),
	)
	return orchestrator, runs
}

func waitForTerminal(t *testing.T, runs *MemoryRunStore, runID string) *models.RunState {
	t.Helper()
	var state *models.RunState
	require.Eventually(t, func() bool {
		current, err := runs.Get(runID)
		if err != nil {
			return false
		}
		state = current
		return current.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return state
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("successful run", func(t *testing.T) {
		collector := &fakeCollector{
			items: []models.DiscoveredItem{
				{BrandKey: "mitsu", URL: "https://example.com/p1", Title: "WP-155"},
			},
			sources: []models.CollectedSource{
				{URL: "https://example.com/p1", Title: "WP-155", ExtractedText: "Flow rate 33 L/min and other specifications."},
			},
		}
		prompts := &fakePrompts{responses: []string{testMarkdownTable, `{"columns": ["brand"], "rows": []}`}}
		store := newMemoryKnowledgeStore()
		orchestrator, runs := testOrchestrator(t, collector, prompts, store)

		runID, err := orchestrator.StartRun(models.RunRequest{Category: "water pumps", Market: "Thailand"})
		require.NoError(t, err)

		state := waitForTerminal(t, runs, runID)
		require.Equal(t, models.RunStatusCompleted, state.Status, "error: %s", state.Error)
		require.NotNil(t, state.Result)
		assert.Equal(t, 1, state.Result.SourcesAdded)
		assert.Equal(t, testMarkdownTable, state.Result.MarkdownTable)
		assert.NotEmpty(t, state.Result.NotebookID)
		assert.NotEmpty(t, state.Result.TableNoteID)
		assert.NotEmpty(t, state.Result.JSONNoteID)
		assert.NotEmpty(t, state.Result.ChatSessionID)
		require.NotNil(t, state.Result.Marketplace)
		assert.Equal(t, "water pump", state.Result.Marketplace.Keyword)
		assert.NotEmpty(t, state.Logs)

		// Markdown note, JSON note, marketplace summary note.
		assert.Len(t, store.notes, 3)
		require.Len(t, store.sessions, 1)
		assert.Equal(t, "Specs Table", store.sessions[0].Title)
	})

	t.Run("collection failure fails run with verbatim error", func(t *testing.T) {
		collector := &fakeCollector{err: fmt.Errorf("discovery batch failed: model exploded")}
		prompts := &fakePrompts{}
		orchestrator, runs := testOrchestrator(t, collector, prompts, newMemoryKnowledgeStore())

		runID, err := orchestrator.StartRun(models.RunRequest{Category: "water pumps"})
		require.NoError(t, err)

		state := waitForTerminal(t, runs, runID)
		assert.Equal(t, models.RunStatusFailed, state.Status)
		assert.Equal(t, "discovery batch failed: model exploded", state.Error)
		assert.Nil(t, state.Result)
	})

	t.Run("chat seed failure is non-fatal", func(t *testing.T) {
		collector := &fakeCollector{}
		prompts := &fakePrompts{responses: []string{testMarkdownTable, `{}`}}
		store := newMemoryKnowledgeStore()
		store.failSessions = true
		orchestrator, runs := testOrchestrator(t, collector, prompts, store)

		runID, err := orchestrator.StartRun(models.RunRequest{Category: "water pumps"})
		require.NoError(t, err)

		state := waitForTerminal(t, runs, runID)
		require.Equal(t, models.RunStatusCompleted, state.Status)
		assert.Empty(t, state.Result.ChatSessionID)
	})

	t.Run("terminal reads are idempotent", func(t *testing.T) {
		collector := &fakeCollector{}
		prompts := &fakePrompts{responses: []string{testMarkdownTable, `{}`}}
		orchestrator, runs := testOrchestrator(t, collector, prompts, newMemoryKnowledgeStore())

		runID, err := orchestrator.StartRun(models.RunRequest{Category: "water pumps"})
		require.NoError(t, err)

		first := waitForTerminal(t, runs, runID)
		second, err := runs.Get(runID)
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.Logs, second.Logs)
	})
}

func TestBuildContextText(t *testing.T) {
	sources := []*models.Source{
		{Title: "Pump A", FullText: "specs for pump a"},
		{Title: "", FullText: "untitled source text"},
		{Title: "Empty", FullText: ""},
	}

	text := buildContextText(sources)
	assert.Contains(t, text, "Source: Pump A\nspecs for pump a")
	assert.Contains(t, text, "Source: Untitled\nuntitled source text")
	assert.NotContains(t, text, "Empty")
}

func TestContainsMarkdownTable(t *testing.T) {
	assert.True(t, containsMarkdownTable(testMarkdownTable))
	assert.False(t, containsMarkdownTable("just prose, no table"))
	assert.False(t, containsMarkdownTable(""))
}
