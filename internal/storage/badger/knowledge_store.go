package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// KnowledgeStore implements the KnowledgeStore interface on Badger.
type KnowledgeStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.KnowledgeStore = (*KnowledgeStore)(nil)

// NewKnowledgeStore creates a Badger-backed knowledge store.
func NewKnowledgeStore(db *BadgerDB, logger arbor.ILogger) *KnowledgeStore {
	return &KnowledgeStore{
		db:     db,
		logger: logger,
	}
}

func (s *KnowledgeStore) CreateNotebook(ctx context.Context, name, description string) (*models.Notebook, error) {
	now := time.Now()
	notebook := &models.Notebook{
		ID:          common.NewNotebookID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.Store().Insert(notebook.ID, notebook); err != nil {
		return nil, fmt.Errorf("failed to save notebook: %w", err)
	}

	s.logger.Debug().Str("notebook_id", notebook.ID).Str("name", name).Msg("Notebook created")
	return notebook, nil
}

func (s *KnowledgeStore) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	var notebook models.Notebook
	if err := s.db.Store().Get(id, &notebook); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("notebook not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get notebook: %w", err)
	}
	return &notebook, nil
}

func (s *KnowledgeStore) CreateSource(ctx context.Context, notebookID, url, title string) (*models.Source, error) {
	now := time.Now()
	source := &models.Source{
		ID:         common.NewSourceID(),
		NotebookID: notebookID,
		URL:        url,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.db.Store().Insert(source.ID, source); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}
	return source, nil
}

func (s *KnowledgeStore) UpdateSourceText(ctx context.Context, sourceID, title, fullText string) error {
	var source models.Source
	if err := s.db.Store().Get(sourceID, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("source not found: %s", sourceID)
		}
		return fmt.Errorf("failed to get source: %w", err)
	}

	if title != "" {
		source.Title = title
	}
	source.FullText = fullText
	source.UpdatedAt = time.Now()

	if err := s.db.Store().Update(sourceID, &source); err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	return nil
}

func (s *KnowledgeStore) GetSource(ctx context.Context, id string) (*models.Source, error) {
	var source models.Source
	if err := s.db.Store().Get(id, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("source not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

func (s *KnowledgeStore) ListSources(ctx context.Context, notebookID string) ([]*models.Source, error) {
	var sources []models.Source
	if err := s.db.Store().Find(&sources, badgerhold.Where("NotebookID").Eq(notebookID).Index("NotebookID")); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	result := make([]*models.Source, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result, nil
}

func (s *KnowledgeStore) CreateNote(ctx context.Context, notebookID, title, content string, noteType models.NoteType) (*models.Note, error) {
	note := &models.Note{
		ID:         common.NewNoteID(),
		NotebookID: notebookID,
		Title:      title,
		Content:    content,
		Type:       noteType,
		CreatedAt:  time.Now(),
	}

	if err := s.db.Store().Insert(note.ID, note); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	s.logger.Debug().Str("note_id", note.ID).Str("title", title).Msg("Note created")
	return note, nil
}

func (s *KnowledgeStore) CreateChatSession(ctx context.Context, notebookID, title string, messages []models.ChatMessage) (*models.ChatSession, error) {
	session := &models.ChatSession{
		ID:         common.NewChatSessionID(),
		NotebookID: notebookID,
		Title:      title,
		Messages:   messages,
		CreatedAt:  time.Now(),
	}

	if err := s.db.Store().Insert(session.ID, session); err != nil {
		return nil, fmt.Errorf("failed to save chat session: %w", err)
	}
	return session, nil
}

// Close closes the underlying database.
func (s *KnowledgeStore) Close() error {
	return s.db.Close()
}
