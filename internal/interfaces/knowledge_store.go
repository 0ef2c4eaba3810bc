package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// KnowledgeStore persists the entities a run materializes: the notebook
// container, its sources, generated notes, and the seeded chat session.
type KnowledgeStore interface {
	CreateNotebook(ctx context.Context, name, description string) (*models.Notebook, error)
	GetNotebook(ctx context.Context, id string) (*models.Notebook, error)

	CreateSource(ctx context.Context, notebookID, url, title string) (*models.Source, error)
	UpdateSourceText(ctx context.Context, sourceID, title, fullText string) error
	GetSource(ctx context.Context, id string) (*models.Source, error)
	ListSources(ctx context.Context, notebookID string) ([]*models.Source, error)

	CreateNote(ctx context.Context, notebookID, title, content string, noteType models.NoteType) (*models.Note, error)

	CreateChatSession(ctx context.Context, notebookID, title string, messages []models.ChatMessage) (*models.ChatSession, error)

	Close() error
}
