package models

import "time"

// Notebook is the container entity a run materializes its sources and notes
// into. Owned by the knowledge store.
type Notebook struct {
	ID          string    `json:"id" badgerhold:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Source is a fetched URL attached to a notebook, with its extracted full
// text once the source processor has run.
type Source struct {
	ID         string    `json:"id" badgerhold:"key"`
	NotebookID string    `json:"notebook_id" badgerhold:"index"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	FullText   string    `json:"full_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NoteType distinguishes AI-generated notes from human ones.
type NoteType string

const (
	NoteTypeAI    NoteType = "ai"
	NoteTypeHuman NoteType = "human"
)

// Note is a persisted artifact (markdown table, JSON table, marketplace
// summary) attached to a notebook.
type Note struct {
	ID         string    `json:"id" badgerhold:"key"`
	NotebookID string    `json:"notebook_id" badgerhold:"index"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Type       NoteType  `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatMessage is a single turn in a seeded chat session.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSession is a conversational session seeded with the specs table so
// follow-up questions have the table as context.
type ChatSession struct {
	ID         string        `json:"id" badgerhold:"key"`
	NotebookID string        `json:"notebook_id" badgerhold:"index"`
	Title      string        `json:"title"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"created_at"`
}
