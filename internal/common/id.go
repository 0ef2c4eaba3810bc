package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique run ID with the "run_" prefix
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewNotebookID generates a unique notebook ID with the "nb_" prefix
func NewNotebookID() string {
	return "nb_" + uuid.New().String()
}

// NewSourceID generates a unique source ID with the "src_" prefix
func NewSourceID() string {
	return "src_" + uuid.New().String()
}

// NewNoteID generates a unique note ID with the "note_" prefix
func NewNoteID() string {
	return "note_" + uuid.New().String()
}

// NewChatSessionID generates a unique chat session ID with the "chat_" prefix
func NewChatSessionID() string {
	return "chat_" + uuid.New().String()
}
