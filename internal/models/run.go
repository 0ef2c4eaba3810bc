package models

import "time"

// RunStatus represents the state of a discovery run
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether the status is absorbing.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RunState tracks the lifecycle of a single pipeline run. Logs are
// append-only. Exactly one of Result/Error is set once the status is
// terminal, and terminal states accept no further mutation.
type RunState struct {
	RunID     string     `json:"run_id"`
	Status    RunStatus  `json:"status"`
	Logs      []string   `json:"logs"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult is the structured payload of a completed run.
type RunResult struct {
	NotebookID    string              `json:"notebook_id"`
	SourcesAdded  int                 `json:"sources_added"`
	TableNoteID   string              `json:"table_note_id"`
	JSONNoteID    string              `json:"json_note_id"`
	ChatSessionID string              `json:"chat_session_id"`
	Products      []DiscoveredItem    `json:"products"`
	MarkdownTable string              `json:"markdown_table"`
	Marketplace   *MarketplaceResult  `json:"marketplace,omitempty"`
}

// MarketplaceResult bundles the aggregation output included in the run result.
type MarketplaceResult struct {
	Keyword  string             `json:"keyword"`
	Listings []ParsedListing    `json:"listings"`
	Summary  AggregationSummary `json:"summary"`
}

// RunRequest is the validated input that starts a pipeline run.
type RunRequest struct {
	Category               string   `json:"category" validate:"required"`
	Market                 string   `json:"market"`
	AllowExternalBrands    bool     `json:"allow_external_brands"`
	MaxTotal               int      `json:"max_total" validate:"gte=0,lte=100"`
	MaxMarketplaceProducts int      `json:"max_marketplace_products" validate:"gte=0,lte=100"`
	PreferPDFs             bool     `json:"prefer_pdfs"`
	PreferredBrands        []string `json:"preferred_brands"`
}
