package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/competitors"
)

const tableMarkdownPrompt = `Create a specs table in Markdown for all products across all brands in the sources.
Rules:
- Only include sources with a specific product and specs.
- Columns should include brand name, product name, and then attributes.
- Normalize similar attributes into the same column.
- Use "-" for missing values.
- Return ONLY the markdown table and nothing else.`

const tableJSONPrompt = `Convert the following Markdown table into STRICT JSON with this shape:
{
  "columns": ["brand", "product_name", "..."],
  "rows": [
    {"brand":"...", "product_name":"...", "...":"..."}
  ]
}
Return ONLY JSON, no extra text.`

const (
	defaultMaxTotal           = 10
	defaultMarketplaceLimit   = 10
	maxContextCharsPerSource  = 4000
	tablePromptTemperature    = 0.2
	jsonConvertTemperature    = 0.0
)

// SourceCollector is the batch collection loop as the orchestrator sees it.
type SourceCollector interface {
	Collect(ctx context.Context, req models.CollectRequest, progress interfaces.ProgressSink) ([]models.DiscoveredItem, []models.CollectedSource, error)
}

// ListingAggregator is the marketplace aggregation stage as the
// orchestrator sees it.
type ListingAggregator interface {
	Aggregate(ctx context.Context, keyword string, limit int, progress interfaces.ProgressSink) ([]models.ParsedListing, models.AggregationSummary)
}

// Orchestrator sequences a full discovery run: registry load, batch
// collection, knowledge-store materialization, specs table generation, and
// marketplace aggregation. It is the only component that touches the run
// registry.
type Orchestrator struct {
	config     *common.Config
	discovery  interfaces.DiscoveryService
	collector  SourceCollector
	prompts    interfaces.LLMService
	aggregator ListingAggregator
	store      interfaces.KnowledgeStore
	runs       interfaces.RunStore
	logger     arbor.ILogger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	config *common.Config,
	discoveryService interfaces.DiscoveryService,
	collector SourceCollector,
	prompts interfaces.LLMService,
	aggregator ListingAggregator,
	store interfaces.KnowledgeStore,
	runs interfaces.RunStore,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		config:     config,
		discovery:  discoveryService,
		collector:  collector,
		prompts:    prompts,
		aggregator: aggregator,
		store:      store,
		runs:       runs,
		logger:     logger,
	}
}

// StartRun registers a run and launches the pipeline as an independent
// goroutine so the caller can return immediately with the run id. There is
// no cancellation mechanism for an in-flight run.
func (o *Orchestrator) StartRun(req models.RunRequest) (string, error) {
	run, err := o.runs.Create()
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	o.logger.Info().Str("run_id", run.RunID).Str("category", req.Category).Msg("Run queued")

	go o.execute(run.RunID, req)

	return run.RunID, nil
}

func (o *Orchestrator) execute(runID string, req models.RunRequest) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("run_id", runID).Msgf("Pipeline panicked: %v", r)
			o.runs.Fail(runID, fmt.Sprintf("%v", r))
		}
	}()

	progress := interfaces.ProgressFunc(func(line string) {
		o.runs.AppendLog(runID, line)
		o.logger.Info().Str("run_id", runID).Msg(line)
	})

	if err := o.runs.SetRunning(runID); err != nil {
		o.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to mark run running")
		return
	}

	result, err := o.runPipeline(context.Background(), req, progress)
	if err != nil {
		o.logger.Error().Err(err).Str("run_id", runID).Msg("Pipeline failed")
		o.runs.Fail(runID, err.Error())
		return
	}

	o.runs.Complete(runID, result)
	o.logger.Info().Str("run_id", runID).Msg("Run completed")
}

func (o *Orchestrator) runPipeline(ctx context.Context, req models.RunRequest, progress interfaces.ProgressSink) (*models.RunResult, error) {
	maxTotal := req.MaxTotal
	if maxTotal <= 0 {
		maxTotal = defaultMaxTotal
	}
	marketplaceLimit := req.MaxMarketplaceProducts
	if marketplaceLimit <= 0 {
		marketplaceLimit = defaultMarketplaceLimit
	}
	marketLabel := strings.TrimSpace(req.Market)
	if marketLabel == "" {
		marketLabel = "Global"
	}

	progress.Append("Pipeline: start discovery for category=" + req.Category)

	profiles, err := competitors.Load(o.config.Discovery.CompetitorsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitor registry: %w", err)
	}
	progress.Append(fmt.Sprintf("Pipeline: loaded %d competitors", len(profiles)))

	categoryEN, err := o.discovery.TranslateCategory(ctx, req.Category, progress)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Category translation failed, using original category")
		categoryEN = ""
	}

	items, collected, err := o.collector.Collect(ctx, models.CollectRequest{
		Category:        req.Category,
		CategoryEN:      categoryEN,
		Market:          marketLabel,
		Competitors:     profiles,
		TargetCount:     maxTotal,
		BatchSize:       o.config.Discovery.BatchSize,
		AllowExternal:   req.AllowExternalBrands,
		PreferredBrands: req.PreferredBrands,
		PreferPDFs:      req.PreferPDFs,
	}, progress)
	if err != nil {
		return nil, err
	}
	progress.Append(fmt.Sprintf("Pipeline: discovery complete (products=%d)", len(items)))

	notebook, err := o.store.CreateNotebook(ctx,
		fmt.Sprintf("Discovery %s", req.Category),
		fmt.Sprintf("Product discovery for %s (%s)", req.Category, marketLabel))
	if err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}
	progress.Append("Pipeline: created notebook " + notebook.ID)

	sources, err := o.attachSources(ctx, notebook.ID, collected, progress)
	if err != nil {
		return nil, err
	}
	progress.Append(fmt.Sprintf("Pipeline: sources added %d", len(sources)))

	contextText := buildContextText(sources)

	progress.Append("Pipeline: generating markdown table")
	markdownTable, err := o.runPrompt(ctx, tableMarkdownPrompt, contextText, tablePromptTemperature)
	if err != nil {
		return nil, fmt.Errorf("specs table generation failed: %w", err)
	}
	if !containsMarkdownTable(markdownTable) {
		o.logger.Warn().Msg("Generated specs output contains no markdown table")
		progress.Append("Pipeline: warning, generated output contains no markdown table")
	}

	progress.Append("Pipeline: generating JSON table")
	jsonTable, err := o.runPrompt(ctx, tableJSONPrompt, markdownTable, jsonConvertTemperature)
	if err != nil {
		return nil, fmt.Errorf("table JSON conversion failed: %w", err)
	}

	tableNote, err := o.store.CreateNote(ctx, notebook.ID, "Specs Table (Markdown)", markdownTable, models.NoteTypeAI)
	if err != nil {
		return nil, fmt.Errorf("failed to save markdown note: %w", err)
	}
	jsonNote, err := o.store.CreateNote(ctx, notebook.ID, "Specs Table (JSON)", jsonTable, models.NoteTypeAI)
	if err != nil {
		return nil, fmt.Errorf("failed to save JSON note: %w", err)
	}
	progress.Append("Pipeline: notes saved")

	chatSessionID := o.seedChat(ctx, notebook.ID, markdownTable, progress)

	marketplace := o.aggregateMarketplace(ctx, notebook.ID, req.Category, categoryEN, marketplaceLimit, progress)

	return &models.RunResult{
		NotebookID:    notebook.ID,
		SourcesAdded:  len(sources),
		TableNoteID:   tableNote.ID,
		JSONNoteID:    jsonNote.ID,
		ChatSessionID: chatSessionID,
		Products:      items,
		MarkdownTable: markdownTable,
		Marketplace:   marketplace,
	}, nil
}

// attachSources materializes collected sources in the knowledge store. A
// persistence failure for one source fails the run; by this point the
// content is already validated.
func (o *Orchestrator) attachSources(ctx context.Context, notebookID string, collected []models.CollectedSource, progress interfaces.ProgressSink) ([]*models.Source, error) {
	sources := make([]*models.Source, 0, len(collected))
	for _, item := range collected {
		progress.Append("Pipeline: adding source " + item.URL)

		source, err := o.store.CreateSource(ctx, notebookID, item.URL, item.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to create source for %s: %w", item.URL, err)
		}
		if err := o.store.UpdateSourceText(ctx, source.ID, item.Title, item.ExtractedText); err != nil {
			return nil, fmt.Errorf("failed to store text for %s: %w", item.URL, err)
		}
		source.FullText = item.ExtractedText
		sources = append(sources, source)
	}
	return sources, nil
}

// seedChat creates a chat session pre-populated with the table exchange.
// Failure is non-fatal; the run carries on without a session.
func (o *Orchestrator) seedChat(ctx context.Context, notebookID, markdownTable string, progress interfaces.ProgressSink) string {
	session, err := o.store.CreateChatSession(ctx, notebookID, "Specs Table", []models.ChatMessage{
		{Role: "user", Content: tableMarkdownPrompt},
		{Role: "assistant", Content: markdownTable},
	})
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to seed chat session")
		progress.Append("Pipeline: chat session seeding failed, continuing")
		return ""
	}
	progress.Append("Pipeline: chat session seeded " + session.ID)
	return session.ID
}

// aggregateMarketplace runs the marketplace stage and persists its summary
// as a note. The stage degrades to empty on failure and never fails the run.
func (o *Orchestrator) aggregateMarketplace(ctx context.Context, notebookID, category, categoryEN string, limit int, progress interfaces.ProgressSink) *models.MarketplaceResult {
	keyword := strings.TrimSpace(categoryEN)
	if keyword == "" {
		keyword = category
	}

	listings, summary := o.aggregator.Aggregate(ctx, keyword, limit, progress)

	result := &models.MarketplaceResult{
		Keyword:  keyword,
		Listings: listings,
		Summary:  summary,
	}

	if payload, err := json.MarshalIndent(result, "", "  "); err == nil {
		if _, err := o.store.CreateNote(ctx, notebookID, "Marketplace Summary (JSON)", string(payload), models.NoteTypeAI); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to save marketplace note")
		}
	}

	progress.Append(fmt.Sprintf("Pipeline: marketplace aggregation done (items=%d, gmv=%.2f)", summary.UniqueItems, summary.GMVTotal))
	return result
}

func (o *Orchestrator) runPrompt(ctx context.Context, prompt, inputText string, temperature float32) (string, error) {
	full := prompt
	if strings.TrimSpace(inputText) != "" {
		full = prompt + "\n\n" + inputText
	}
	output, err := o.prompts.Generate(ctx, "", full, temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// buildContextText concatenates source texts for the table prompt, capping
// each source to keep the prompt within model context limits.
func buildContextText(sources []*models.Source) string {
	parts := make([]string, 0, len(sources))
	for _, source := range sources {
		if source.FullText == "" {
			continue
		}
		title := source.Title
		if title == "" {
			title = "Untitled"
		}
		text := source.FullText
		if len(text) > maxContextCharsPerSource {
			text = text[:maxContextCharsPerSource]
		}
		parts = append(parts, fmt.Sprintf("Source: %s\n%s", title, text))
	}
	return strings.Join(parts, "\n\n")
}
