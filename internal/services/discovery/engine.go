package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/competitors"
)

const defaultMaxAttempts = 5

var brandKeyRe = regexp.MustCompile(`[^a-z0-9]+`)

// Engine finds candidate product pages through a search-grounded model and
// filters the response into brand-attributed items.
type Engine struct {
	llm       interfaces.LLMService
	selfBrand string
	debugDir  string
	attempts  int
	logger    arbor.ILogger
}

var _ interfaces.DiscoveryService = (*Engine)(nil)

// NewEngine creates a discovery engine backed by the given grounded LLM
// service.
func NewEngine(config *common.Config, llm interfaces.LLMService, logger arbor.ILogger) *Engine {
	attempts := config.Discovery.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	return &Engine{
		llm:       llm,
		selfBrand: strings.ToLower(strings.TrimSpace(config.Discovery.SelfBrand)),
		debugDir:  config.Discovery.DebugDir,
		attempts:  attempts,
		logger:    logger,
	}
}

// TranslateCategory translates a product category to English using plain
// generation at temperature zero.
func (e *Engine) TranslateCategory(ctx context.Context, category string, progress interfaces.ProgressSink) (string, error) {
	text := strings.TrimSpace(category)
	if text == "" {
		return "", nil
	}

	appendProgress(progress, "Discovery: translating category to English")

	prompt := fmt.Sprintf(`Translate the following product category to English.
Return ONLY the translated text with no extra words or punctuation.
Category: %s`, text)

	translated, err := e.llm.Generate(ctx, "", prompt, 0.0)
	if err != nil {
		return "", fmt.Errorf("category translation failed: %w", err)
	}

	return strings.TrimSpace(translated), nil
}

// Discover runs a grounded discovery prompt and returns at most req.MaxTotal
// filtered items with unique normalized URLs. Empty model responses are
// retried; a malformed JSON response gets exactly one repair round-trip.
func (e *Engine) Discover(ctx context.Context, req models.DiscoverRequest, progress interfaces.ProgressSink) ([]models.DiscoveredItem, error) {
	preferred := req.PreferredBrands
	if len(preferred) == 0 {
		preferred = competitors.PreferredBrandList(req.Competitors)
	}
	brandLine := strings.Join(preferred, ", ")
	if brandLine == "" {
		appendProgress(progress, "Discovery: preferred brands = none")
	} else {
		appendProgress(progress, "Discovery: preferred brands = "+brandLine)
	}

	prompt := e.buildPrompt(req, preferred)

	rawText, err := e.generateWithRetry(ctx, req.ModelName, prompt, progress)
	if err != nil {
		return nil, err
	}

	data, err := parseObjectResponse(rawText)
	if err != nil {
		data, err = e.repairResponse(ctx, req.ModelName, rawText, progress)
		if err != nil {
			return nil, err
		}
	}

	return e.filterProducts(data, req, progress), nil
}

// generateWithRetry calls the grounded model, retrying while the response
// text is empty. On exhaustion the last raw response is dumped for
// inspection and ErrEmptyModelResponse is returned.
func (e *Engine) generateWithRetry(ctx context.Context, model, prompt string, progress interfaces.ProgressSink) (string, error) {
	var rawText string

	for attempt := 1; attempt <= e.attempts; attempt++ {
		appendProgress(progress, fmt.Sprintf("Discovery: model request start (attempt %d/%d)", attempt, e.attempts))

		text, err := e.llm.GenerateGrounded(ctx, model, prompt)
		if err != nil {
			return "", fmt.Errorf("grounded generation failed: %w", err)
		}
		appendProgress(progress, "Discovery: model response received")

		rawText = text
		if strings.TrimSpace(rawText) != "" {
			break
		}
		if attempt < e.attempts {
			appendProgress(progress, "Discovery: empty response text, retrying")
		}
	}

	appendProgress(progress, fmt.Sprintf("Discovery: raw_text length=%d", len(rawText)))

	if strings.TrimSpace(rawText) == "" {
		if path := writeDebugFile(e.debugDir, "discovery_response", rawText); path != "" {
			appendProgress(progress, "Discovery: raw response dump saved to "+path)
		}
		return "", ErrEmptyModelResponse
	}

	return rawText, nil
}

// repairResponse asks the model to fix malformed JSON output. Exactly one
// repair attempt is made; a second parse failure propagates.
func (e *Engine) repairResponse(ctx context.Context, model, rawText string, progress interfaces.ProgressSink) (map[string]interface{}, error) {
	if path := writeDebugFile(e.debugDir, "discovery_raw", rawText); path != "" {
		appendProgress(progress, "Discovery: raw output saved to "+path)
	}
	appendProgress(progress, "Discovery: parse failed, attempting JSON repair")

	repairPrompt := fmt.Sprintf(`Fix the JSON to be valid and return ONLY the JSON object.
Do not add or remove products, only repair formatting.
%s`, rawText)

	repairText, err := e.llm.Generate(ctx, model, repairPrompt, 0.0)
	if err != nil {
		return nil, fmt.Errorf("JSON repair generation failed: %w", err)
	}
	appendProgress(progress, fmt.Sprintf("Discovery: repair response length=%d", len(repairText)))

	if path := writeDebugFile(e.debugDir, "discovery_repair", repairText); path != "" {
		appendProgress(progress, "Discovery: repair output saved to "+path)
	}

	return parseObjectResponse(repairText)
}

func (e *Engine) buildPrompt(req models.DiscoverRequest, preferred []string) string {
	categoryLine := "Category: " + strings.TrimSpace(req.Category)
	if en := strings.TrimSpace(req.CategoryEN); en != "" {
		categoryLine = "Category: " + en
	}

	exclusionLine := ""
	if e.selfBrand != "" {
		exclusionLine = fmt.Sprintf("- Exclude %s products.\n", e.selfBrand)
	}

	taskLines := `- Use Google Search grounding to find product pages for this category.
- Prefer preferred brands but do not try to cover every brand.
- Prefer individual product pages over category/listing pages.
- Manuals or product catalog PDFs are allowed if they contain specs for specific products.`
	if req.PreferPDFs {
		taskLines = `- Use Google Search grounding to find sources for this category.
- Prefer preferred brands but do not try to cover every brand.
- Prefer product catalogue/manual PDFs (with specs) over product pages.
- Product pages are allowed if needed, but PDFs should be prioritized.`
	}

	return fmt.Sprintf(`%s
Market: %s
Preferred brands: %s
Max items: %d

Task:
%s
%s- Return no more than max_total items.
- ONLY output URLs that appear in grounded search results.
- Return exactly ONE JSON object. Do not output multiple JSON blocks.
- Do not include markdown fences, explanations, or extra text.

Output JSON ONLY:
{
  "products": [
    {
      "brand_key": "...",
      "url": "...",
      "title": "...",
      "snippet": "..."
    }
  ]
}`, categoryLine, req.Market, strings.Join(preferred, ", "), req.MaxTotal, taskLines, exclusionLine)
}

// filterProducts walks the parsed response and applies URL deduplication,
// brand attribution, and self-brand exclusion, capping at req.MaxTotal.
func (e *Engine) filterProducts(data map[string]interface{}, req models.DiscoverRequest, progress interfaces.ProgressSink) []models.DiscoveredItem {
	rawProducts, _ := data["products"].([]interface{})
	appendProgress(progress, fmt.Sprintf("Discovery: model returned %d items", len(rawProducts)))

	results := make([]models.DiscoveredItem, 0, len(rawProducts))
	seen := make(map[string]bool)

	for _, raw := range rawProducts {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		url := strings.TrimSpace(stringField(item, "url"))
		if url == "" {
			continue
		}
		key := strings.TrimRight(url, "/")
		if seen[key] {
			continue
		}
		seen[key] = true

		title := strings.TrimSpace(stringField(item, "title"))
		snippet := strings.TrimSpace(stringField(item, "snippet"))
		brandKey := strings.TrimSpace(stringField(item, "brand_key"))
		if brandKey == "" {
			brandKey = inferBrandKey(title, snippet, url, req.Competitors)
		}
		if brandKey == "" && req.AllowExternal {
			brandKey = normalizeBrandKey(firstWord(title))
			if brandKey == "" {
				brandKey = "external"
			}
		}

		if e.selfBrand != "" &&
			(strings.Contains(strings.ToLower(brandKey), e.selfBrand) ||
				strings.Contains(strings.ToLower(title), e.selfBrand)) {
			continue
		}

		results = append(results, models.DiscoveredItem{
			BrandKey: brandKey,
			URL:      url,
			Title:    title,
			Snippet:  snippet,
		})
		if len(results) >= req.MaxTotal {
			break
		}
	}

	appendProgress(progress, fmt.Sprintf("Discovery: kept %d items after filtering", len(results)))
	return results
}

// inferBrandKey matches competitor aliases against the combined item text.
// First matching alias wins, in registry order.
func inferBrandKey(title, snippet, url string, profiles []models.CompetitorProfile) string {
	haystack := strings.ToLower(title + " " + snippet + " " + url)
	for _, profile := range profiles {
		brandKey := strings.TrimSpace(profile.BrandKey)
		for _, alias := range profile.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias != "" && strings.Contains(haystack, alias) {
				return brandKey
			}
		}
	}
	return ""
}

// normalizeBrandKey lowercases text and strips everything outside [a-z0-9].
func normalizeBrandKey(text string) string {
	return brandKeyRe.ReplaceAllString(strings.ToLower(text), "")
}

func firstWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func stringField(item map[string]interface{}, key string) string {
	value, _ := item[key].(string)
	return value
}

func appendProgress(progress interfaces.ProgressSink, line string) {
	if progress != nil {
		progress.Append(line)
	}
}
