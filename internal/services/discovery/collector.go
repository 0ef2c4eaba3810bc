package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

const minLoopIterations = 5

// Collector drives the batch collection loop: it requests candidates from
// the discovery engine in small batches and gates each one through redirect
// resolution, run-wide deduplication, a liveness probe, content extraction,
// and a minimum content length check.
type Collector struct {
	engine        interfaces.DiscoveryService
	processor     interfaces.SourceProcessor
	minContent    int
	userAgent     string
	resolveClient *http.Client
	probeClient   *http.Client
	logger        arbor.ILogger
}

// NewCollector creates a collector over the given discovery engine and
// source processor.
func NewCollector(config *common.Config, engine interfaces.DiscoveryService, processor interfaces.SourceProcessor, logger arbor.ILogger) *Collector {
	return &Collector{
		engine:     engine,
		processor:  processor,
		minContent: config.Collector.MinContentLength,
		userAgent:  config.Collector.UserAgent,
		resolveClient: &http.Client{
			Timeout: config.Collector.ResolveTimeout,
		},
		probeClient: &http.Client{
			Timeout: config.Collector.ProbeTimeout,
		},
		logger: logger,
	}
}

// Collect loops until req.TargetCount sources are accepted or the iteration
// budget max(5, target*3) is exhausted. Falling short of the target is a
// partial result, not an error. Discovery failures propagate; per-item
// failures (dead link, thin content, extraction failure) skip the item.
func (c *Collector) Collect(ctx context.Context, req models.CollectRequest, progress interfaces.ProgressSink) ([]models.DiscoveredItem, []models.CollectedSource, error) {
	maxIterations := req.TargetCount * 3
	if maxIterations < minLoopIterations {
		maxIterations = minLoopIterations
	}

	items := make([]models.DiscoveredItem, 0, req.TargetCount)
	sources := make([]models.CollectedSource, 0, req.TargetCount)
	seen := make(map[string]bool)

	for iteration := 1; iteration <= maxIterations && len(sources) < req.TargetCount; iteration++ {
		appendProgress(progress, fmt.Sprintf("Collection: iteration %d/%d (collected %d/%d)",
			iteration, maxIterations, len(sources), req.TargetCount))

		batch, err := c.engine.Discover(ctx, models.DiscoverRequest{
			Category:        req.Category,
			CategoryEN:      req.CategoryEN,
			Market:          req.Market,
			Competitors:     req.Competitors,
			MaxTotal:        req.BatchSize,
			AllowExternal:   req.AllowExternal,
			PreferredBrands: req.PreferredBrands,
			PreferPDFs:      req.PreferPDFs,
			ModelName:       req.ModelName,
		}, progress)
		if err != nil {
			return nil, nil, fmt.Errorf("discovery batch failed: %w", err)
		}

		for _, candidate := range batch {
			if len(sources) >= req.TargetCount {
				break
			}
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}

			resolved := c.resolveFinalURL(ctx, candidate.URL)
			key := strings.TrimRight(resolved, "/")
			if seen[key] {
				appendProgress(progress, "Collection: duplicate URL skipped "+resolved)
				continue
			}
			seen[key] = true

			if !c.probeLiveness(ctx, resolved) {
				appendProgress(progress, "Collection: dead link skipped "+resolved)
				continue
			}

			content, err := c.processor.Process(ctx, resolved)
			if err != nil {
				c.logger.Warn().Err(err).Str("url", resolved).Msg("Source processing failed")
				appendProgress(progress, "Collection: source processing failed "+resolved)
				continue
			}

			if len(content.Text) < c.minContent {
				appendProgress(progress, fmt.Sprintf("Collection: content too thin (%d chars) %s", len(content.Text), resolved))
				continue
			}

			title := content.Title
			if title == "" {
				title = candidate.Title
			}

			candidate.URL = resolved
			items = append(items, candidate)
			sources = append(sources, models.CollectedSource{
				URL:           resolved,
				Title:         title,
				ExtractedText: content.Text,
			})
			appendProgress(progress, "Collection: accepted "+resolved)
		}
	}

	appendProgress(progress, fmt.Sprintf("Collection: finished with %d/%d sources", len(sources), req.TargetCount))
	return items, sources, nil
}

// resolveFinalURL follows redirects and returns the final URL. Any failure
// falls back to the original URL.
func (c *Collector) resolveFinalURL(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.resolveClient.Do(req)
	if err != nil {
		return rawURL
	}
	defer resp.Body.Close()

	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return rawURL
}

// probeLiveness issues a GET and accepts 2xx/3xx responses.
func (c *Collector) probeLiveness(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
