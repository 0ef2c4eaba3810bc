package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/models"
)

// fakeLLM plays back scripted responses for grounded and plain generation.
type fakeLLM struct {
	grounded      []string
	plain         []string
	groundedCalls int
	plainCalls    int
	plainPrompts  []string
}

func (f *fakeLLM) GenerateGrounded(ctx context.Context, model, prompt string) (string, error) {
	response := ""
	if f.groundedCalls < len(f.grounded) {
		response = f.grounded[f.groundedCalls]
	}
	f.groundedCalls++
	return response, nil
}

func (f *fakeLLM) Generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	f.plainPrompts = append(f.plainPrompts, prompt)
	response := ""
	if f.plainCalls < len(f.plain) {
		response = f.plain[f.plainCalls]
	}
	f.plainCalls++
	return response, nil
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                          { return nil }

func testEngine(llm *fakeLLM) *Engine {
	config := common.NewDefaultConfig()
	config.Discovery.SelfBrand = "acme"
	config.Discovery.DebugDir = ""
	return NewEngine(config, llm, common.GetLogger())
}

func testRequest(maxTotal int) models.DiscoverRequest {
	return models.DiscoverRequest{
		Category:      "water pumps",
		Market:        "Thailand",
		MaxTotal:      maxTotal,
		AllowExternal: true,
		Competitors: []models.CompetitorProfile{
			{BrandKey: "mitsu", DisplayName: "Mitsubishi", Aliases: []string{"mitsubishi"}},
			{BrandKey: "hitachi", DisplayName: "Hitachi", Aliases: []string{"hitachi"}},
		},
	}
}

func TestEngineDiscover(t *testing.T) {
	t.Run("parses valid fenced response", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			"```json\n{\"products\": [{\"brand_key\": \"mitsu\", \"url\": \"https://example.com/p1\", \"title\": \"Pump A\", \"snippet\": \"specs\"}]}\n```",
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "mitsu", items[0].BrandKey)
		assert.Equal(t, "https://example.com/p1", items[0].URL)
		assert.Equal(t, 1, llm.groundedCalls)
	})

	t.Run("retries empty responses", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			"", "  ", "{\"products\": [{\"url\": \"https://example.com/p1\", \"title\": \"Pump A\"}]}",
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, 3, llm.groundedCalls)
	})

	t.Run("exhausted retries return empty response error", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{"", "", "", "", ""}}
		engine := testEngine(llm)

		_, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyModelResponse)
		assert.Equal(t, 5, llm.groundedCalls)
	})

	t.Run("repairs malformed response once", func(t *testing.T) {
		llm := &fakeLLM{
			grounded: []string{`{"products": [{"url": "https://example.com/p1",`},
			plain:    []string{`{"products": [{"url": "https://example.com/p1", "title": "Pump A"}]}`},
		}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, 1, llm.plainCalls)
		require.Len(t, llm.plainPrompts, 1)
		assert.Contains(t, llm.plainPrompts[0], "Fix the JSON")
	})

	t.Run("second parse failure propagates", func(t *testing.T) {
		llm := &fakeLLM{
			grounded: []string{`{"products": [`},
			plain:    []string{`still not json`},
		}
		engine := testEngine(llm)

		_, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.Equal(t, 1, llm.plainCalls)
	})

	t.Run("deduplicates on trailing slash", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			`{"products": [
				{"url": "https://example.com/p1/", "title": "Pump A"},
				{"url": "https://example.com/p1", "title": "Pump A again"},
				{"url": "https://example.com/p2", "title": "Pump B"}
			]}`,
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "https://example.com/p1/", items[0].URL)
		assert.Equal(t, "https://example.com/p2", items[1].URL)
	})

	t.Run("excludes self brand", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			`{"products": [
				{"brand_key": "acme", "url": "https://example.com/p1", "title": "Pump A"},
				{"url": "https://example.com/p2", "title": "ACME Pump B"},
				{"url": "https://example.com/p3", "title": "Hitachi Pump C"}
			]}`,
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "hitachi", items[0].BrandKey)
	})

	t.Run("caps at max total", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			`{"products": [
				{"url": "https://example.com/p1", "title": "Pump A"},
				{"url": "https://example.com/p2", "title": "Pump B"},
				{"url": "https://example.com/p3", "title": "Pump C"}
			]}`,
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(2), nil)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("infers brand from aliases", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			`{"products": [{"url": "https://example.com/p1", "title": "Mitsubishi WP-155", "snippet": "automatic pump"}]}`,
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "mitsu", items[0].BrandKey)
	})

	t.Run("derives synthetic brand for external items", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			`{"products": [{"url": "https://example.com/p1", "title": "Grundfos SCALA2"}]}`,
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "grundfos", items[0].BrandKey)
	})

	t.Run("skips items without url", func(t *testing.T) {
		llm := &fakeLLM{grounded: []string{
			`{"products": [{"title": "No URL"}, {"url": "https://example.com/p1", "title": "Pump A"}, "not an object"]}`,
		}}
		engine := testEngine(llm)

		items, err := engine.Discover(context.Background(), testRequest(10), nil)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestEngineTranslateCategory(t *testing.T) {
	t.Run("translates non-empty category", func(t *testing.T) {
		llm := &fakeLLM{plain: []string{" water pumps \n"}}
		engine := testEngine(llm)

		translated, err := engine.TranslateCategory(context.Background(), "ปั๊มน้ำ", nil)
		require.NoError(t, err)
		assert.Equal(t, "water pumps", translated)
		require.Len(t, llm.plainPrompts, 1)
		assert.Contains(t, llm.plainPrompts[0], "ปั๊มน้ำ")
	})

	t.Run("empty category short-circuits", func(t *testing.T) {
		llm := &fakeLLM{}
		engine := testEngine(llm)

		translated, err := engine.TranslateCategory(context.Background(), "   ", nil)
		require.NoError(t, err)
		assert.Empty(t, translated)
		assert.Equal(t, 0, llm.plainCalls)
	})
}

func TestNormalizeBrandKey(t *testing.T) {
	assert.Equal(t, "grundfos", normalizeBrandKey("Grundfos!"))
	assert.Equal(t, "wp155", normalizeBrandKey("WP-155"))
	assert.Equal(t, "", normalizeBrandKey("!!!"))
}
