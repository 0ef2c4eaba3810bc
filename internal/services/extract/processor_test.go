package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
)

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(common.NewDefaultConfig(), common.GetLogger())
}

func TestProcessorHTML(t *testing.T) {
	t.Run("extracts title and converts body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><head><title>Pump WP-155</title></head>
				<body><h1>Specifications</h1><p>Flow rate: 33 L/min</p></body></html>`))
		}))
		defer server.Close()

		content, err := testProcessor(t).Process(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "Pump WP-155", content.Title)
		assert.Contains(t, content.Text, "Specifications")
		assert.Contains(t, content.Text, "Flow rate: 33 L/min")
	})

	t.Run("falls back to og title", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><meta property="og:title" content="OG Pump"></head><body><p>body</p></body></html>`))
		}))
		defer server.Close()

		content, err := testProcessor(t).Process(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "OG Pump", content.Title)
	})

	t.Run("error status fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusGone)
		}))
		defer server.Close()

		_, err := testProcessor(t).Process(context.Background(), server.URL)
		require.Error(t, err)
	})
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF("application/pdf", "https://example.com/doc"))
	assert.True(t, isPDF("text/html", "https://example.com/manual.PDF"))
	assert.True(t, isPDF("", "https://example.com/manual.pdf/"))
	assert.False(t, isPDF("text/html", "https://example.com/page"))
}

func TestStripHTMLTags(t *testing.T) {
	input := `<div><p>Flow &amp; pressure</p>   <span>33 L/min</span></div>`
	assert.Equal(t, "Flow & pressure 33 L/min", stripHTMLTags(input))
}
