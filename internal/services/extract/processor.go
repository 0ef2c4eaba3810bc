package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Processor fetches a URL and extracts readable text. HTML pages are
// converted to markdown; PDF documents go through content extraction.
type Processor struct {
	config     *common.ExtractorConfig
	logger     arbor.ILogger
	httpClient *http.Client
}

var _ interfaces.SourceProcessor = (*Processor)(nil)

// NewProcessor creates a source processor.
func NewProcessor(config *common.Config, logger arbor.ILogger) *Processor {
	return &Processor{
		config: &config.Extractor,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Extractor.RequestTimeout,
		},
	}
}

// Process fetches the URL and returns its title and extracted text.
func (p *Processor) Process(ctx context.Context, rawURL string) (*interfaces.ProcessedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch of %s returned status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(p.config.MaxBodySize)))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if isPDF(contentType, rawURL) {
		return p.processPDF(body)
	}
	return p.processHTML(body, rawURL)
}

func isPDF(contentType, rawURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimRight(rawURL, "/")), ".pdf")
}

// processHTML extracts the page title via goquery and converts the body to
// markdown, falling back to tag stripping when conversion fails or comes
// back empty.
func (p *Processor) processHTML(body []byte, baseURL string) (*interfaces.ProcessedContent, error) {
	html := string(body)

	title := ""
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
		if title == "" {
			if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
				title = strings.TrimSpace(ogTitle)
			}
		}
	}

	converter := md.NewConverter(baseURL, true, nil)
	text, err := converter.ConvertString(html)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			p.logger.Warn().Err(err).Str("url", baseURL).Msg("HTML to markdown conversion failed, using fallback")
		}
		text = stripHTMLTags(html)
	}

	return &interfaces.ProcessedContent{
		Title: title,
		Text:  strings.TrimSpace(text),
	}, nil
}

// processPDF writes the document to a temp file and extracts page content
// with pdfcpu. pdfcpu has no direct text extraction, so extracted content
// streams are concatenated in page order.
func (p *Processor) processPDF(body []byte) (*interfaces.ProcessedContent, error) {
	tempDir, err := os.MkdirTemp("", "extract_pdf_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempFile := filepath.Join(tempDir, "source.pdf")
	if err := os.WriteFile(tempFile, body, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	outDir := filepath.Join(tempDir, "pages")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = string(content)
	}

	var fullText strings.Builder
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		if text := pageTexts[pageNum]; text != "" {
			if fullText.Len() > 0 {
				fullText.WriteString("\n\n")
			}
			fullText.WriteString(text)
		}
	}

	// pdfcpu does not expose the document title cleanly; the caller falls
	// back to the candidate title for PDFs.
	return &interfaces.ProcessedContent{
		Title: "",
		Text:  strings.TrimSpace(fullText.String()),
	}, nil
}

// stripHTMLTags removes tags and decodes a basic entity set for fallback
// cases.
func stripHTMLTags(htmlStr string) string {
	stripped := tagRe.ReplaceAllString(htmlStr, "")
	cleaned := spaceRe.ReplaceAllString(stripped, " ")

	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
