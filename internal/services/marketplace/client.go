package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Client implements the MarketplaceService interface against a search API
// that proxies marketplace results.
type Client struct {
	config     *common.MarketplaceConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ interfaces.MarketplaceService = (*Client)(nil)

// NewClient creates a marketplace search client.
func NewClient(config *common.Config, logger arbor.ILogger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.Marketplace.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(config.Marketplace.RateLimit), 1)
	}

	return &Client{
		config: &config.Marketplace,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Marketplace.RequestTimeout,
		},
		limiter: limiter,
	}
}

// searchRecord is one element of the provider's top-level response array.
// The result field is a JSON-encoded string holding {"data": [...]}.
type searchRecord struct {
	Result string `json:"result"`
}

type searchPayload struct {
	Data []listingPayload `json:"data"`
}

type listingPayload struct {
	Link      string     `json:"link"`
	ProductID flexString `json:"product_id"`
	Name      string     `json:"name"`
	Price     flexString `json:"price"`
	Sold      flexString `json:"sold"`
}

// flexString tolerates providers that emit numbers where text is expected.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Search fetches marketplace listings for a keyword. A response that does
// not match the expected shape yields an empty result, not an error; only
// transport and HTTP-status failures are errors.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]models.MarketplaceListing, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("marketplace search: %w", common.ErrMissingCredential)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("engine", c.config.Engine)
	params.Set("q", keyword)
	params.Set("api_key", c.config.APIKey)
	fullURL := fmt.Sprintf("%s?%s", c.config.Endpoint, params.Encode())

	c.logger.Debug().
		Str("engine", c.config.Engine).
		Str("keyword", keyword).
		Msg("Calling marketplace search API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build marketplace request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read marketplace response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketplace search returned status %d: %s", resp.StatusCode, string(body))
	}

	listings := decodeListings(body)
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}

	c.logger.Info().
		Str("keyword", keyword).
		Int("listings", len(listings)).
		Msg("Marketplace search completed")

	return listings, nil
}

// decodeListings unwraps the provider's nested encoding: an array of records
// whose result field is a JSON string holding {"data": [...]}. Records or
// payloads with an unexpected shape are skipped.
func decodeListings(body []byte) []models.MarketplaceListing {
	var records []searchRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil
	}

	var listings []models.MarketplaceListing
	for _, record := range records {
		if record.Result == "" {
			continue
		}
		var payload searchPayload
		if err := json.Unmarshal([]byte(record.Result), &payload); err != nil {
			continue
		}
		for _, item := range payload.Data {
			listings = append(listings, models.MarketplaceListing{
				Link:      item.Link,
				ProductID: string(item.ProductID),
				Name:      item.Name,
				Price:     string(item.Price),
				Sold:      string(item.Sold),
			})
		}
	}
	return listings
}
