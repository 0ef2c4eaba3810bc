package models

// DiscoveredItem is a single product candidate returned by the discovery
// engine. The URL (after trailing-slash normalization) is the dedup key.
// Items are never mutated after creation.
type DiscoveredItem struct {
	BrandKey string `json:"brand_key"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// CollectedSource is the knowledge store's materialized view of a URL once
// fetched and processed. The pipeline only reads the extracted text.
type CollectedSource struct {
	ID            string `json:"id"`
	NotebookID    string `json:"notebook_id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	ExtractedText string `json:"extracted_text"`
}
