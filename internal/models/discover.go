package models

// DiscoverRequest carries the inputs for a single discovery call.
type DiscoverRequest struct {
	Category        string
	CategoryEN      string
	Market          string
	Competitors     []CompetitorProfile
	MaxTotal        int
	AllowExternal   bool
	PreferredBrands []string
	PreferPDFs      bool
	ModelName       string
}

// CollectRequest carries the inputs for the batch collection loop.
type CollectRequest struct {
	Category        string
	CategoryEN      string
	Market          string
	Competitors     []CompetitorProfile
	TargetCount     int
	BatchSize       int
	AllowExternal   bool
	PreferredBrands []string
	PreferPDFs      bool
	ModelName       string
}
