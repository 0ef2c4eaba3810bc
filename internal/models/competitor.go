package models

import "strings"

// CompetitorProfile is a known brand profile loaded from the competitor
// configuration file. Profiles are read-only after load.
type CompetitorProfile struct {
	BrandKey    string   `json:"brand_key"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases"`
}

// Name returns the display name, falling back to the brand key.
func (p *CompetitorProfile) Name() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(p.BrandKey)
}
