package competitors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
)

// Load reads competitor profiles from a JSON file. The file may be either an
// object with a top-level "competitors" array or a bare array of profiles;
// any other shape yields an empty slice, not an error. An empty path yields
// an empty registry. Profiles are read-only after load.
func Load(path string) ([]models.CompetitorProfile, error) {
	if path == "" {
		return []models.CompetitorProfile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read competitor file %s: %w", path, err)
	}

	var wrapper struct {
		Competitors []models.CompetitorProfile `json:"competitors"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Competitors != nil {
		return wrapper.Competitors, nil
	}

	var bare []models.CompetitorProfile
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	// Valid JSON of an unexpected shape is treated as no competitors.
	var anything interface{}
	if err := json.Unmarshal(data, &anything); err != nil {
		return nil, fmt.Errorf("failed to parse competitor file %s: %w", path, err)
	}
	return []models.CompetitorProfile{}, nil
}

// PreferredBrandList returns each profile's display name (falling back to the
// brand key), trimmed, in first-seen order with duplicates removed.
func PreferredBrandList(profiles []models.CompetitorProfile) []string {
	names := make([]string, 0, len(profiles))
	seen := make(map[string]bool)
	for i := range profiles {
		name := strings.TrimSpace(profiles[i].Name())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
