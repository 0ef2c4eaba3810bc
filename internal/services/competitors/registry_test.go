package competitors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "competitors.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("wrapped object", func(t *testing.T) {
		path := writeFile(t, `{"competitors": [{"brand_key": "mitsu", "display_name": "Mitsubishi", "aliases": ["mitsubishi"]}]}`)

		profiles, err := Load(path)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "mitsu", profiles[0].BrandKey)
		assert.Equal(t, []string{"mitsubishi"}, profiles[0].Aliases)
	})

	t.Run("bare array", func(t *testing.T) {
		path := writeFile(t, `[{"brand_key": "hitachi"}]`)

		profiles, err := Load(path)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "hitachi", profiles[0].BrandKey)
	})

	t.Run("unexpected shape yields empty", func(t *testing.T) {
		path := writeFile(t, `"just a string"`)

		profiles, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("invalid json errors", func(t *testing.T) {
		path := writeFile(t, `{not json`)

		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})

	t.Run("empty path yields empty registry", func(t *testing.T) {
		profiles, err := Load("")
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})
}

func TestPreferredBrandList(t *testing.T) {
	profiles := []models.CompetitorProfile{
		{BrandKey: "mitsu", DisplayName: "Mitsubishi"},
		{BrandKey: "hitachi"},
		{BrandKey: "mitsu2", DisplayName: "Mitsubishi"},
		{BrandKey: "  ", DisplayName: "  "},
	}

	assert.Equal(t, []string{"Mitsubishi", "hitachi"}, PreferredBrandList(profiles))
}
