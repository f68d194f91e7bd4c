package dispatch

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateSet_Render(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("substitutes the body", func(t *testing.T) {
		set := NewTemplateSet([]Template{{Text: "before {message} after"}}, rng)
		assert.Equal(t, "before halo after", set.Render("halo"))
	})

	t.Run("empty set falls back", func(t *testing.T) {
		set := NewTemplateSet(nil, rng)
		out := set.Render("minum obat")
		assert.Contains(t, out, "minum obat")
		assert.NotContains(t, out, messagePlaceholder)
	})

	t.Run("picks from all templates", func(t *testing.T) {
		set := NewTemplateSet([]Template{
			{Text: "a:{message}"},
			{Text: "b:{message}"},
		}, rng)

		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			seen[set.Render("x")] = true
		}
		assert.Len(t, seen, 2)
	})
}

func TestLoadTemplates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("loads from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "templates.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"text":"tpl {message}"}]`), 0o644))

		set := LoadTemplates(path, rng)
		assert.Equal(t, "tpl halo", set.Render("halo"))
	})

	t.Run("missing file uses fallback", func(t *testing.T) {
		set := LoadTemplates("/nonexistent/templates.json", rng)
		assert.Contains(t, set.Render("halo"), "halo")
	})

	t.Run("malformed file uses fallback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "templates.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		set := LoadTemplates(path, rng)
		assert.Contains(t, set.Render("halo"), "halo")
	})
}
