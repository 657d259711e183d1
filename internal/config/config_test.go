package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/enhimg/internal/enhance"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "enhanced:img", c.Tag)
	assert.Equal(t, "__enhanced_asset_", c.PlaceholderPrefix)
	assert.Equal(t, enhance.DefaultExtensions, c.Extensions)
	assert.False(t, c.SourceMaps)
}

func TestLoad_HCL(t *testing.T) {
	p := writeConfig(t, "enhimg.hcl", `
tag         = "fancy:img"
manifest    = "variants.db"
extensions  = ["png"]
source_maps = true
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "fancy:img", c.Tag)
	assert.Equal(t, "variants.db", c.Manifest)
	assert.Equal(t, []string{"png"}, c.Extensions)
	assert.True(t, c.SourceMaps)
	assert.Equal(t, "__enhanced_asset_", c.PlaceholderPrefix, "unset fields keep defaults")
	assert.Equal(t, ".", c.Root)
}

func TestLoad_YAML(t *testing.T) {
	p := writeConfig(t, "enhimg.yaml", "placeholder_prefix: __img\nroot: site\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "__img", c.PlaceholderPrefix)
	assert.Equal(t, "site", c.Root)
	assert.Equal(t, "enhanced:img", c.Tag)

	opts := c.Options()
	assert.Equal(t, "__img", opts.PlaceholderPrefix)
	assert.Equal(t, enhance.DefaultExtensions, opts.Extensions)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "enhimg.toml", "tag = 1"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = Load(writeConfig(t, "bad.hcl", "tag = "))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad.yaml", "tag: [unclosed"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
