// Package config loads enhimg settings from an HCL or YAML file.
//
//	tag                = "enhanced:img"
//	placeholder_prefix = "__enhanced_asset_"
//	root               = "."
//	manifest           = "variants.db"
//	extensions         = ["png", "jpg"]
//	source_maps        = true
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/enhimg/internal/enhance"
)

// Config is the file form of the transform settings. Zero fields fall back
// to Default.
type Config struct {
	Tag               string   `hcl:"tag,optional" yaml:"tag"`
	PlaceholderPrefix string   `hcl:"placeholder_prefix,optional" yaml:"placeholder_prefix"`
	Root              string   `hcl:"root,optional" yaml:"root"`
	Manifest          string   `hcl:"manifest,optional" yaml:"manifest"`
	Extensions        []string `hcl:"extensions,optional" yaml:"extensions"`
	SourceMaps        bool     `hcl:"source_maps,optional" yaml:"source_maps"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Tag:               enhance.DefaultTag,
		PlaceholderPrefix: enhance.DefaultPlaceholderPrefix,
		Root:              ".",
		Extensions:        append([]string(nil), enhance.DefaultExtensions...),
	}
}

// Load reads path and merges it over Default. The decoder is picked by
// extension: .hcl for HCL, .yaml or .yml for YAML.
func Load(path string) (*Config, error) {
	var file Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	cfg := Default()
	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Tag != "" {
		c.Tag = o.Tag
	}
	if o.PlaceholderPrefix != "" {
		c.PlaceholderPrefix = o.PlaceholderPrefix
	}
	if o.Root != "" {
		c.Root = o.Root
	}
	if o.Manifest != "" {
		c.Manifest = o.Manifest
	}
	if len(o.Extensions) > 0 {
		c.Extensions = o.Extensions
	}
	c.SourceMaps = c.SourceMaps || o.SourceMaps
}

// Options converts the settings into transformer options.
func (c *Config) Options() enhance.Options {
	return enhance.Options{
		Tag:               c.Tag,
		PlaceholderPrefix: c.PlaceholderPrefix,
		Extensions:        c.Extensions,
	}
}
