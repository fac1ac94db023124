// Package config holds engine settings shared by the pmx and deform packages.
package config

import (
	"fmt"
	"io"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

const (
	EncodingUTF16 = "utf-16"
	EncodingUTF8  = "utf-8"
)

type Config struct {
	// Defaults for models created with pmx.NewModelWithConfig.
	Encoding      string  `yaml:"encoding"`
	AdditionalUVs int     `yaml:"additionalUVs"`
	Version       float32 `yaml:"version"`

	// Group morphs nested deeper than this are ignored during evaluation.
	MaxMorphDepth int `yaml:"maxMorphDepth"`

	// Renormalize skinned normals after blending.
	NormalizeNormals bool `yaml:"normalizeNormals"`
}

func Default() *Config {
	return &Config{
		Encoding:      EncodingUTF16,
		AdditionalUVs: 0,
		Version:       2.0,
		MaxMorphDepth: 16,
	}
}

// Load reads a YAML document. Fields missing from the document keep their default values.
func Load(r io.Reader) (*Config, error) {
	conf := Default()
	if err := yaml.NewDecoder(r).Decode(conf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	c.Encoding = strings.ToLower(c.Encoding)
	if c.Encoding != EncodingUTF16 && c.Encoding != EncodingUTF8 {
		return fmt.Errorf("config: unsupported encoding %q", c.Encoding)
	}
	if c.AdditionalUVs < 0 || c.AdditionalUVs > 4 {
		return fmt.Errorf("config: additionalUVs must be 0..4, got %d", c.AdditionalUVs)
	}
	if c.Version != 2.0 && c.Version != 2.1 {
		return fmt.Errorf("config: unsupported version %v", c.Version)
	}
	if c.MaxMorphDepth <= 0 {
		return fmt.Errorf("config: maxMorphDepth must be positive, got %d", c.MaxMorphDepth)
	}
	return nil
}

// Save writes c as YAML.
func (c *Config) Save(w io.Writer) error {
	return yaml.NewEncoder(w).Encode(c)
}
