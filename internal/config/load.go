package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Load returns Default() with the fields present in the HuJSON file at path
// applied on top. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := apply(&cfg, data); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func apply(cfg *Config, data []byte) error {
	ast, err := hujson.Parse(data)
	if err != nil {
		return err
	}
	ast.Standardize()

	dec := json.NewDecoder(bytes.NewReader(ast.Pack()))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}
