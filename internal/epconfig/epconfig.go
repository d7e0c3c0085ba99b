// Package epconfig models the current-schema asset configuration document
// (epconfig.json) that ships alongside exported and migrated asset folders.
// The pipeline only constructs and populates this record; interpreting it is
// the device client's job.
package epconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// OverlayTypeOperator selects the operator-style overlay renderer.
const OverlayTypeOperator = "operator"

// Loop references the looping video asset.
type Loop struct {
	File string `json:"file"`
}

// OperatorOptions carries the operator overlay's display parameters.
type OperatorOptions struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Logo  string `json:"logo,omitempty"`
}

// Overlay is the overlay variant record. Only the operator variant exists
// today; the type discriminator keeps the document forward-compatible.
type Overlay struct {
	Type     string           `json:"type"`
	Operator *OperatorOptions `json:"operator_options,omitempty"`
}

// Config is the asset folder's configuration document.
type Config struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Loop        Loop     `json:"loop"`
	Overlay     *Overlay `json:"overlay,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// LoadFromFile reads and decodes a configuration document.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// SaveToFile serializes the document with stable indentation.
func (c *Config) SaveToFile(path string) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("save config: name is required")
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
