// Package config loads, normalizes, and validates the TOML configuration
// that drives the export pipeline and the legacy migrator.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/epasset/config.toml, then ./epasset.toml, then built-in
// defaults. All path fields are tilde-expanded and made absolute during
// Load so downstream code never deals with relative paths.
package config
