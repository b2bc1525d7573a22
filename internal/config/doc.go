// Package config loads, normalizes, and validates quill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files or, for setups carried over from older
// installs, YAML files. The Config type centralizes every knob the watcher,
// ledger and CLI need so directories and external tool settings are resolved
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
