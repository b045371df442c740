// Package config loads, normalizes, and validates epgmerge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the EPGMERGE_SOURCE environment
// fallback. Besides paths and logging the Config carries the channel mapping
// table (feed channel to target channels plus merge policy) and the display
// labels used in synthesized descriptions.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
