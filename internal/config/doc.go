// Package config loads, normalizes, and validates webstatic configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the WEBSTATIC_LOG_LEVEL
// environment override. Relative paths in a config file are anchored at the
// file's directory, so a project can be built from any working directory.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
