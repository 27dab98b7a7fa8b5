// Package config loads, normalizes, and validates Stylus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, layers a .env file, and honours environment
// fallbacks such as SLSKD_API_KEY and SPOTIFY_CLIENT_SECRET. The Config type
// centralizes every knob the daemon and CLI need, allowing staging/library
// directories and external service credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
