// Package config loads, normalizes, and validates themereel configuration data.
//
// It supplies repository defaults (1080p/30fps H.264 + AAC, 100 second theme
// timelines, a 10% background bed), expands user paths including tilde
// shortcuts, reads TOML files, and honours environment fallbacks such as
// THEMEREEL_ASSET_DIR. The Config type centralizes every knob the composer,
// encoder, batch driver, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
