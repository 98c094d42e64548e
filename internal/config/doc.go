// Package config loads, normalizes, and validates slideframe configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, resolves durations, byte sizes and colours, and honours
// the PHOTOPRISM_* environment fallbacks. The resulting Config is built once
// before the slideshow starts and is only read afterwards.
package config
