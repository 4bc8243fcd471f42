// Package config loads, normalizes, and validates digitprep configuration data.
//
// It supplies repository defaults (the ten digit classes, the 16 kHz one-second
// clip requirement, the Speech Commands archive layout), expands user paths
// including tilde shortcuts, and reads TOML files. The Config type is built
// once at startup and passed by pointer into the pipeline; nothing mutates it
// after Load returns.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log settings, and clear validation errors.
package config
