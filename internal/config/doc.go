// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the dashboard's settings while keeping configuration details
// separate from the push, polling and rendering logic.
package config
