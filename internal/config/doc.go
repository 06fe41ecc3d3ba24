// Package config loads the agent configuration from a JSON or YAML file,
// applies defaults and validates it. The resolved Config is immutable; a
// restart is required to pick up changes.
package config
