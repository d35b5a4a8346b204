// Package config loads and validates the service configuration from
// defaults, an optional YAML file, a .env file and TASKMAN_* environment
// variables.
package config
