package ciutil

import (
	"log/slog"
	"os"

	"github.com/phrazzld/taskman-api/internal/redact"
)

// Environment variables read by this package.
const (
	// CI environment detection variables
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	// EnvTestDatabaseURL points integration tests at an existing Postgres
	// instead of a throwaway container.
	EnvTestDatabaseURL = "TASKMAN_TEST_DATABASE_URL"
	// EnvDatabaseURL is the service's own setting, accepted as a fallback.
	EnvDatabaseURL = "TASKMAN_DATABASE_URL"

	// EnvTestMongoURL points integration tests at an existing MongoDB.
	EnvTestMongoURL = "TASKMAN_TEST_MONGO_URL"
)

// IsCI returns true if the current environment is a CI environment.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the value of the first non-empty environment variable
// from envVars, or defaultValue when none is set. Using anything but the first name
// is logged, with the value redacted.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, name := range envVars {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("Using fallback environment variable",
				slog.String("used_var", name),
				slog.String("preferred_var", envVars[0]),
				slog.String("value", redact.String(val)))
		}
		return val
	}
	return defaultValue
}

// TestDatabaseURL returns the Postgres URL configured for integration tests, or "".
func TestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", logger)
}

// TestMongoURL returns the MongoDB URL configured for integration tests, or "".
func TestMongoURL() string {
	return os.Getenv(EnvTestMongoURL)
}
