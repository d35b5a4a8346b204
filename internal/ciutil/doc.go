// Package ciutil detects the execution environment (CI or local) and reads
// the environment variables the integration tests use to find their databases.
package ciutil
