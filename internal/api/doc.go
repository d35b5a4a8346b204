// Package api holds the HTTP handlers for accounts, tasks and avatars.
// Handlers decode and validate requests, call the services and map their
// errors to status codes and client-safe messages.
package api
