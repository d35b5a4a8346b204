// Package mocks provides shared test doubles for the store and auth interfaces.
//
// MockUserStore and MockTaskStore are working in-memory stores: they honor
// owner scoping, insertion order, sorting, pagination and the user-to-task
// cascade, so handler and service tests can run whole scenarios without a
// database. Function fields override individual methods when a test needs
// to inject a failure.
//
//	tasks := mocks.NewMockTaskStore()
//	users := mocks.NewMockUserStore()
//	users.Tasks = tasks
//
// TestifyMockUserStore is a testify/mock based double for tests that assert
// on exact calls.
package mocks
