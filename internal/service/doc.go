// Package service implements the application's use cases on top of the
// store interfaces: account lifecycle and sessions in UserService, and
// owner-scoped task management in TaskService.
package service
