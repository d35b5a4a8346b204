// Package domain contains the core business entities of the task manager:
// users, the tasks they own, and the query shape used to list tasks.
// It validates entity state and knows nothing about storage or transport.
package domain
