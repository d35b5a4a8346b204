// Package mongodb implements the store interfaces on MongoDB. Users are single
// documents that embed their session tokens and avatar; tasks live in their
// own collection keyed by owner.
//
// Every task filter is built on ownerFilter.
package mongodb
