// Package auth issues and validates signed bearer tokens and hashes passwords.
package auth
