// Package home keeps the session's in-memory mirror of the user's home
// location in sync with a persistent repository.
package home
