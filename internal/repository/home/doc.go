// Package home persists the per-user home location.
//
// Every backend stores one document per user and writes with merge
// semantics: saving or clearing the home location never touches unrelated
// fields of the user's document. FileRepository keeps the documents as
// protobuf JSON on disk, SQLiteRepository uses a users table and
// RedisRepository keeps one hash per user.
package home
