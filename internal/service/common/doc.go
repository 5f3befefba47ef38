// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper for ReminderService with
// timeouts, and utilities to detect the current system actor
// (hostname/username) that is sent along with each call for audit logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
