// Package client implements the reminder-ctl operations.
//
// Each operation connects to the reminder server, performs one control call
// and prints the outcome. Simulate replays a recorded track against the
// server as if a phone were reporting fixes.
package client
