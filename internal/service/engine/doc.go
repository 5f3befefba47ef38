// Package engine runs the proximity reminder loop for one user.
//
// A single goroutine owns the hysteresis machine. It consumes position
// events and control commands in arrival order, measures each fix against
// the stored home location and dispatches the leave-home alert when the
// machine asks for it. Readers observe the loop through Status snapshots.
package engine
