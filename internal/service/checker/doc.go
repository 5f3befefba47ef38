// Package checker polls a reminder server and reports state changes.
//
// It backs `reminder-ctl watch`: every poll fetches the status and prints a
// line when the reminder state, the home location or the number of sent
// reminders changed since the previous poll.
package checker
