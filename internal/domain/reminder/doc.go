// Package reminder implements the leave-home hysteresis state machine.
//
// The machine is a pure decision component: it consumes the home point and
// position fixes and returns the next state together with the effects the
// caller must execute. It performs no I/O and is not safe for concurrent use;
// the engine drives it from a single goroutine.
package reminder
