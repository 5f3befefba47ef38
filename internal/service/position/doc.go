// Package position turns a device location capability into a cancellable
// stream of normalized fixes and typed failures.
//
// A Device delivers raw samples; the Sampler validates them, drops fixes
// older than the configured maximum age, reports a timeout when the device
// goes quiet and guarantees that nothing is delivered once Cancel returns.
//
// Three devices are provided: ReplayDevice plays a YAML track, PushDevice
// accepts fixes reported by a remote client and UnsupportedDevice stands in
// for platforms without a location capability.
package position
