// Package notifier delivers reminder alerts to the user.
//
// A Dispatcher asks the platform for permission once per session and shows
// title/body alerts through it. Delivery is best-effort: callers log the
// returned error and move on.
package notifier
