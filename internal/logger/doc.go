// Package logger wraps zap with a process-wide sugared logger and context
// helpers (ToContext, FromContext, WithName, WithKV).
//
// Services receive a context and log through it, so component names and
// session fields such as user_id follow the call chain.
package logger
