// Package logger wraps zap with a process-wide sugared logger and context
// helpers (ToContext/FromContext/WithName/WithKV).
//
// Services receive a context and pull the logger out of it, so every message
// carries the name and fields attached further up the call chain.
package logger
