// Package alerts holds every alert the evaluator has ever created and
// implements the alert lifecycle: active alerts may be acknowledged,
// resolved, or suppressed; resolved and suppressed are terminal.
package alerts
