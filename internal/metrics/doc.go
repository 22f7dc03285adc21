// Package metrics holds the bounded in-memory sample buffer the alert
// evaluator reads from. Producers append samples with Record; the buffer
// evicts the oldest samples once the capacity ceiling is reached.
package metrics
