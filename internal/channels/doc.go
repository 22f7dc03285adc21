// Package channels defines notification channel types and the in-memory
// channel registry, including the per-channel send-rate bookkeeping the
// dispatcher consults before every delivery.
package channels
