// Package notify fans a fired alert out to its rule's notification channels.
// Delivery is best-effort: disabled, missing, or rate-limited channels are
// skipped silently, and a failed send is logged without retry and never
// blocks sibling channels.
package notify
