// Package rules defines alert rule types and the in-memory rule registry.
// Registry mutations follow a soft contract: operations against an unknown
// id report false and never fail, so concurrent UI edits and the background
// evaluator cannot crash each other.
package rules
