// Package config loads and validates the alertmesh service configuration
// from YAML and watches the file for changes. The alerting block carries
// the engine-wide defaults (global cooldown, alert-rate cap, escalation and
// suppression policy) and is part of the JSON export payload.
package config
