// Package api exposes the engine over HTTP JSON for the administrative UI
// and external producers: metric recording, rule and channel CRUD, alert
// lifecycle actions, statistics, and configuration import/export.
package api
