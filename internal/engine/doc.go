// Package engine ties the metric buffer, rule registry, channel registry,
// alert store, and notification dispatcher together behind one constructor
// and runs the periodic evaluation tick. Each tick checks every enabled rule
// against the most recent sample of its metric and fires alerts through the
// dispatcher without blocking the next tick.
package engine
