// Package ws streams alert state to dashboard clients over WebSocket.
// Connected clients receive the current statistics and active alerts on a
// fixed broadcast interval; slow clients are disconnected rather than
// allowed to stall the hub.
package ws
