// Package server provides the HTTP surface of the alertpop command.
//
// It serves:
//
//   - The alert page: embedded HTML at "/" that draws cards in the browser
//   - A websocket card stream at "/ws", fed by [Hub] acting as a renderer
//   - A JSON API under "/api" for the displayed alerts and client controls
//   - Server-Sent Events at "/api/sse" for registry changes
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
