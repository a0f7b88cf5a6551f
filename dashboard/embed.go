// Package dashboard provides the embedded alert page.
//
// The page connects to the server's websocket, draws every card it is sent
// in a fixed corner container, and reports dismissals and tab visibility
// back. Embedding keeps the alertpop binary self-contained.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the alert page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
