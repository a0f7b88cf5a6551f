// Package poller provides the HTTP plumbing and timing for alertpop.
//
// This package is internal to alertpop and handles talking to the alerts
// API and driving the periodic poll.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [Feed]: the alerts API (pending listing and acknowledge-one)
//   - [WireAlert]: one decoded, validated element of the listing
//   - [Scheduler]: runs a job immediately and then periodically, with pause/resume
//
// Users of the alertpop library should not need to interact with this
// package directly. Configuration is done through the main alertpop package.
package poller
