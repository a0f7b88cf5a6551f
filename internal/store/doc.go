// Package store provides the in-memory alert registry for alertpop.
//
// This package is internal to alertpop and keeps the set of alerts that are
// currently displayed, in the order they were first shown. It implements a
// publish-subscribe pattern so that the host-page server can stream registry
// changes to connected clients.
//
// The main components are:
//
//   - [Registry]: ordered, concurrency-safe map from alert id to value
//   - [Event]: an add or remove notification delivered to subscribers
//
// Subscribers receive events via channels with non-blocking sends (slow
// subscribers will miss events rather than block the poll path).
//
// Users of the alertpop library should not need to interact with this
// package directly. The registry is owned by alertpop.Client.
package store
