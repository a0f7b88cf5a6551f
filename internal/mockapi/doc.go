// Package mockapi is an in-memory alerts server speaking the same JSON API
// the client polls. It backs the "alertpop mock" command and end-to-end
// tests.
//
// Routes:
//
//   - GET  /api/notifications: pending alerts as {"notifications": [...]}
//   - POST /api/notifications/:id/mark_read: acknowledge one alert
//   - POST /api/notifications: enqueue a new alert
package mockapi
