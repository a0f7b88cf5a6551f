// Package render provides display surfaces for an alertpop client: a
// terminal renderer, desktop notifications, a fan-out renderer, and sounds.
package render
