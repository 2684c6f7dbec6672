// Package services wires the daemon's components into a single
// registry so handlers and commands share one construction path.
//
// The registry is assembled once at startup and passed down
// explicitly; there is no package-level singleton.
package services
