// Package domain holds the core entities (tracks, votes, sessions), the
// sentinel errors shared across layers, and the repository interfaces the
// services depend on. It has no dependencies on transport or storage.
package domain
