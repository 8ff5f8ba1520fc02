// Package catalog implements the track catalog: creation, lookup, vote
// casting with per-user deduplication, and the rated listing/search surface.
package catalog
