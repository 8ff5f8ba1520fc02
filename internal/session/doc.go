// Package session implements named, time-bounded track groupings: creation
// with name uniqueness, membership management, and tolerant resolution of
// member references against the catalog.
package session
