// Package httpserver exposes the catalog and session services over HTTP.
// Handlers translate transport concerns (binding, status codes, identity)
// and delegate everything else to the services.
package httpserver
