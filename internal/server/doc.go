// Package server hosts the Fiber HTTP daemon that exposes the artifact cache to
// build tools written in other languages. The middleware chain assigns request
// IDs and recovers panics; cache handlers translate JSON payloads into
// cache.Request values (a missing fileContent means "read the file from disk")
// and map cache outcomes onto HTTP statuses. Diagnostics live under /-/ and are
// registered by the routes subpackage.
package server
