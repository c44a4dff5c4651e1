// Package cache persists catalog query results on disk with a TTL.
//
// Entries are JSON files named by a SHA-256 key derived from the query
// operation and its parameters, so repeated list invocations with the same
// search, sort and page are served without calling the source again. When
// the directory grows past its size budget the oldest entries are evicted.
package cache
