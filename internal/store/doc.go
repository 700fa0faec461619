// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic: user standing statistics, exercise
// attempt history and the append-only decision log.
package store
