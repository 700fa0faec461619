// Package cache provides the Redis client setup and a read-through cache in
// front of the user stats store.
//
// The cache is optional. Every cache failure falls through to the wrapped
// store, so Redis being unavailable slows requests down but never fails them.
package cache
