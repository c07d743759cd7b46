// Package storage persists the client session between runs.
//
// A Store is a flat string key-value space, the same shape as browser local
// storage: the session lives under KeyUser and KeyToken.
package storage

import "errors"

const (
	// KeyUser holds the serialized user record returned by the backend.
	KeyUser = "user"

	// KeyToken holds the bearer token.
	KeyToken = "token"

	// KeyUsers is a legacy key cleared on logout.
	KeyUsers = "users"

	// KeyTaskCacheDefault is the task cache key used when the user id is unknown.
	KeyTaskCacheDefault = "todos_default"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key.
	Set(key, value string) error

	// Remove deletes keys. Missing keys are not an error.
	Remove(keys ...string) error

	// Close releases the underlying resources.
	Close() error
}

// TaskCacheKey returns the per-user task cache key.
func TaskCacheKey(userID string) string {
	return "todos_" + userID
}
