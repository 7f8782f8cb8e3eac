package storage

const (
	// KeyPrefix namespaces every key xbm writes to a shared Redis.
	KeyPrefix = "xbm:"
)

// RedisBookmarksKey returns the key holding the JSON collection.
func RedisBookmarksKey() string {
	return KeyPrefix + BookmarksKey
}

// RedisAIStateKey returns the hash holding the AI state fields.
func RedisAIStateKey() string {
	return KeyPrefix + AIStateKey
}
