package store

const (
	// KeyPrefixSession is the prefix for session records
	KeyPrefixSession = "portal:session:"
	// KeyPrefixFavorites is the prefix for per-identity favorites
	KeyPrefixFavorites = "portal:favorites:"
	// KeyPrefixHistory is the prefix for per-identity history
	KeyPrefixHistory = "portal:history:"
)

// SessionKey returns the key for a session record
func SessionKey(sessionID string) string {
	return KeyPrefixSession + sessionID
}

// FavoritesKey returns the key for an identity's favorites
func FavoritesKey(identity string) string {
	return KeyPrefixFavorites + identity
}

// HistoryKey returns the key for an identity's history
func HistoryKey(identity string) string {
	return KeyPrefixHistory + identity
}
