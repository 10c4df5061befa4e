package redis

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/MrSnakeDoc/demogen/internal/domain"
)

const (
	// KeyPrefixDemo is the prefix for demo documents
	KeyPrefixDemo = "demogen:demo:"
	// KeyPrefixViews is the prefix for per-demo view counters
	KeyPrefixViews = "demogen:views:"
	// KeyPrefixURL is the prefix of the unique website url index
	KeyPrefixURL = "demogen:idx:url:"
	// KeyPrefixPublication is the prefix of the publication index
	KeyPrefixPublication = "demogen:idx:pub:"
	// KeyRecent is the sorted set of demo ids scored by UpdatedAt
	KeyRecent = "demogen:demos:recent"
)

// DemoKey returns the Redis key holding the JSON document of a demo
func DemoKey(id string) string {
	return KeyPrefixDemo + id
}

// ViewsKey returns the Redis key of the view counter of a demo
func ViewsKey(id string) string {
	return KeyPrefixViews + id
}

// URLKey returns the unique index key of a website url. The url is reduced
// to its domain.UniqueURL form, then hashed so arbitrary query strings never
// end up in key names.
func URLKey(websiteURL string) string {
	sum := sha256.Sum256([]byte(domain.UniqueURL(websiteURL)))
	return KeyPrefixURL + hex.EncodeToString(sum[:])[:32]
}

// PublicationKey returns the index key for a publication name
func PublicationKey(publication string) string {
	return KeyPrefixPublication + publication
}
