package cert

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ParseCache memoizes Parse results keyed by (filename, SHA-256 digest of
// the DER blob), so a caller re-validating an unchanged manifest's
// objects on a subsequent run does not redecode ASN.1 it has already
// checked. This is the natural complement to a file-hash freshness
// check: that tells the caller a file is unchanged, this cache lets the
// caller skip the structural re-parse too.
type ParseCache struct {
	entries *gocache.Cache
}

// NewParseCache creates a cache with the given TTL for successfully
// parsed records; a TTL of zero disables expiry.
func NewParseCache(ttl time.Duration) *ParseCache {
	return &ParseCache{entries: gocache.New(ttl, ttl*2)}
}

func cacheKey(file string, der []byte) string {
	sum := sha256.Sum256(der)
	return file + ":" + hex.EncodeToString(sum[:])
}

// Get returns a previously cached Certificate for this exact
// (filename, der) pair, if present.
func (c *ParseCache) Get(file string, der []byte) (*Certificate, bool) {
	v, ok := c.entries.Get(cacheKey(file, der))
	if !ok {
		return nil, false
	}
	cert, _ := v.(*Certificate)
	return cert, cert != nil
}

// Put stores a successfully parsed Certificate under its (filename, der)
// key.
func (c *ParseCache) Put(file string, der []byte, cert *Certificate) {
	c.entries.SetDefault(cacheKey(file, der), cert)
}

// ParseCached is Parse with ParseCache memoization: a cache hit returns
// the previously validated record without touching the ASN.1 decoders.
func ParseCached(cache *ParseCache, file string, der []byte, tal string) (*Certificate, error) {
	if cache != nil {
		if cert, ok := cache.Get(file, der); ok {
			return cert, nil
		}
	}
	cert, err := Parse(file, der, tal)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Put(file, der, cert)
	}
	return cert, nil
}
