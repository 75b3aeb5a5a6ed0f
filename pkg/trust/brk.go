package trust

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/fancl20/rpki-core/pkg/cert"
)

// MemoryBRKIndex is an in-memory, (ASID,SKI,PubKey)-ordered
// implementation of BRKIndex.
type MemoryBRKIndex struct {
	mu      sync.RWMutex
	entries map[string]BRKEntry
	keys    []string // sorted
}

// NewMemoryBRKIndex creates an empty BRK index.
func NewMemoryBRKIndex() *MemoryBRKIndex {
	return &MemoryBRKIndex{entries: make(map[string]BRKEntry)}
}

func brkKey(asid uint32, ski string, pubkey []byte) string {
	return fmt.Sprintf("%010d/%s/%s", asid, ski, hex.EncodeToString(pubkey))
}

func (b *MemoryBRKIndex) Insert(e BRKEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := brkKey(e.ASID, e.SKI, e.PubKey)
	if existing, ok := b.entries[key]; ok {
		// Collision: keep the later Expires, overwrite TAL with the new
		// record's.
		if e.Expires.After(existing.Expires) {
			existing.Expires = e.Expires
		}
		existing.TAL = e.TAL
		b.entries[key] = existing
		return nil
	}

	b.entries[key] = e
	idx := sort.SearchStrings(b.keys, key)
	b.keys = append(b.keys, "")
	copy(b.keys[idx+1:], b.keys[idx:])
	b.keys[idx] = key
	return nil
}

func (b *MemoryBRKIndex) Find(asid uint32, ski string, pubkey []byte) (BRKEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[brkKey(asid, ski, pubkey)]
	return e, ok
}

func (b *MemoryBRKIndex) All() []BRKEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]BRKEntry, 0, len(b.keys))
	for _, k := range b.keys {
		out = append(out, b.entries[k])
	}
	return out
}

// InsertBRKs expands a BGPsec router certificate's AS resource list into
// individual BRK entries: for every AS entry of variant ID, insert one BRK
// with that ASN; for every RANGE, insert one
// BRK per ASN in [min,max] inclusive. INHERIT is a structural violation
// here (BGPsec certificates must declare explicit ASNs) and is reported
// rather than silently skipped; every violation across the certificate's
// AS list is collected with multierr so the caller sees all of them, not
// just the first.
func InsertBRKs(idx BRKIndex, c *cert.Certificate) error {
	var errs error
	for _, e := range c.AS {
		switch e.Variant {
		case cert.ASVariantInherit:
			errs = multierr.Append(errs, ErrInheritStructural)
		case cert.ASVariantID:
			errs = multierr.Append(errs, idx.Insert(BRKEntry{
				ASID: e.ID, SKI: c.SKI, PubKey: c.PubKey, TAL: c.TAL, Expires: c.Expires,
			}))
		case cert.ASVariantRange:
			for asn := e.Min; asn <= e.Max; asn++ {
				errs = multierr.Append(errs, idx.Insert(BRKEntry{
					ASID: asn, SKI: c.SKI, PubKey: c.PubKey, TAL: c.TAL, Expires: c.Expires,
				}))
				if asn == e.Max {
					break // avoid wrap-around if Max == math.MaxUint32
				}
			}
		}
	}
	return errs
}
