// Package trust implements the resource-coverage validator and the
// trust-anchor-rooted lookup tree: given
// a chain of previously validated certificates keyed by Subject Key
// Identifier, it decides whether a child's declared AS/IP resources are
// contained within its issuer's, walking INHERIT chains as needed, and
// maintains the BGPsec Router Key index populated from validated
// BGPSEC_ROUTER certificates.
package trust

import (
	"time"

	"github.com/fancl20/rpki-core/pkg/cert"
)

// Node is an entry in the validated lookup tree: a certificate together
// with the SKI of its issuer (its parent in the tree), the trust anchor
// locator it was reached from, and the filename it came from.
type Node struct {
	Cert      *cert.Certificate
	ParentSKI string
	TAL       string
	File      string
}

// Tree is the ordered, SKI-keyed lookup tree. Memory holds a mutex for
// the duration of each call and impl/bbolt runs each call in its own
// bbolt transaction; a sequence of calls is not atomic.
type Tree interface {
	// Find returns the node for this SKI, if any.
	Find(ski string) (*Node, bool)
	// Insert adds a node, keyed by its certificate's SKI. It fails if a
	// node with that SKI already exists (ErrDuplicateSKI).
	Insert(n *Node) error
	// Remove deletes the node for this SKI, if present. The caller is
	// responsible for ensuring no remaining node's AKI points to it;
	// the tree itself does not garbage-collect.
	Remove(ski string) error
	// All returns every node, ordered by SKI.
	All() []*Node
	// Len returns the number of nodes currently stored.
	Len() int
}

// BRKEntry is a BGPsec Router Key record: the ASN it authenticates,
// the router's Subject Key Identifier, and its public key, tagged with
// the trust anchor it was validated under and its certificate's
// expiration.
type BRKEntry struct {
	ASID    uint32
	SKI     string
	PubKey  []byte
	TAL     string
	Expires time.Time
}

// BRKIndex is the BGPsec Router Key index, ordered by
// (ASID, SKI, PubKey).
type BRKIndex interface {
	// Insert adds or merges a BRK entry. A collision on
	// (ASID, SKI, PubKey) keeps the later Expires and overwrites the
	// surviving entry's TAL with the new record's TAL.
	Insert(e BRKEntry) error
	// Find returns the entry for this exact key, if any.
	Find(asid uint32, ski string, pubkey []byte) (BRKEntry, bool)
	// All returns every entry, ordered by (ASID, SKI, PubKey).
	All() []BRKEntry
}
