package trust

import (
	"fmt"

	"github.com/fancl20/rpki-core/pkg/cert"
)

// Verdict is the outcome of a coverage check: either accepted, or
// rejected with a short human-readable reason (e.g. "uncovered IP").
type Verdict struct {
	Valid  bool
	Reason string
}

func accepted() Verdict { return Verdict{Valid: true} }

func rejected(reason string) Verdict { return Verdict{Valid: false, Reason: reason} }

// ValidateChain is the coverage validator: given a
// child certificate and the authority tree, it decides whether every AS
// and IP resource the child declares is covered by its ancestor chain.
// A missing issuer is a structural condition (ErrIssuerNotFound) the
// caller should treat like a parse failure; anything else is a coverage
// Verdict the caller can log and move on from without corrupting the
// tree.
func ValidateChain(c *cert.Certificate, tree Tree) (Verdict, error) {
	parent, ok := tree.Find(c.AKI)
	if !ok {
		return Verdict{}, ErrIssuerNotFound
	}

	for _, e := range c.AS {
		switch e.Variant {
		case cert.ASVariantInherit:
			if c.Purpose == cert.PurposeBGPSecRouter {
				return rejected("INHERIT not permitted in BGPsec router certificate"), nil
			}
		case cert.ASVariantID:
			if !asCovered(e.ID, e.ID, parent, tree) {
				return rejected("uncovered AS"), nil
			}
		case cert.ASVariantRange:
			if !asCovered(e.Min, e.Max, parent, tree) {
				return rejected("uncovered AS"), nil
			}
		}
	}

	for _, e := range c.IPs {
		switch e.Variant {
		case cert.IPVariantInherit:
			// Accepted unconditionally: INHERIT just defers to the
			// issuer, and every certificate purpose may do so for IPs.
		case cert.IPVariantAddr, cert.IPVariantRange:
			if !ipCovered(e.AFI, e.Min, e.Max, parent, tree) {
				return rejected("uncovered IP"), nil
			}
		}
	}

	return accepted(), nil
}

// ValidateTA validates a trust anchor: it must be
// self-contained (no INHERIT in either resource set) and must not
// collide with an SKI already installed in the tree.
func ValidateTA(ta *cert.Certificate, tree Tree) (Verdict, error) {
	for _, e := range ta.AS {
		if e.Variant == cert.ASVariantInherit {
			return rejected("trust anchor AS resources may not use INHERIT"), nil
		}
	}
	for _, e := range ta.IPs {
		if e.Variant == cert.IPVariantInherit {
			return rejected("trust anchor IP resources may not use INHERIT"), nil
		}
	}
	if _, exists := tree.Find(ta.SKI); exists {
		return rejected(fmt.Sprintf("duplicate SKI %s", ta.SKI)), nil
	}
	return accepted(), nil
}

// asCheckCovered classifies a single node's own AS assertions against
// the query range [lo,hi]: +1 if an entry explicitly contains it, -1 if
// the node's explicit entries definitively exclude it, 0 if the node
// only inherits (defer to its own issuer).
func asCheckCovered(lo, hi uint32, entries []cert.ASEntry) int {
	inherits := false
	for _, e := range entries {
		switch e.Variant {
		case cert.ASVariantInherit:
			inherits = true
		case cert.ASVariantID:
			if lo == hi && lo == e.ID {
				return 1
			}
		case cert.ASVariantRange:
			if lo >= e.Min && hi <= e.Max {
				return 1
			}
		}
	}
	if inherits {
		return 0
	}
	return -1
}

// asCovered walks from node upward: at each node with any AS
// entries, asCheckCovered decides; a 0 (inheriting) keeps walking; the
// walk rejects if it reaches the root without a +1.
func asCovered(lo, hi uint32, node *Node, tree Tree) bool {
	for node != nil {
		if len(node.Cert.AS) > 0 {
			switch asCheckCovered(lo, hi, node.Cert.AS) {
			case 1:
				return true
			case -1:
				return false
			}
		}
		node = nextParent(node, tree)
	}
	return false
}

// ipCheckCovered is asCheckCovered's IP analogue: entries of other AFIs
// are skipped, and a node with no entries of the queried AFI at all
// (same as asCheckCovered's empty-entries case) falls through to -1,
// since it neither covers nor inherits the resource.
func ipCheckCovered(afi cert.AFI, lo, hi []byte, entries []cert.IPEntry) int {
	inherits := false
	for _, e := range entries {
		if e.AFI != afi {
			continue
		}
		if e.Variant == cert.IPVariantInherit {
			inherits = true
			continue
		}
		if bytesLE(e.Min, lo) && bytesLE(hi, e.Max) {
			return 1
		}
	}
	if inherits {
		return 0
	}
	return -1
}

func ipCovered(afi cert.AFI, lo, hi []byte, node *Node, tree Tree) bool {
	for node != nil {
		switch ipCheckCovered(afi, lo, hi, node.Cert.IPs) {
		case 1:
			return true
		case -1:
			return false
		}
		node = nextParent(node, tree)
	}
	return false
}

func nextParent(node *Node, tree Tree) *Node {
	if node.ParentSKI == "" {
		return nil
	}
	parent, ok := tree.Find(node.ParentSKI)
	if !ok {
		return nil
	}
	return parent
}

func bytesLE(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return true
}
