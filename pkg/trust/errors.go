package trust

import "errors"

// Errors surfaced by the lookup tree and coverage validator.
var (
	// ErrIssuerNotFound means the child's AKI does not resolve to any
	// node in the tree. The caller should skip the child and keep
	// processing siblings, exactly like a parse failure.
	ErrIssuerNotFound = errors.New("issuer not found in authority tree")

	// ErrDuplicateSKI means a node (or BRK entry tied to a node) with
	// this SKI already exists.
	ErrDuplicateSKI = errors.New("duplicate subject key identifier")

	// ErrInheritStructural means a BGPSEC_ROUTER certificate carried an
	// AS entry with INHERIT, a structural violation when building the
	// BRK index (BGPsec certs must declare explicit ASNs).
	ErrInheritStructural = errors.New("INHERIT is not permitted in a BGPsec router certificate")
)
