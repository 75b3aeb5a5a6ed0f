// Package cert implements the RPKI resource-certificate profile: DER
// decoding, RFC 3779 resource-extension parsing, and the RPKI-specific
// structural checks layered on top of RFC 6487. It produces a typed,
// validated in-memory Certificate record; resource-coverage validation
// against a trust chain lives in the sibling pkg/trust package.
package cert

import (
	"crypto/x509"
	"time"
)

// Purpose classifies what a certificate's declared resources may carry.
type Purpose int

const (
	// PurposeCA marks a certificate that may issue child certificates.
	PurposeCA Purpose = iota
	// PurposeBGPSecRouter marks a BGPsec router certificate (RFC 8209).
	PurposeBGPSecRouter
)

func (p Purpose) String() string {
	switch p {
	case PurposeCA:
		return "CA"
	case PurposeBGPSecRouter:
		return "BGPSEC_ROUTER"
	default:
		return "UNKNOWN"
	}
}

// AFI is an RFC 3779 Address Family Identifier.
type AFI int

const (
	AFIv4 AFI = 1
	AFIv6 AFI = 2
)

func (a AFI) String() string {
	switch a {
	case AFIv4:
		return "IPv4"
	case AFIv6:
		return "IPv6"
	default:
		return "unknown"
	}
}

// addrLen returns the byte width of an address in this family.
func (a AFI) addrLen() int {
	switch a {
	case AFIv4:
		return 4
	case AFIv6:
		return 16
	default:
		return 0
	}
}

// IPVariant distinguishes the three shapes an RFC 3779 IP resource entry
// can take.
type IPVariant int

const (
	IPVariantAddr IPVariant = iota
	IPVariantRange
	IPVariantInherit
)

// Prefix is a canonicalized IP prefix: address bytes zero-padded to the
// AFI's full width, plus the declared prefix length.
type Prefix struct {
	Bytes  []byte
	Length int
}

// IPEntry is one element of a certificate's IP resource set. Min/Max are
// always populated for ADDR and RANGE variants (derived at parse time)
// so containment checks reduce to byte comparisons.
type IPEntry struct {
	AFI     AFI
	Variant IPVariant
	Prefix  Prefix  // valid when Variant == IPVariantAddr
	Min     []byte  // AFI-width byte string, valid unless Variant == IPVariantInherit
	Max     []byte  // AFI-width byte string, valid unless Variant == IPVariantInherit
}

// ASVariant distinguishes the three shapes an RFC 3779 AS resource entry
// can take.
type ASVariant int

const (
	ASVariantID ASVariant = iota
	ASVariantRange
	ASVariantInherit
)

// ASEntry is one element of a certificate's AS resource set.
type ASEntry struct {
	Variant ASVariant
	ID      uint32 // valid when Variant == ASVariantID
	Min     uint32 // valid when Variant == ASVariantRange
	Max     uint32 // valid when Variant == ASVariantRange
}

// Certificate is the validated, typed record produced by Parse/ParseTA.
// It is the single unit of output the assembler hands to callers; the
// caller sets Valid after pkg/trust's coverage validator accepts it.
type Certificate struct {
	Purpose Purpose
	Expires time.Time

	SKI string // hex, required
	AKI string // hex, required for non-TA; must equal SKI on a TA if present
	AIA string // URI, required for non-TA, forbidden on TA
	CRL string // URI, forbidden on TA

	Manifest string // rsync URI ending in ".mft", required if CA
	Repo     string // rsync URI (caRepository)
	Notify   string // https URI, optional

	TAL string // trust anchor locator identifier, assigned by the caller

	IPs []IPEntry
	AS  []ASEntry

	PubKey []byte // DER SubjectPublicKeyInfo, present iff Purpose == PurposeBGPSecRouter

	Valid bool // set by the caller once pkg/trust's coverage check accepts the certificate

	X509 *x509.Certificate // retained for later signature verification by the caller

	// siaPresent is set during assembly (not part of the public data
	// model) to enforce I5: a BGPsec router certificate must not carry
	// an SIA extension at all.
	siaPresent bool
}
