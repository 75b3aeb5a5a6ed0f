package cert

import (
	"encoding/asn1"
	"fmt"
	"math/big"
	"strings"
)

// parseASID decodes an ASN.1 INTEGER into a uint32. The zero ASN
// is accepted here; the caller (the sbgp-autonomousSysNum decoder) rejects
// it per RFC 6487, since the zero check is a profile rule, not a
// structural one.
func parseASID(raw asn1.RawValue) (uint32, error) {
	var n *big.Int
	if _, err := asn1.Unmarshal(raw.FullBytes, &n); err != nil {
		return 0, fmt.Errorf("malformed ASN.1 INTEGER: %w", err)
	}
	if n.Sign() < 0 {
		return 0, fmt.Errorf("negative AS number")
	}
	if n.BitLen() > 32 {
		return 0, fmt.Errorf("AS number exceeds 2^32-1")
	}
	return uint32(n.Uint64()), nil
}

// parsePrefix decodes an ASN.1 BIT STRING holding an RFC 3779 IPAddress
// into a canonicalized Prefix: address bytes zero-padded to the AFI's
// full width, plus the declared bit length.
func parsePrefix(afi AFI, bits asn1.BitString) (Prefix, error) {
	width := afi.addrLen()
	if width == 0 {
		return Prefix{}, fmt.Errorf("unsupported address family")
	}

	if len(bits.Bytes) > width {
		return Prefix{}, fmt.Errorf("bit-string length %d exceeds AFI width %d", len(bits.Bytes), width)
	}

	if unused := bits.BitLength % 8; unused != 0 && len(bits.Bytes) > 0 {
		mask := byte(1<<(8-unused)) - 1
		if bits.Bytes[len(bits.Bytes)-1]&mask != 0 {
			return Prefix{}, fmt.Errorf("non-zero padding bits in address prefix")
		}
	}

	padded := make([]byte, width)
	copy(padded, bits.Bytes)

	return Prefix{Bytes: padded, Length: bits.BitLength}, nil
}

// prefixRange derives the canonical (min,max) byte strings for a prefix:
// min is the address as given, max is the address with every host bit
// set to 1.
func prefixRange(afi AFI, p Prefix) (min, max []byte) {
	width := afi.addrLen()
	min = make([]byte, width)
	max = make([]byte, width)
	copy(min, p.Bytes)
	copy(max, p.Bytes)

	for bit := p.Length; bit < width*8; bit++ {
		byteIdx, bitIdx := bit/8, 7-bit%8
		max[byteIdx] |= 1 << bitIdx
	}
	return min, max
}

// addressRange derives the canonical (min,max) byte strings for an
// explicit RFC 3779 IPAddressRange, padding the low endpoint with zero
// bits and the high endpoint with one bits to the AFI's full width.
func addressRange(afi AFI, lo, hi asn1.BitString) (min, max []byte, err error) {
	width := afi.addrLen()
	if len(lo.Bytes) > width || len(hi.Bytes) > width {
		return nil, nil, fmt.Errorf("range endpoint exceeds AFI width %d", width)
	}

	min = make([]byte, width)
	copy(min, lo.Bytes)

	max = make([]byte, width)
	copy(max, hi.Bytes)
	hiUsed := hi.BitLength
	for bit := hiUsed; bit < width*8; bit++ {
		byteIdx, bitIdx := bit/8, 7-bit%8
		max[byteIdx] |= 1 << bitIdx
	}

	if bytesCompare(max, min) < 0 {
		return nil, nil, fmt.Errorf("range max < min")
	}
	return min, max, nil
}

func bytesCompare(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// validateURI is a deliberately permissive URI validator: every byte must
// be alphanumeric or punctuation, the scheme (if given) must match
// case-insensitively, and "/." may not appear anywhere (blocks parent-dir
// traversal and dot-files). Tightening this to a full RFC 3986 whitelist
// would be a behavior change and is intentionally left for later.
func validateURI(uri, scheme string) error {
	if scheme != "" {
		if len(uri) < len(scheme) || !strings.EqualFold(uri[:len(scheme)], scheme) {
			return fmt.Errorf("URI does not begin with %q", scheme)
		}
	}
	for i := 0; i < len(uri); i++ {
		c := uri[i]
		if !isAlnum(c) && !isPunct(c) {
			return fmt.Errorf("invalid byte %q in URI", c)
		}
	}
	if strings.Contains(uri, "/.") {
		return fmt.Errorf("URI contains forbidden \"/.\" sequence")
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isPunct classifies the printable ASCII punctuation bytes, matching the
// source's permissive byte-classification: anything printable that is
// not alphanumeric.
func isPunct(c byte) bool {
	return c >= 0x21 && c <= 0x7e && !isAlnum(c)
}
