package cert

import (
	"encoding/asn1"
	"fmt"
)

// ipAddressFamily mirrors RFC 3779 §2.2's IPAddressFamily SEQUENCE. The
// Go x509 parser has already stripped the outer
// SEQUENCE{OID,BOOLEAN,OCTET STRING} wrapper for us (pkix.Extension.Value
// is the content of the extnValue OCTET STRING), so this struct only
// needs to describe the octet string's own payload: a SEQUENCE OF
// IPAddressFamily.
type ipAddressFamily struct {
	AddressFamily []byte
	Choice        asn1.RawValue
}

// decodeIPAddrBlock walks the sbgp-ipAddrBlock extension body and feeds
// the resource collector.
func decodeIPAddrBlock(file string, value []byte, r *resources) error {
	var families []ipAddressFamily
	if _, err := asn1.Unmarshal(value, &families); err != nil {
		return newError(file, StructuralDecode, "RFC 3779 §2.2", "malformed IPAddrBlock", err)
	}

	for _, fam := range families {
		afi, err := parseAFI(fam.AddressFamily)
		if err != nil {
			return newError(file, StructuralDecode, "RFC 3779 §2.2", "invalid addressFamily", err)
		}

		switch fam.Choice.Tag {
		case asn1.TagNull:
			if err := r.appendIP(IPEntry{AFI: afi, Variant: IPVariantInherit}); err != nil {
				return newError(file, ResourceOverlap, "RFC 3779 §2.2", "duplicate INHERIT", err)
			}
		case asn1.TagSequence:
			var items []asn1.RawValue
			if _, err := asn1.Unmarshal(fam.Choice.FullBytes, &items); err != nil {
				return newError(file, StructuralDecode, "RFC 3779 §2.2", "malformed IPAddressOrRange sequence", err)
			}
			for _, item := range items {
				entry, err := decodeIPAddressOrRange(afi, item)
				if err != nil {
					return newError(file, StructuralDecode, "RFC 3779 §2.2", "malformed IPAddressOrRange", err)
				}
				if err := r.appendIP(entry); err != nil {
					return newError(file, ResourceOverlap, "RFC 3779 §2.2", "overlapping IP resource", err)
				}
			}
		default:
			return newError(file, StructuralDecode, "RFC 3779 §2.2", "unexpected ipAddressChoice tag", nil)
		}
	}
	return nil
}

// parseAFI extracts the 2-byte AFI from the addressFamily OCTET STRING;
// a trailing SAFI byte, if present, is ignored.
func parseAFI(b []byte) (AFI, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("addressFamily too short")
	}
	switch v := int(b[0])<<8 | int(b[1]); v {
	case 1:
		return AFIv4, nil
	case 2:
		return AFIv6, nil
	default:
		return 0, fmt.Errorf("unsupported AFI %d", v)
	}
}

// decodeIPAddressOrRange dispatches a CHOICE { addressPrefix BIT STRING |
// addressRange SEQUENCE } by ASN.1 tag.
func decodeIPAddressOrRange(afi AFI, raw asn1.RawValue) (IPEntry, error) {
	switch raw.Tag {
	case asn1.TagBitString:
		var bits asn1.BitString
		if _, err := asn1.Unmarshal(raw.FullBytes, &bits); err != nil {
			return IPEntry{}, err
		}
		prefix, err := parsePrefix(afi, bits)
		if err != nil {
			return IPEntry{}, err
		}
		min, max := prefixRange(afi, prefix)
		return IPEntry{AFI: afi, Variant: IPVariantAddr, Prefix: prefix, Min: min, Max: max}, nil

	case asn1.TagSequence:
		var rng struct {
			Min asn1.BitString
			Max asn1.BitString
		}
		if _, err := asn1.Unmarshal(raw.FullBytes, &rng); err != nil {
			return IPEntry{}, err
		}
		min, max, err := addressRange(afi, rng.Min, rng.Max)
		if err != nil {
			return IPEntry{}, err
		}
		return IPEntry{AFI: afi, Variant: IPVariantRange, Min: min, Max: max}, nil

	default:
		return IPEntry{}, fmt.Errorf("unexpected IPAddressOrRange tag %d", raw.Tag)
	}
}
