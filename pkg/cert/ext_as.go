package cert

import (
	"encoding/asn1"
	"fmt"
)

// decodeASIdentifiers walks the sbgp-autonomousSysNum extension body.
// As with decodeIPAddrBlock, pkix.Extension.Value is already the
// content of the outer OCTET STRING, i.e. the ASIdentifiers SEQUENCE.
//
// ASIdentifiers ::= SEQUENCE {
//     asnum [0] EXPLICIT ASIdentifierChoice OPTIONAL,
//     rdi   [1] EXPLICIT ASIdentifierChoice OPTIONAL }
func decodeASIdentifiers(file string, value []byte, r *resources) error {
	var items []asn1.RawValue
	if _, err := asn1.Unmarshal(value, &items); err != nil {
		return newError(file, StructuralDecode, "RFC 3779 §3.2", "malformed ASIdentifiers", err)
	}

	for _, item := range items {
		if item.Class != asn1.ClassContextSpecific {
			continue
		}
		switch item.Tag {
		case 1:
			// rdi: silently skipped, this decoder only tracks asnum.
			continue
		case 0:
			if err := decodeASIdentifierChoice(file, item.Bytes, r); err != nil {
				return err
			}
		default:
			return newError(file, StructuralDecode, "RFC 3779 §3.2", "unexpected ASIdentifiers tag", nil)
		}
	}
	return nil
}

// decodeASIdentifierChoice handles the EXPLICIT-wrapped
// ASIdentifierChoice CHOICE { inherit NULL | asIdsOrRanges SEQUENCE OF
// ASIdOrRange }.
func decodeASIdentifierChoice(file string, explicit []byte, r *resources) error {
	var choice asn1.RawValue
	if _, err := asn1.Unmarshal(explicit, &choice); err != nil {
		return newError(file, StructuralDecode, "RFC 3779 §3.2", "malformed ASIdentifierChoice", err)
	}

	switch choice.Tag {
	case asn1.TagNull:
		if err := r.appendAS(ASEntry{Variant: ASVariantInherit}); err != nil {
			return newError(file, ResourceOverlap, "RFC 3779 §3.2", "duplicate INHERIT", err)
		}
		return nil

	case asn1.TagSequence:
		var elems []asn1.RawValue
		if _, err := asn1.Unmarshal(choice.FullBytes, &elems); err != nil {
			return newError(file, StructuralDecode, "RFC 3779 §3.2", "malformed ASIdOrRange sequence", err)
		}
		for _, elem := range elems {
			entry, err := decodeASIdOrRange(elem)
			if err != nil {
				return newError(file, StructuralDecode, "RFC 3779 §3.2", "malformed ASIdOrRange", err)
			}
			if err := r.appendAS(entry); err != nil {
				return newError(file, ResourceOverlap, "RFC 3779 §3.2", "overlapping AS resource", err)
			}
		}
		return nil

	default:
		return newError(file, StructuralDecode, "RFC 3779 §3.2", "unexpected ASIdentifierChoice tag", nil)
	}
}

// decodeASIdOrRange dispatches CHOICE { id ASId | range ASRange } by tag,
// rejecting ASN 0 and malformed ranges per RFC 6487 (singular/reversed).
func decodeASIdOrRange(raw asn1.RawValue) (ASEntry, error) {
	switch raw.Tag {
	case asn1.TagInteger:
		id, err := parseASID(raw)
		if err != nil {
			return ASEntry{}, err
		}
		if id == 0 {
			return ASEntry{}, fmt.Errorf("AS number 0 is forbidden")
		}
		return ASEntry{Variant: ASVariantID, ID: id}, nil

	case asn1.TagSequence:
		var rng struct {
			Min asn1.RawValue
			Max asn1.RawValue
		}
		if _, err := asn1.Unmarshal(raw.FullBytes, &rng); err != nil {
			return ASEntry{}, err
		}
		min, err := parseASID(rng.Min)
		if err != nil {
			return ASEntry{}, err
		}
		max, err := parseASID(rng.Max)
		if err != nil {
			return ASEntry{}, err
		}
		if min == max {
			return ASEntry{}, fmt.Errorf("singular AS range [%d,%d]", min, max)
		}
		if min > max {
			return ASEntry{}, fmt.Errorf("reversed AS range [%d,%d]", min, max)
		}
		return ASEntry{Variant: ASVariantRange, Min: min, Max: max}, nil

	default:
		return ASEntry{}, fmt.Errorf("unexpected ASIdOrRange tag %d", raw.Tag)
	}
}
