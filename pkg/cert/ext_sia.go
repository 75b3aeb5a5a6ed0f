package cert

import "encoding/asn1"

// accessDescription mirrors RFC 5280's AccessDescription ::= SEQUENCE {
// accessMethod OBJECT IDENTIFIER, accessLocation GeneralName }. Only the
// uniformResourceIdentifier GeneralName choice ([6], IMPLICIT IA5String)
// is read here; an AccessDescription carrying any other choice is skipped.
type accessDescription struct {
	Method   asn1.ObjectIdentifier
	Location asn1.RawValue
}

// decodeSIA walks the id-pe-sinfoAccess extension body per
// RFC 6487 §4.8.8: a SEQUENCE OF AccessDescription, dispatched by
// accessMethod OID into the caRepository/rpkiManifest/rpkiNotify fields
// of the certificate under construction. Each field may be assigned at
// most once; unknown methods are ignored.
func decodeSIA(file string, value []byte, c *Certificate) error {
	var descriptions []accessDescription
	if _, err := asn1.Unmarshal(value, &descriptions); err != nil {
		return newError(file, StructuralDecode, "RFC 6487 §4.8.8", "malformed SubjectInfoAccess", err)
	}

	var repoSet, mftSet, notifySet bool

	for _, ad := range descriptions {
		if ad.Location.Tag != 6 || ad.Location.Class != asn1.ClassContextSpecific {
			continue
		}
		uri := string(ad.Location.Bytes)

		switch {
		case ad.Method.Equal(oidADCaRepository):
			if repoSet {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "duplicate caRepository in SIA", nil)
			}
			if err := validateURI(uri, "rsync://"); err != nil {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "invalid caRepository URI", err)
			}
			c.Repo = uri
			repoSet = true

		case ad.Method.Equal(oidADRpkiManifest):
			if mftSet {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "duplicate rpkiManifest in SIA", nil)
			}
			if err := validateURI(uri, "rsync://"); err != nil {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "invalid rpkiManifest URI", err)
			}
			if !hasSuffix(uri, ".mft") {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "rpkiManifest URI does not end in .mft", nil)
			}
			c.Manifest = uri
			mftSet = true

		case ad.Method.Equal(oidADRpkiNotify):
			if notifySet {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "duplicate rpkiNotify in SIA", nil)
			}
			if err := validateURI(uri, "https://"); err != nil {
				return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "invalid rpkiNotify URI", err)
			}
			c.Notify = uri
			notifySet = true

		default:
			// Unknown access-method OID: silently ignored.
		}
	}

	if mftSet && repoSet && !hasPrefix(c.Manifest, c.Repo) {
		return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "conflicting URIs: manifest does not start with repository", nil)
	}

	return nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
