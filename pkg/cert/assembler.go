package cert

import (
	"crypto/x509"
	"encoding/hex"
)

// Parse DER-decodes a resource certificate, walks its extensions,
// extracts identity fields, classifies its purpose, and enforces the RPKI
// cross-field invariants. On any failure the partial record is discarded
// and a diagnostic Error is returned; the caller is expected to skip the
// object and continue processing the rest of the repository.
func Parse(file string, der []byte, tal string) (*Certificate, error) {
	return parse(file, der, tal, false, nil)
}

// ParseTA parses a trust anchor certificate: as Parse, but additionally
// compares the certificate's SubjectPublicKeyInfo byte-for-byte against
// the public key declared by the Trust Anchor Locator.
func ParseTA(file string, der []byte, tal string, expectedPubKeyDER []byte) (*Certificate, error) {
	c, err := parse(file, der, tal, true, expectedPubKeyDER)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func parse(file string, der []byte, tal string, isTA bool, expectedPubKeyDER []byte) (*Certificate, error) {
	x, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, newError(file, StructuralDecode, "RFC 5280 §4.1", "DER decode failed", err)
	}

	c := &Certificate{
		TAL:     tal,
		Expires: x.NotAfter,
		X509:    x,
	}
	r := newResources()

	for _, ext := range x.Extensions {
		switch {
		case ext.Id.Equal(oidSbgpIPAddrBlock):
			if err := decodeIPAddrBlock(file, ext.Value, r); err != nil {
				return nil, err
			}
		case ext.Id.Equal(oidSbgpAutonomousSysNum):
			if err := decodeASIdentifiers(file, ext.Value, r); err != nil {
				return nil, err
			}
		case ext.Id.Equal(oidSubjectInformationAccess):
			if err := decodeSIA(file, ext.Value, c); err != nil {
				return nil, err
			}
			c.siaPresent = true
		default:
			// CRL distribution points, AIA, AKI, SKI, and EKU are
			// extracted from x509.Certificate's own parsed fields below;
			// every other extension is ignored.
		}
	}
	c.IPs = r.ips
	c.AS = r.as

	if len(x.SubjectKeyId) == 0 {
		return nil, newError(file, ProfileViolation, "RFC 6487 §4.8.2", "missing Subject Key Identifier", nil)
	}
	c.SKI = hex.EncodeToString(x.SubjectKeyId)

	if len(x.AuthorityKeyId) > 0 {
		c.AKI = hex.EncodeToString(x.AuthorityKeyId)
	}
	if len(x.CRLDistributionPoints) > 0 {
		c.CRL = x.CRLDistributionPoints[0]
	}
	if len(x.IssuingCertificateURL) > 0 {
		c.AIA = x.IssuingCertificateURL[0]
	}

	c.Purpose = classifyPurpose(x)
	if c.Purpose == PurposeBGPSecRouter {
		spki, err := x509.MarshalPKIXPublicKey(x.PublicKey)
		if err != nil {
			return nil, newError(file, StructuralDecode, "RFC 8209 §3", "failed to marshal SubjectPublicKeyInfo", err)
		}
		c.PubKey = spki
	}

	if err := enforceInvariants(file, c, isTA); err != nil {
		return nil, err
	}

	if isTA {
		spki, err := x509.MarshalPKIXPublicKey(x.PublicKey)
		if err != nil {
			return nil, newError(file, StructuralDecode, "RFC 5280 §4.1", "failed to marshal TA SubjectPublicKeyInfo", err)
		}
		if !bytesEqual(spki, expectedPubKeyDER) {
			return nil, newError(file, ProfileViolation, "RFC 6490", "TA public key does not match TAL", nil)
		}
	}

	return c, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// classifyPurpose determines CA vs BGPSEC_ROUTER from the EKU: a
// certificate carrying the BGPsec router key purpose is a router
// certificate, and every other certificate is classified as CA. Basic
// constraints are not consulted.
func classifyPurpose(x *x509.Certificate) Purpose {
	for _, oid := range x.UnknownExtKeyUsage {
		if oid.Equal(oidExtKeyUsageBgpsecRouter) {
			return PurposeBGPSecRouter
		}
	}
	return PurposeCA
}

// enforceInvariants checks the cross-field profile rules that depend on
// more than one extracted field: manifest/repository consistency, AKI/SKI
// relationships, and purpose-specific presence rules.
func enforceInvariants(file string, c *Certificate, isTA bool) error {
	switch c.Purpose {
	case PurposeCA:
		if c.Manifest == "" {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "CA certificate missing rpkiManifest", nil)
		}
		if c.Repo == "" {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "CA certificate missing caRepository", nil)
		}
		if !hasPrefix(c.Manifest, c.Repo) {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.8", "manifest URI does not start with repository URI", nil)
		}
		if len(c.IPs) == 0 && len(c.AS) == 0 {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.10", "CA certificate carries no resources", nil)
		}

	case PurposeBGPSecRouter:
		if len(c.IPs) != 0 {
			return newError(file, ProfileViolation, "RFC 8209 §3", "unexpected IP resources in BGPsec cert", nil)
		}
		if c.siaPresent {
			return newError(file, ProfileViolation, "RFC 8209 §3", "unexpected SIA extension in BGPsec cert", nil)
		}
		if len(c.PubKey) == 0 {
			return newError(file, ProfileViolation, "RFC 8209 §3", "missing SubjectPublicKeyInfo", nil)
		}
	}

	if isTA {
		if c.AIA != "" {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.7", "trust anchor must not carry AIA", nil)
		}
		if c.CRL != "" {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.6", "trust anchor must not carry CRL distribution points", nil)
		}
		if c.AKI != "" && c.AKI != c.SKI {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.3", "trust anchor AKI differs from SKI", nil)
		}
	} else {
		if c.AKI == "" {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.3", "non-TA certificate missing AKI", nil)
		}
		if c.AKI == c.SKI {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.3", "AKI equals SKI on non-TA certificate", nil)
		}
		if c.AIA == "" {
			return newError(file, ProfileViolation, "RFC 6487 §4.8.7", "non-TA certificate missing AIA", nil)
		}
	}

	return nil
}

// Free drops the Certificate's references to its parsed X.509 handle and
// resource lists. Go's garbage collector reclaims the rest, so the only
// thing worth doing explicitly is dropping the reference early under
// memory pressure. It is a no-op on a nil Certificate.
func (c *Certificate) Free() {
	if c == nil {
		return
	}
	c.X509 = nil
	c.IPs = nil
	c.AS = nil
}
