package cert

import "encoding/asn1"

// OIDs consumed by the RPKI profile, declared once as package-level
// literals and never re-derived from text at runtime. Extensions that
// crypto/x509 already exposes through parsed Certificate fields (SKI,
// AKI, AIA, CRL distribution points, basic constraints, EKU) have no
// entry here; only the ones this package decodes itself do.
var (
	oidSbgpIPAddrBlock        = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 7}
	oidSbgpAutonomousSysNum   = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 8}
	oidSubjectInformationAccess = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 11}

	oidADCaRepository  = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 5}
	oidADRpkiManifest  = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 10}
	oidADRpkiNotify    = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 13}

	// oidExtKeyUsageBgpsecRouter marks a BGPsec router certificate per
	// RFC 8209. Go's x509.ExtKeyUsage enum has no constant for it, so it
	// is matched against the raw ASN.1 OID inside the parsed
	// UnknownExtKeyUsage extension values.
	oidExtKeyUsageBgpsecRouter = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 30}
)
