package cert

import (
	"crypto/x509"
	"encoding/hex"
	"testing"
	"time"

	"github.com/fancl20/rpki-core/pkg/certtest"
)

func genTA(t *testing.T) *certtest.Generated {
	t.Helper()
	g, err := certtest.Generate(certtest.CertSpec{
		CommonName: "test TA",
		IsCA:       true,
		NotBefore:  time.Now().Add(-time.Hour),
		NotAfter:   time.Now().Add(24 * time.Hour),
		IPs: []certtest.IPResourceSpec{
			{AFI: 1, Prefixes: []certtest.IPPrefixSpec{{Addr: []byte{10, 0, 0, 0}, Length: 8}}},
		},
		AS:       &certtest.ASResourceSpec{Ranges: []certtest.ASRange{{Min: 0, Max: 4294967295}}},
		Repo:     "rsync://repo.example/ta/",
		Manifest: "rsync://repo.example/ta/manifest.mft",
	})
	if err != nil {
		t.Fatalf("generate TA: %v", err)
	}
	return g
}

func TestParseTA(t *testing.T) {
	ta := genTA(t)
	spki, err := x509.MarshalPKIXPublicKey(ta.X509.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}

	c, err := ParseTA("ta.cer", ta.DER, "test-tal", spki)
	if err != nil {
		t.Fatalf("ParseTA() error: %v", err)
	}
	if c.Purpose != PurposeCA {
		t.Errorf("Purpose = %v, want CA", c.Purpose)
	}
	if c.AKI != c.SKI {
		t.Errorf("TA AKI (%s) != SKI (%s)", c.AKI, c.SKI)
	}
	if len(c.IPs) != 1 || len(c.AS) != 1 {
		t.Errorf("got %d IPs, %d AS entries, want 1/1", len(c.IPs), len(c.AS))
	}
}

func TestParseTARejectsPubKeyMismatch(t *testing.T) {
	ta := genTA(t)
	other := genTA(t)
	spki, err := x509.MarshalPKIXPublicKey(other.X509.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	if _, err := ParseTA("ta.cer", ta.DER, "test-tal", spki); err == nil {
		t.Error("ParseTA() should reject a TAL public key that does not match the certificate")
	}
}

func TestParseCAChild(t *testing.T) {
	ta := genTA(t)
	child, err := certtest.Generate(certtest.CertSpec{
		CommonName: "child CA",
		IsCA:       true,
		NotBefore:  time.Now().Add(-time.Hour),
		NotAfter:   time.Now().Add(24 * time.Hour),
		IPs: []certtest.IPResourceSpec{
			{AFI: 1, Prefixes: []certtest.IPPrefixSpec{{Addr: []byte{10, 1, 0, 0}, Length: 16}}},
		},
		AS:        &certtest.ASResourceSpec{IDs: []uint32{65001}},
		Repo:      "rsync://repo.example/child/",
		Manifest:  "rsync://repo.example/child/manifest.mft",
		AIA:       "rsync://repo.example/ta/ta.cer",
		Parent:    ta.X509,
		ParentKey: ta.Key,
	})
	if err != nil {
		t.Fatalf("generate child: %v", err)
	}

	c, err := Parse("child.cer", child.DER, "test-tal")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.AKI != hexSKI(ta.X509) {
		t.Errorf("AKI = %s, want issuer SKI %s", c.AKI, hexSKI(ta.X509))
	}
	if c.AIA == "" {
		t.Error("non-TA certificate should have AIA populated")
	}
}

func TestParseBGPsecRouterCert(t *testing.T) {
	ta := genTA(t)
	router, err := certtest.Generate(certtest.CertSpec{
		CommonName: "router",
		IsRouter:   true,
		NotBefore:  time.Now().Add(-time.Hour),
		NotAfter:   time.Now().Add(24 * time.Hour),
		AS:         &certtest.ASResourceSpec{IDs: []uint32{65010}},
		AIA:        "rsync://repo.example/ta/ta.cer",
		Parent:     ta.X509,
		ParentKey:  ta.Key,
	})
	if err != nil {
		t.Fatalf("generate router cert: %v", err)
	}

	c, err := Parse("router.cer", router.DER, "test-tal")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.Purpose != PurposeBGPSecRouter {
		t.Errorf("Purpose = %v, want BGPSEC_ROUTER", c.Purpose)
	}
	if len(c.PubKey) == 0 {
		t.Error("BGPsec router certificate should carry PubKey")
	}
	if len(c.IPs) != 0 {
		t.Error("BGPsec router certificate should carry no IP resources")
	}
}

func TestParseRejectsRouterCertWithSIA(t *testing.T) {
	ta := genTA(t)
	router, err := certtest.Generate(certtest.CertSpec{
		CommonName: "router",
		IsRouter:   true,
		NotBefore:  time.Now().Add(-time.Hour),
		NotAfter:   time.Now().Add(24 * time.Hour),
		AS:         &certtest.ASResourceSpec{IDs: []uint32{65010}},
		AIA:        "rsync://repo.example/ta/ta.cer",
		Manifest:   "rsync://repo.example/ta/manifest.mft",
		Repo:       "rsync://repo.example/ta/",
		Parent:     ta.X509,
		ParentKey:  ta.Key,
	})
	if err != nil {
		t.Fatalf("generate router cert: %v", err)
	}
	if _, err := Parse("router.cer", router.DER, "test-tal"); err == nil {
		t.Error("Parse() should reject a BGPsec router certificate carrying an SIA extension")
	}
}

func hexSKI(x *x509.Certificate) string {
	return hex.EncodeToString(x.SubjectKeyId)
}
