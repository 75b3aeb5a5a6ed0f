package ipc_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/fancl20/rpki-core/pkg/cert"
	"github.com/fancl20/rpki-core/pkg/ipc"
)

func sampleRecord() ipc.Record {
	return ipc.Record{
		Valid:   true,
		Expires: time.Unix(1893456000, 0).UTC(),
		Purpose: cert.PurposeCA,
		IPs: []cert.IPEntry{
			{AFI: cert.AFIv4, Variant: cert.IPVariantAddr,
				Min: []byte{10, 0, 0, 0}, Max: []byte{10, 0, 255, 255},
				Prefix: cert.Prefix{Bytes: []byte{10, 0, 0, 0}, Length: 16}},
			{AFI: cert.AFIv6, Variant: cert.IPVariantRange,
				Min: []byte{0x20, 1, 0xd, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
				Max: []byte{0x20, 1, 0xd, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}},
			{AFI: cert.AFIv4, Variant: cert.IPVariantInherit},
		},
		AS: []cert.ASEntry{
			{Variant: cert.ASVariantID, ID: 65000},
			{Variant: cert.ASVariantRange, Min: 100, Max: 200},
			{Variant: cert.ASVariantInherit},
		},
		Manifest: "rsync://repo.example/ca/manifest.mft",
		Notify:   "https://repo.example/notify",
		Repo:     "rsync://repo.example/ca/",
		CRL:      "rsync://repo.example/ca/crl.crl",
		AIA:      "rsync://repo.example/parent/ca.cer",
		AKI:      "aabbcc",
		SKI:      "ddeeff",
		TAL:      "example-tal",
	}
}

// TestRoundTrip exercises P6: deserialize(serialize(R)) equals R
// field-by-field.
func TestRoundTrip(t *testing.T) {
	want := sampleRecord()
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got ipc.Record
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripBGPsecRouter(t *testing.T) {
	want := ipc.Record{
		Valid:   true,
		Expires: time.Unix(1893456000, 0).UTC(),
		Purpose: cert.PurposeBGPSecRouter,
		AS:      []cert.ASEntry{{Variant: cert.ASVariantID, ID: 65001}},
		AKI:     "aabbcc",
		SKI:     "ddeeff",
		TAL:     "example-tal",
		PubKey:  []byte{0x30, 0x2a, 0x30, 0x05},
	}
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var got ipc.Record
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripEmptyRecord(t *testing.T) {
	want := ipc.Record{SKI: "ski-only", Manifest: "rsync://repo.example/ca/manifest.mft"}
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var got ipc.Record
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestFromToCertificate exercises L1: parse(serialize_valid(R)) == R for
// every R in the accepted set, going through the cert.Certificate
// conversion helpers rather than the raw Record.
func TestFromToCertificate(t *testing.T) {
	c := &cert.Certificate{
		Valid:    true,
		Purpose:  cert.PurposeCA,
		SKI:      "ddeeff",
		AKI:      "aabbcc",
		AIA:      "rsync://repo.example/parent/ca.cer",
		Manifest: "rsync://repo.example/ca/manifest.mft",
		Repo:     "rsync://repo.example/ca/",
		TAL:      "example-tal",
		AS:       []cert.ASEntry{{Variant: cert.ASVariantID, ID: 65000}},
	}

	r := ipc.FromCertificate(c)
	data, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var r2 ipc.Record
	if err := r2.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	got, err := r2.ToCertificate()
	if err != nil {
		t.Fatalf("ToCertificate: %v", err)
	}
	if diff := cmp.Diff(c, got, cmpopts.IgnoreUnexported(cert.Certificate{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToCertificateRejectsMissingSKI(t *testing.T) {
	r := ipc.Record{Manifest: "rsync://repo.example/ca/manifest.mft"}
	if _, err := r.ToCertificate(); err == nil {
		t.Error("ToCertificate() should reject a record with no SKI")
	}
}

func TestToCertificateRejectsMissingManifestForCA(t *testing.T) {
	r := ipc.Record{SKI: "ddeeff", Purpose: cert.PurposeCA}
	if _, err := r.ToCertificate(); err == nil {
		t.Error("ToCertificate() should reject a CA record with no manifest")
	}
}

func TestToCertificateAllowsMissingManifestForRouter(t *testing.T) {
	r := ipc.Record{SKI: "ddeeff", Purpose: cert.PurposeBGPSecRouter}
	if _, err := r.ToCertificate(); err != nil {
		t.Errorf("ToCertificate() should allow a router record with no manifest, got %v", err)
	}
}
