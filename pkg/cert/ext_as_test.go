package cert

import (
	"testing"

	"github.com/fancl20/rpki-core/pkg/certtest"
)

func TestDecodeASIdentifiersIDAndRange(t *testing.T) {
	value, err := certtest.EncodeASIdentifiers(certtest.ASResourceSpec{
		IDs:    []uint32{65000},
		Ranges: []certtest.ASRange{{Min: 100, Max: 200}},
	})
	if err != nil {
		t.Fatalf("EncodeASIdentifiers: %v", err)
	}
	r := newResources()
	if err := decodeASIdentifiers("test.cer", value, r); err != nil {
		t.Fatalf("decodeASIdentifiers() error: %v", err)
	}
	if len(r.as) != 2 {
		t.Fatalf("got %d AS entries, want 2", len(r.as))
	}
	if r.as[0].Variant != ASVariantID || r.as[0].ID != 65000 {
		t.Errorf("entry 0 = %+v, want ID 65000", r.as[0])
	}
	if r.as[1].Variant != ASVariantRange || r.as[1].Min != 100 || r.as[1].Max != 200 {
		t.Errorf("entry 1 = %+v, want range [100,200]", r.as[1])
	}
}

func TestDecodeASIdentifiersInherit(t *testing.T) {
	value, err := certtest.EncodeASIdentifiers(certtest.ASResourceSpec{Inherit: true})
	if err != nil {
		t.Fatalf("EncodeASIdentifiers: %v", err)
	}
	r := newResources()
	if err := decodeASIdentifiers("test.cer", value, r); err != nil {
		t.Fatalf("decodeASIdentifiers() error: %v", err)
	}
	if len(r.as) != 1 || r.as[0].Variant != ASVariantInherit {
		t.Errorf("got %+v, want single INHERIT entry", r.as)
	}
}

func TestDecodeASIdentifiersRejectsZero(t *testing.T) {
	value, err := certtest.EncodeASIdentifiers(certtest.ASResourceSpec{IDs: []uint32{0}})
	if err != nil {
		t.Fatalf("EncodeASIdentifiers: %v", err)
	}
	r := newResources()
	if err := decodeASIdentifiers("test.cer", value, r); err == nil {
		t.Error("decodeASIdentifiers() should reject AS number 0")
	}
}

func TestDecodeASIdentifiersRejectsReversedRange(t *testing.T) {
	value, err := certtest.EncodeASIdentifiers(certtest.ASResourceSpec{
		Ranges: []certtest.ASRange{{Min: 200, Max: 100}},
	})
	if err != nil {
		t.Fatalf("EncodeASIdentifiers: %v", err)
	}
	r := newResources()
	if err := decodeASIdentifiers("test.cer", value, r); err == nil {
		t.Error("decodeASIdentifiers() should reject a reversed range")
	}
}

func TestDecodeASIdentifiersRejectsOverlap(t *testing.T) {
	value, err := certtest.EncodeASIdentifiers(certtest.ASResourceSpec{
		IDs:    []uint32{150},
		Ranges: []certtest.ASRange{{Min: 100, Max: 200}},
	})
	if err != nil {
		t.Fatalf("EncodeASIdentifiers: %v", err)
	}
	r := newResources()
	if err := decodeASIdentifiers("test.cer", value, r); err == nil {
		t.Error("decodeASIdentifiers() should reject a range overlapping a prior ID")
	}
}
