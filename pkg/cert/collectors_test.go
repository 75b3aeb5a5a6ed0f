package cert

import "testing"

func TestAppendIPRejectsOverlap(t *testing.T) {
	r := newResources()
	if err := r.appendIP(IPEntry{AFI: AFIv4, Variant: IPVariantAddr, Min: []byte{10, 0, 0, 0}, Max: []byte{10, 0, 255, 255}}); err != nil {
		t.Fatalf("first appendIP: %v", err)
	}
	err := r.appendIP(IPEntry{AFI: AFIv4, Variant: IPVariantAddr, Min: []byte{10, 0, 128, 0}, Max: []byte{10, 0, 128, 255}})
	if err == nil {
		t.Error("appendIP() should reject overlap with a prior entry of the same AFI")
	}
}

func TestAppendIPAllowsDisjointAcrossAFI(t *testing.T) {
	r := newResources()
	if err := r.appendIP(IPEntry{AFI: AFIv4, Variant: IPVariantAddr, Min: []byte{10, 0, 0, 0}, Max: []byte{10, 0, 255, 255}}); err != nil {
		t.Fatalf("ipv4 appendIP: %v", err)
	}
	v6min := make([]byte, 16)
	v6max := make([]byte, 16)
	v6max[0] = 0xff
	if err := r.appendIP(IPEntry{AFI: AFIv6, Variant: IPVariantAddr, Min: v6min, Max: v6max}); err != nil {
		t.Errorf("appendIP() should allow a range under a different AFI that would overlap if AFI were ignored: %v", err)
	}
}

func TestAppendIPRejectsDuplicateInherit(t *testing.T) {
	r := newResources()
	if err := r.appendIP(IPEntry{AFI: AFIv4, Variant: IPVariantInherit}); err != nil {
		t.Fatalf("first appendIP: %v", err)
	}
	if err := r.appendIP(IPEntry{AFI: AFIv4, Variant: IPVariantInherit}); err == nil {
		t.Error("appendIP() should reject a second INHERIT for the same AFI")
	}
}

func TestAppendASRejectsOverlap(t *testing.T) {
	r := newResources()
	if err := r.appendAS(ASEntry{Variant: ASVariantRange, Min: 100, Max: 200}); err != nil {
		t.Fatalf("first appendAS: %v", err)
	}
	if err := r.appendAS(ASEntry{Variant: ASVariantID, ID: 150}); err == nil {
		t.Error("appendAS() should reject an ID inside a prior range")
	}
}

func TestAppendASRejectsDuplicateInherit(t *testing.T) {
	r := newResources()
	if err := r.appendAS(ASEntry{Variant: ASVariantInherit}); err != nil {
		t.Fatalf("first appendAS: %v", err)
	}
	if err := r.appendAS(ASEntry{Variant: ASVariantInherit}); err == nil {
		t.Error("appendAS() should reject a second INHERIT entry")
	}
}

func TestAppendASAllowsAdjacentDisjointRanges(t *testing.T) {
	r := newResources()
	if err := r.appendAS(ASEntry{Variant: ASVariantRange, Min: 100, Max: 199}); err != nil {
		t.Fatalf("first appendAS: %v", err)
	}
	if err := r.appendAS(ASEntry{Variant: ASVariantRange, Min: 200, Max: 299}); err != nil {
		t.Errorf("appendAS() should allow adjacent non-overlapping ranges: %v", err)
	}
}
