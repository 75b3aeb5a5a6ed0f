package trust

import (
	"errors"
	"testing"
	"time"

	"github.com/fancl20/rpki-core/pkg/cert"
)

func TestMemoryBRKIndexInsertFind(t *testing.T) {
	idx := NewMemoryBRKIndex()
	entry := BRKEntry{ASID: 65000, SKI: "abc", PubKey: []byte{1, 2, 3}, TAL: "tal1", Expires: time.Now()}
	if err := idx.Insert(entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, ok := idx.Find(65000, "abc", []byte{1, 2, 3})
	if !ok {
		t.Fatal("Find() should succeed")
	}
	if got.TAL != "tal1" {
		t.Errorf("TAL = %q, want tal1", got.TAL)
	}
}

func TestMemoryBRKIndexCollisionKeepsLaterExpiry(t *testing.T) {
	idx := NewMemoryBRKIndex()
	early := time.Now()
	late := early.Add(time.Hour)

	if err := idx.Insert(BRKEntry{ASID: 1, SKI: "s", PubKey: []byte{9}, TAL: "tal-a", Expires: early}); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := idx.Insert(BRKEntry{ASID: 1, SKI: "s", PubKey: []byte{9}, TAL: "tal-b", Expires: late}); err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	got, ok := idx.Find(1, "s", []byte{9})
	if !ok {
		t.Fatal("Find() should succeed")
	}
	if !got.Expires.Equal(late) {
		t.Errorf("Expires = %v, want the later %v", got.Expires, late)
	}
	if got.TAL != "tal-b" {
		t.Errorf("TAL = %q, want the newer record's tal-b", got.TAL)
	}
}

func TestInsertBRKsExpandsRange(t *testing.T) {
	idx := NewMemoryBRKIndex()
	c := &cert.Certificate{
		SKI: "router-ski",
		AS: []cert.ASEntry{
			{Variant: cert.ASVariantRange, Min: 100, Max: 103},
		},
	}
	if err := InsertBRKs(idx, c); err != nil {
		t.Fatalf("InsertBRKs: %v", err)
	}
	if len(idx.All()) != 4 {
		t.Fatalf("got %d BRK entries, want 4 (one per ASN in [100,103])", len(idx.All()))
	}
	for asn := uint32(100); asn <= 103; asn++ {
		if _, ok := idx.Find(asn, "router-ski", nil); !ok {
			t.Errorf("Find(%d) should succeed", asn)
		}
	}
}

func TestInsertBRKsRejectsInherit(t *testing.T) {
	idx := NewMemoryBRKIndex()
	c := &cert.Certificate{
		SKI: "router-ski",
		AS:  []cert.ASEntry{{Variant: cert.ASVariantInherit}},
	}
	err := InsertBRKs(idx, c)
	if !errors.Is(err, ErrInheritStructural) {
		t.Errorf("InsertBRKs() error = %v, want ErrInheritStructural", err)
	}
}
