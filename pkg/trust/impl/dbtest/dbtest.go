// Package dbtest is a conformance suite shared by every trust.Tree
// implementation, run against both the in-memory store and the bbolt
// store.
package dbtest

import (
	"crypto/x509"
	"sort"
	"testing"
	"time"

	"github.com/fancl20/rpki-core/pkg/cert"
	"github.com/fancl20/rpki-core/pkg/certtest"
	"github.com/fancl20/rpki-core/pkg/trust"
)

// TestableTree extends trust.Tree with a reset hook for the harness.
type TestableTree interface {
	trust.Tree
	// Prepare resets the store to empty before each subtest.
	Prepare(t *testing.T)
}

// TestableBRKIndex extends trust.BRKIndex with a reset hook.
type TestableBRKIndex interface {
	trust.BRKIndex
	Prepare(t *testing.T)
}

func genNode(t *testing.T, tal string) *trust.Node {
	t.Helper()
	g, err := certtest.Generate(certtest.CertSpec{
		CommonName: "dbtest node",
		IsCA:       true,
		NotBefore:  time.Now().Add(-time.Hour),
		NotAfter:   time.Now().Add(24 * time.Hour),
		IPs: []certtest.IPResourceSpec{
			{AFI: 1, Prefixes: []certtest.IPPrefixSpec{{Addr: []byte{10, 0, 0, 0}, Length: 8}}},
		},
		Repo:     "rsync://repo.example/ta/",
		Manifest: "rsync://repo.example/ta/manifest.mft",
	})
	if err != nil {
		t.Fatalf("generate node: %v", err)
	}
	spki, err := x509.MarshalPKIXPublicKey(g.X509.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	c, err := cert.ParseTA("dbtest.cer", g.DER, tal, spki)
	if err != nil {
		t.Fatalf("parse generated node: %v", err)
	}
	return &trust.Node{Cert: c, TAL: tal, File: "dbtest.cer"}
}

// Run exercises a Tree implementation's Insert/Find/Remove/All/Len
// contract.
func Run(t *testing.T, tree TestableTree) {
	t.Run("Tree", func(t *testing.T) {
		t.Run("insert and find", func(t *testing.T) {
			tree.Prepare(t)
			n := genNode(t, "tal1")
			if err := tree.Insert(n); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			got, ok := tree.Find(n.Cert.SKI)
			if !ok {
				t.Fatal("Find() should succeed after Insert")
			}
			if got.Cert.SKI != n.Cert.SKI || got.TAL != "tal1" {
				t.Errorf("Find() = %+v, want SKI=%s TAL=tal1", got, n.Cert.SKI)
			}
		})

		t.Run("duplicate SKI rejected", func(t *testing.T) {
			tree.Prepare(t)
			n := genNode(t, "tal1")
			if err := tree.Insert(n); err != nil {
				t.Fatalf("first Insert: %v", err)
			}
			if err := tree.Insert(n); err == nil {
				t.Error("Insert() should reject a duplicate SKI")
			}
		})

		t.Run("remove", func(t *testing.T) {
			tree.Prepare(t)
			n := genNode(t, "tal1")
			if err := tree.Insert(n); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if err := tree.Remove(n.Cert.SKI); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, ok := tree.Find(n.Cert.SKI); ok {
				t.Error("Find() should fail after Remove")
			}
		})

		t.Run("all and len", func(t *testing.T) {
			tree.Prepare(t)
			var skis []string
			for i := 0; i < 3; i++ {
				n := genNode(t, "tal1")
				if err := tree.Insert(n); err != nil {
					t.Fatalf("Insert(%s): %v", n.Cert.SKI, err)
				}
				skis = append(skis, n.Cert.SKI)
			}
			sort.Strings(skis)

			if tree.Len() != 3 {
				t.Errorf("Len() = %d, want 3", tree.Len())
			}
			all := tree.All()
			if len(all) != 3 {
				t.Fatalf("All() returned %d nodes, want 3", len(all))
			}
			for i, want := range skis {
				if all[i].Cert.SKI != want {
					t.Errorf("All()[%d].Cert.SKI = %q, want %q (not in SKI order)", i, all[i].Cert.SKI, want)
				}
			}
		})
	})
}

// RunBRK exercises a BRKIndex implementation's Insert/Find/All contract.
func RunBRK(t *testing.T, idx TestableBRKIndex) {
	t.Run("BRKIndex", func(t *testing.T) {
		t.Run("insert and find", func(t *testing.T) {
			idx.Prepare(t)
			e := trust.BRKEntry{ASID: 65000, SKI: "router", PubKey: []byte{1, 2, 3}, TAL: "tal1", Expires: time.Now().Truncate(time.Second)}
			if err := idx.Insert(e); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			got, ok := idx.Find(65000, "router", []byte{1, 2, 3})
			if !ok {
				t.Fatal("Find() should succeed after Insert")
			}
			if got.TAL != "tal1" {
				t.Errorf("TAL = %q, want tal1", got.TAL)
			}
		})

		t.Run("collision keeps later expiry", func(t *testing.T) {
			idx.Prepare(t)
			early := time.Now().Truncate(time.Second)
			late := early.Add(time.Hour)
			if err := idx.Insert(trust.BRKEntry{ASID: 1, SKI: "s", PubKey: []byte{9}, TAL: "a", Expires: early}); err != nil {
				t.Fatalf("first Insert: %v", err)
			}
			if err := idx.Insert(trust.BRKEntry{ASID: 1, SKI: "s", PubKey: []byte{9}, TAL: "b", Expires: late}); err != nil {
				t.Fatalf("second Insert: %v", err)
			}
			got, ok := idx.Find(1, "s", []byte{9})
			if !ok {
				t.Fatal("Find() should succeed")
			}
			if !got.Expires.Equal(late) {
				t.Errorf("Expires = %v, want %v", got.Expires, late)
			}
			if got.TAL != "b" {
				t.Errorf("TAL = %q, want b", got.TAL)
			}
		})

		t.Run("all", func(t *testing.T) {
			idx.Prepare(t)
			for asn := uint32(1); asn <= 3; asn++ {
				if err := idx.Insert(trust.BRKEntry{ASID: asn, SKI: "router", PubKey: []byte{byte(asn)}, Expires: time.Now().Truncate(time.Second)}); err != nil {
					t.Fatalf("Insert(%d): %v", asn, err)
				}
			}
			if len(idx.All()) != 3 {
				t.Errorf("All() returned %d entries, want 3", len(idx.All()))
			}
		})
	})
}
