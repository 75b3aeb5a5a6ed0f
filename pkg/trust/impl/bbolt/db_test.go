package bbolt_test

import (
	"path/filepath"
	"testing"

	"github.com/fancl20/rpki-core/pkg/trust"
	"github.com/fancl20/rpki-core/pkg/trust/impl/bbolt"
	"github.com/fancl20/rpki-core/pkg/trust/impl/dbtest"
)

type testTree struct {
	*bbolt.DB
}

func (tt *testTree) Prepare(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("bbolt.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tt.DB = db
}

func TestDB(t *testing.T) {
	dbtest.Run(t, &testTree{})
}

type testBRK struct {
	*bbolt.BRKIndex
	db *bbolt.DB
}

func (tb *testBRK) Prepare(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("bbolt.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tb.db = db
	tb.BRKIndex = bbolt.NewBRKIndex(db)
}

func TestBRKIndex(t *testing.T) {
	dbtest.RunBRK(t, &testBRK{})
}

var _ trust.Tree = (*bbolt.DB)(nil)
var _ trust.BRKIndex = (*bbolt.BRKIndex)(nil)
