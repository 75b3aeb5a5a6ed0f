package trust_test

import (
	"testing"

	"github.com/fancl20/rpki-core/pkg/trust"
	"github.com/fancl20/rpki-core/pkg/trust/impl/dbtest"
)

type testMemTree struct {
	*trust.Memory
}

func (m *testMemTree) Prepare(t *testing.T) {
	m.Memory = trust.NewMemory()
}

func TestMemoryConformsToTree(t *testing.T) {
	dbtest.Run(t, &testMemTree{})
}

type testMemBRK struct {
	*trust.MemoryBRKIndex
}

func (m *testMemBRK) Prepare(t *testing.T) {
	m.MemoryBRKIndex = trust.NewMemoryBRKIndex()
}

func TestMemoryBRKIndexConformsToBRKIndex(t *testing.T) {
	dbtest.RunBRK(t, &testMemBRK{})
}
