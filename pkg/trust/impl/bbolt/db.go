// Package bbolt provides a durable implementation of trust.Tree and
// trust.BRKIndex backed by go.etcd.io/bbolt, following the bucket-per-
// namespace, length-prefixed-value convention of bboltDB in the original
// pkg/trust/impl/bbolt/db.go.
package bbolt

import (
	"bytes"
	"crypto/x509"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fancl20/rpki-core/pkg/cert"
	"github.com/fancl20/rpki-core/pkg/trust"
)

const (
	nodesBucket = "nodes"
	brksBucket  = "brks"
)

// DB is a bbolt-backed trust.Tree. One DB backs one TAL's shard of the
// authority tree.
type DB struct {
	db *bbolt.DB
}

// Open creates or opens a bbolt-backed trust store at path.
func Open(path string, opts *bbolt.Options) (*DB, error) {
	db, err := bbolt.Open(path, 0600, opts)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{nodesBucket, brksBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Find(ski string) (*trust.Node, bool) {
	var node *trust.Node
	d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(nodesBucket)).Get([]byte(ski))
		if v == nil {
			return nil
		}
		n, err := decodeNode(v)
		if err != nil {
			return nil
		}
		node = n
		return nil
	})
	return node, node != nil
}

func (d *DB) Insert(n *trust.Node) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(nodesBucket))
		ski := []byte(n.Cert.SKI)
		if b.Get(ski) != nil {
			return fmt.Errorf("%w: %s", trust.ErrDuplicateSKI, n.Cert.SKI)
		}
		return b.Put(ski, encodeNode(n))
	})
}

func (d *DB) Remove(ski string) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(nodesBucket)).Delete([]byte(ski))
	})
}

func (d *DB) All() []*trust.Node {
	var out []*trust.Node
	d.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(nodesBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			n, err := decodeNode(v)
			if err != nil {
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	return out
}

func (d *DB) Len() int {
	var n int
	d.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(nodesBucket)).Stats().KeyN
		return nil
	})
	return n
}

// encodeNode serializes a Node as a sequence of length-prefixed fields:
// parentSKI, tal, file, a validity byte, then the raw certificate DER.
// Re-Parse on load reconstructs the rest of the Certificate, so the store
// need not duplicate the resource-set encoding.
func encodeNode(n *trust.Node) []byte {
	var buf bytes.Buffer
	writeLP(&buf, []byte(n.ParentSKI))
	writeLP(&buf, []byte(n.TAL))
	writeLP(&buf, []byte(n.File))
	if n.Cert.Valid {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeLP(&buf, n.Cert.X509.Raw)
	return buf.Bytes()
}

func decodeNode(v []byte) (*trust.Node, error) {
	r := bytes.NewReader(v)
	parentSKI, err := readLP(r)
	if err != nil {
		return nil, err
	}
	tal, err := readLP(r)
	if err != nil {
		return nil, err
	}
	file, err := readLP(r)
	if err != nil {
		return nil, err
	}
	validByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	der, err := readLP(r)
	if err != nil {
		return nil, err
	}

	x, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	var c *cert.Certificate
	var parseErr error
	if len(x.AuthorityKeyId) == 0 || bytes.Equal(x.AuthorityKeyId, x.SubjectKeyId) {
		// A self-issued trust anchor is re-parsed under the TA rules.
		spki, err := x509.MarshalPKIXPublicKey(x.PublicKey)
		if err != nil {
			return nil, err
		}
		c, parseErr = cert.ParseTA(string(file), der, string(tal), spki)
	} else {
		c, parseErr = cert.Parse(string(file), der, string(tal))
	}
	if parseErr != nil {
		return nil, parseErr
	}
	c.Valid = validByte == 1

	return &trust.Node{
		Cert:      c,
		ParentSKI: string(parentSKI),
		TAL:       string(tal),
		File:      string(file),
	}, nil
}

func writeLP(buf *bytes.Buffer, b []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	buf.Write(length[:])
	buf.Write(b)
}

func readLP(r *bytes.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := r.Read(length[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(length[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// BRKIndex is a bbolt-backed trust.BRKIndex, sharing its underlying file
// with a DB's node bucket.
type BRKIndex struct {
	db *bbolt.DB
}

// NewBRKIndex wraps an already-open DB's bbolt handle to provide a
// BRKIndex sharing the same file.
func NewBRKIndex(d *DB) *BRKIndex {
	return &BRKIndex{db: d.db}
}

func brkKey(asid uint32, ski string, pubkey []byte) []byte {
	var buf bytes.Buffer
	var asidBytes [4]byte
	binary.BigEndian.PutUint32(asidBytes[:], asid)
	buf.Write(asidBytes[:])
	writeLP(&buf, []byte(ski))
	writeLP(&buf, pubkey)
	return buf.Bytes()
}

func (b *BRKIndex) Insert(e trust.BRKEntry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(brksBucket))
		key := brkKey(e.ASID, e.SKI, e.PubKey)
		if existing := bucket.Get(key); existing != nil {
			old, err := decodeBRK(existing)
			if err != nil {
				return err
			}
			if e.Expires.After(old.Expires) {
				old.Expires = e.Expires
			}
			old.TAL = e.TAL
			return bucket.Put(key, encodeBRK(old))
		}
		return bucket.Put(key, encodeBRK(e))
	})
}

func (b *BRKIndex) Find(asid uint32, ski string, pubkey []byte) (trust.BRKEntry, bool) {
	var entry trust.BRKEntry
	var found bool
	b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(brksBucket)).Get(brkKey(asid, ski, pubkey))
		if v == nil {
			return nil
		}
		e, err := decodeBRK(v)
		if err != nil {
			return nil
		}
		entry, found = e, true
		return nil
	})
	return entry, found
}

func (b *BRKIndex) All() []trust.BRKEntry {
	var out []trust.BRKEntry
	b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(brksBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			e, err := decodeBRK(v)
			if err != nil {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	return out
}

func encodeBRK(e trust.BRKEntry) []byte {
	var buf bytes.Buffer
	var asidBytes [4]byte
	binary.BigEndian.PutUint32(asidBytes[:], e.ASID)
	buf.Write(asidBytes[:])
	writeLP(&buf, []byte(e.SKI))
	writeLP(&buf, e.PubKey)
	writeLP(&buf, []byte(e.TAL))
	expires, _ := e.Expires.UTC().MarshalBinary()
	writeLP(&buf, expires)
	return buf.Bytes()
}

func decodeBRK(v []byte) (trust.BRKEntry, error) {
	r := bytes.NewReader(v)
	var asidBytes [4]byte
	if _, err := r.Read(asidBytes[:]); err != nil {
		return trust.BRKEntry{}, err
	}
	ski, err := readLP(r)
	if err != nil {
		return trust.BRKEntry{}, err
	}
	pubkey, err := readLP(r)
	if err != nil {
		return trust.BRKEntry{}, err
	}
	tal, err := readLP(r)
	if err != nil {
		return trust.BRKEntry{}, err
	}
	expiresBytes, err := readLP(r)
	if err != nil {
		return trust.BRKEntry{}, err
	}
	var expires time.Time
	if err := expires.UnmarshalBinary(expiresBytes); err != nil {
		return trust.BRKEntry{}, err
	}
	return trust.BRKEntry{
		ASID:    binary.BigEndian.Uint32(asidBytes[:]),
		SKI:     string(ski),
		PubKey:  pubkey,
		TAL:     string(tal),
		Expires: expires,
	}, nil
}
