// Package ipc implements the byte-exact marshaling format used to export
// a validated certificate record to a cooperating out-of-process
// consumer. Fields are written in a fixed order with
// native-endian fixed-width scalars; this is deliberately not protobuf,
// since the wire layout is a fixed byte-for-byte contract a generated
// protobuf message cannot reproduce, and no `.proto` schema for this
// domain exists to generate real code from (see DESIGN.md).
package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/fancl20/rpki-core/pkg/cert"
)

var nativeEndian = binary.NativeEndian

// nullLength is the sentinel written in place of a length header for an
// absent optional string or byte slice: a length of -1 means "no value",
// honored symmetrically on both the read and write side.
const nullLength int32 = -1

// Record is the wire form of a cert.Certificate.
type Record struct {
	Valid   bool
	Expires time.Time
	Purpose cert.Purpose

	IPs []cert.IPEntry
	AS  []cert.ASEntry

	Manifest string
	Notify   string
	Repo     string
	CRL      string
	AIA      string
	AKI      string
	SKI      string
	TAL      string
	PubKey   []byte
}

// FromCertificate builds the wire record for a validated certificate.
func FromCertificate(c *cert.Certificate) Record {
	return Record{
		Valid:    c.Valid,
		Expires:  c.Expires,
		Purpose:  c.Purpose,
		IPs:      c.IPs,
		AS:       c.AS,
		Manifest: c.Manifest,
		Notify:   c.Notify,
		Repo:     c.Repo,
		CRL:      c.CRL,
		AIA:      c.AIA,
		AKI:      c.AKI,
		SKI:      c.SKI,
		TAL:      c.TAL,
		PubKey:   c.PubKey,
	}
}

// ToCertificate reconstructs a Certificate from a decoded Record,
// asserting the same invariants Parse does: ski must be present, and
// mft must be present unless the record's purpose is BGPSEC_ROUTER.
func (r Record) ToCertificate() (*cert.Certificate, error) {
	if r.SKI == "" {
		return nil, fmt.Errorf("ipc: decoded record has empty SKI")
	}
	if r.Manifest == "" && r.Purpose != cert.PurposeBGPSecRouter {
		return nil, fmt.Errorf("ipc: decoded record missing manifest for non-router purpose")
	}
	return &cert.Certificate{
		Valid:    r.Valid,
		Expires:  r.Expires,
		Purpose:  r.Purpose,
		IPs:      r.IPs,
		AS:       r.AS,
		Manifest: r.Manifest,
		Notify:   r.Notify,
		Repo:     r.Repo,
		CRL:      r.CRL,
		AIA:      r.AIA,
		AKI:      r.AKI,
		SKI:      r.SKI,
		TAL:      r.TAL,
		PubKey:   r.PubKey,
	}, nil
}

// MarshalBinary implements the wire format described in the package doc.
func (r Record) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	if err := writeBool(&buf, r.Valid); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, nativeEndian, r.Expires.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, nativeEndian, int32(r.Purpose)); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, nativeEndian, uint64(len(r.IPs))); err != nil {
		return nil, err
	}
	for _, e := range r.IPs {
		if err := writeIPEntry(&buf, e); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, nativeEndian, uint64(len(r.AS))); err != nil {
		return nil, err
	}
	for _, e := range r.AS {
		if err := writeASEntry(&buf, e); err != nil {
			return nil, err
		}
	}

	for _, s := range []string{r.Manifest, r.Notify, r.Repo, r.CRL, r.AIA, r.AKI, r.SKI, r.TAL} {
		if err := writeLPString(&buf, s); err != nil {
			return nil, err
		}
	}
	if err := writeLPBytes(&buf, r.PubKey); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements the wire format described in the package doc.
func (r *Record) UnmarshalBinary(data []byte) error {
	buf := bytes.NewReader(data)

	valid, err := readBool(buf)
	if err != nil {
		return err
	}
	var expiresUnix int64
	if err := binary.Read(buf, nativeEndian, &expiresUnix); err != nil {
		return fmt.Errorf("ipc: read expires: %w", err)
	}
	var purpose int32
	if err := binary.Read(buf, nativeEndian, &purpose); err != nil {
		return fmt.Errorf("ipc: read purpose: %w", err)
	}

	var ipsz uint64
	if err := binary.Read(buf, nativeEndian, &ipsz); err != nil {
		return fmt.Errorf("ipc: read ipsz: %w", err)
	}
	var ips []cert.IPEntry
	if ipsz > 0 {
		ips = make([]cert.IPEntry, ipsz)
	}
	for i := range ips {
		e, err := readIPEntry(buf)
		if err != nil {
			return fmt.Errorf("ipc: read IpEntry[%d]: %w", i, err)
		}
		ips[i] = e
	}

	var asz uint64
	if err := binary.Read(buf, nativeEndian, &asz); err != nil {
		return fmt.Errorf("ipc: read asz: %w", err)
	}
	var as []cert.ASEntry
	if asz > 0 {
		as = make([]cert.ASEntry, asz)
	}
	for i := range as {
		e, err := readASEntry(buf)
		if err != nil {
			return fmt.Errorf("ipc: read AsEntry[%d]: %w", i, err)
		}
		as[i] = e
	}

	strs := make([]string, 8)
	for i := range strs {
		s, err := readLPString(buf)
		if err != nil {
			return fmt.Errorf("ipc: read string[%d]: %w", i, err)
		}
		strs[i] = s
	}
	pubkey, err := readLPBytes(buf)
	if err != nil {
		return fmt.Errorf("ipc: read pubkey: %w", err)
	}

	r.Valid = valid
	r.Expires = time.Unix(expiresUnix, 0).UTC()
	r.Purpose = cert.Purpose(purpose)
	r.IPs = ips
	r.AS = as
	r.Manifest, r.Notify, r.Repo, r.CRL, r.AIA, r.AKI, r.SKI, r.TAL = strs[0], strs[1], strs[2], strs[3], strs[4], strs[5], strs[6], strs[7]
	r.PubKey = pubkey
	return nil
}

// writeIPEntry encodes one IpEntry: afi, variant, then for non-INHERIT
// variants, AFI-width-agnostic min/max padded to 16 bytes, plus (ADDR
// only) the original prefix bit length needed for a lossless round trip.
func writeIPEntry(buf *bytes.Buffer, e cert.IPEntry) error {
	if err := binary.Write(buf, nativeEndian, int32(e.AFI)); err != nil {
		return err
	}
	if err := binary.Write(buf, nativeEndian, int32(e.Variant)); err != nil {
		return err
	}
	if e.Variant == cert.IPVariantInherit {
		return nil
	}
	var min, max [16]byte
	copy(min[:], e.Min)
	copy(max[:], e.Max)
	if _, err := buf.Write(min[:]); err != nil {
		return err
	}
	if _, err := buf.Write(max[:]); err != nil {
		return err
	}
	if e.Variant == cert.IPVariantAddr {
		if err := binary.Write(buf, nativeEndian, int32(e.Prefix.Length)); err != nil {
			return err
		}
	}
	return nil
}

func readIPEntry(buf *bytes.Reader) (cert.IPEntry, error) {
	var afi, variant int32
	if err := binary.Read(buf, nativeEndian, &afi); err != nil {
		return cert.IPEntry{}, err
	}
	if err := binary.Read(buf, nativeEndian, &variant); err != nil {
		return cert.IPEntry{}, err
	}
	e := cert.IPEntry{AFI: cert.AFI(afi), Variant: cert.IPVariant(variant)}
	if e.Variant == cert.IPVariantInherit {
		return e, nil
	}

	width := 4
	if e.AFI == cert.AFIv6 {
		width = 16
	}
	var min, max [16]byte
	if _, err := buf.Read(min[:]); err != nil {
		return cert.IPEntry{}, err
	}
	if _, err := buf.Read(max[:]); err != nil {
		return cert.IPEntry{}, err
	}
	e.Min = append([]byte{}, min[:width]...)
	e.Max = append([]byte{}, max[:width]...)

	if e.Variant == cert.IPVariantAddr {
		var length int32
		if err := binary.Read(buf, nativeEndian, &length); err != nil {
			return cert.IPEntry{}, err
		}
		e.Prefix = cert.Prefix{Bytes: append([]byte{}, e.Min...), Length: int(length)}
	}
	return e, nil
}

func writeASEntry(buf *bytes.Buffer, e cert.ASEntry) error {
	if err := binary.Write(buf, nativeEndian, int32(e.Variant)); err != nil {
		return err
	}
	switch e.Variant {
	case cert.ASVariantRange:
		if err := binary.Write(buf, nativeEndian, e.Min); err != nil {
			return err
		}
		return binary.Write(buf, nativeEndian, e.Max)
	case cert.ASVariantID:
		return binary.Write(buf, nativeEndian, e.ID)
	default: // INHERIT
		return nil
	}
}

func readASEntry(buf *bytes.Reader) (cert.ASEntry, error) {
	var variant int32
	if err := binary.Read(buf, nativeEndian, &variant); err != nil {
		return cert.ASEntry{}, err
	}
	e := cert.ASEntry{Variant: cert.ASVariant(variant)}
	switch e.Variant {
	case cert.ASVariantRange:
		if err := binary.Read(buf, nativeEndian, &e.Min); err != nil {
			return cert.ASEntry{}, err
		}
		if err := binary.Read(buf, nativeEndian, &e.Max); err != nil {
			return cert.ASEntry{}, err
		}
	case cert.ASVariantID:
		if err := binary.Read(buf, nativeEndian, &e.ID); err != nil {
			return cert.ASEntry{}, err
		}
	}
	return e, nil
}

func writeBool(buf *bytes.Buffer, b bool) error {
	var v int32
	if b {
		v = 1
	}
	return binary.Write(buf, nativeEndian, v)
}

func readBool(buf *bytes.Reader) (bool, error) {
	var v int32
	if err := binary.Read(buf, nativeEndian, &v); err != nil {
		return false, err
	}
	return v != 0, nil
}

func writeLPString(buf *bytes.Buffer, s string) error {
	if s == "" {
		return writeLPBytes(buf, nil)
	}
	return writeLPBytes(buf, []byte(s))
}

func readLPString(buf *bytes.Reader) (string, error) {
	b, err := readLPBytes(buf)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeLPBytes(buf *bytes.Buffer, b []byte) error {
	if b == nil {
		return binary.Write(buf, nativeEndian, nullLength)
	}
	if err := binary.Write(buf, nativeEndian, int32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readLPBytes(buf *bytes.Reader) ([]byte, error) {
	var length int32
	if err := binary.Read(buf, nativeEndian, &length); err != nil {
		return nil, err
	}
	if length == nullLength {
		return nil, nil
	}
	if length < 0 {
		return nil, fmt.Errorf("ipc: negative length %d", length)
	}
	b := make([]byte, length)
	if length > 0 {
		if _, err := buf.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
