// Package certtest builds synthetic DER-encoded RPKI certificates for
// tests: a self-signed trust anchor, CA certificates carrying RFC 3779
// resources and an SIA, and BGPsec router certificates. The ASN.1
// structs below duplicate the shapes pkg/cert's decoders expect, for
// internal encoding only, since pkg/cert's own decoder structs are
// unexported.
package certtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"
)

var (
	oidSbgpIPAddrBlock          = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 7}
	oidSbgpAutonomousSysNum     = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 8}
	oidSubjectInformationAccess = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 11}

	oidADCaRepository = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 5}
	oidADRpkiManifest = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 10}
	oidADRpkiNotify   = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 13}

	oidExtKeyUsageBgpsecRouter = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 30}
)

type asn1IPAddressFamily struct {
	AddressFamily []byte
	Choice        asn1.RawValue
}

// ASRange is an explicit RFC 3779 ASIdOrRange SEQUENCE{min,max}.
type ASRange struct {
	Min int64
	Max int64
}

type asn1AccessDescription struct {
	Method   asn1.ObjectIdentifier
	Location asn1.RawValue
}

// IPResourceSpec describes one RFC 3779 IPAddressFamily entry.
type IPResourceSpec struct {
	AFI      int // 1 = IPv4, 2 = IPv6
	Inherit  bool
	Prefixes []IPPrefixSpec
	Ranges   []IPRangeSpec
}

// IPPrefixSpec is an addressPrefix BIT STRING: addr holds the AFI-width
// address bytes, only the first ceil(length/8) of which are encoded.
type IPPrefixSpec struct {
	Addr   []byte
	Length int
}

// IPRangeSpec is an explicit addressRange SEQUENCE with AFI-width min/max.
type IPRangeSpec struct {
	Min []byte
	Max []byte
}

// ASResourceSpec describes the asnum field of an ASIdentifiers extension.
type ASResourceSpec struct {
	Inherit bool
	IDs     []uint32
	Ranges  []ASRange
}

func afiWidth(afi int) int {
	if afi == 2 {
		return 16
	}
	return 4
}

// EncodeIPAddrBlock builds the sbgp-ipAddrBlock extension body (already
// unwrapped, as pkix.Extension.Value would hold it).
func EncodeIPAddrBlock(specs []IPResourceSpec) ([]byte, error) {
	families := make([]asn1IPAddressFamily, 0, len(specs))
	for _, s := range specs {
		fam := asn1IPAddressFamily{AddressFamily: []byte{0, byte(s.AFI)}}
		if s.Inherit {
			fam.Choice = asn1.RawValue{FullBytes: []byte{0x05, 0x00}}
		} else {
			items := make([]asn1.RawValue, 0, len(s.Prefixes)+len(s.Ranges))
			for _, p := range s.Prefixes {
				used := (p.Length + 7) / 8
				bits := asn1.BitString{Bytes: p.Addr[:used], BitLength: p.Length}
				b, err := asn1.Marshal(bits)
				if err != nil {
					return nil, err
				}
				items = append(items, asn1.RawValue{FullBytes: b})
			}
			for _, rg := range s.Ranges {
				width := afiWidth(s.AFI)
				rng := struct {
					Min asn1.BitString
					Max asn1.BitString
				}{
					Min: asn1.BitString{Bytes: rg.Min, BitLength: width * 8},
					Max: asn1.BitString{Bytes: rg.Max, BitLength: width * 8},
				}
				b, err := asn1.Marshal(rng)
				if err != nil {
					return nil, err
				}
				items = append(items, asn1.RawValue{FullBytes: b})
			}
			b, err := asn1.Marshal(items)
			if err != nil {
				return nil, err
			}
			fam.Choice = asn1.RawValue{FullBytes: b}
		}
		families = append(families, fam)
	}
	return asn1.Marshal(families)
}

// EncodeASIdentifiers builds the sbgp-autonomousSysNum extension body,
// populating only the asnum [0] field (rdi is never emitted).
func EncodeASIdentifiers(spec ASResourceSpec) ([]byte, error) {
	var inner []byte
	var err error
	if spec.Inherit {
		inner = []byte{0x05, 0x00}
	} else {
		items := make([]asn1.RawValue, 0, len(spec.IDs)+len(spec.Ranges))
		for _, id := range spec.IDs {
			b, merr := asn1.Marshal(int64(id))
			if merr != nil {
				return nil, merr
			}
			items = append(items, asn1.RawValue{FullBytes: b})
		}
		for _, rg := range spec.Ranges {
			b, merr := asn1.Marshal(rg)
			if merr != nil {
				return nil, merr
			}
			items = append(items, asn1.RawValue{FullBytes: b})
		}
		inner, err = asn1.Marshal(items)
		if err != nil {
			return nil, err
		}
	}

	asnum := asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        0,
		IsCompound: true,
		Bytes:      inner,
	}
	return asn1.Marshal([]asn1.RawValue{asnum})
}

// EncodeSIA builds the id-pe-sinfoAccess extension body. Empty strings
// omit the corresponding AccessDescription.
func EncodeSIA(repo, manifest, notify string) ([]byte, error) {
	var descs []asn1AccessDescription
	add := func(oid asn1.ObjectIdentifier, uri string) {
		if uri == "" {
			return
		}
		descs = append(descs, asn1AccessDescription{
			Method:   oid,
			Location: asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 6, Bytes: []byte(uri)},
		})
	}
	add(oidADCaRepository, repo)
	add(oidADRpkiManifest, manifest)
	add(oidADRpkiNotify, notify)
	return asn1.Marshal(descs)
}

// CertSpec describes one synthetic certificate to generate.
type CertSpec struct {
	CommonName string
	IsCA       bool
	IsRouter   bool
	NotBefore  time.Time
	NotAfter   time.Time

	IPs        []IPResourceSpec
	AS         *ASResourceSpec
	Repo       string
	Manifest   string
	Notify     string
	CRL        string
	AIA        string

	// Parent signs this certificate; nil means self-signed (trust anchor).
	Parent     *x509.Certificate
	ParentKey  ed25519.PrivateKey
}

// Generated holds a synthetic certificate's DER, parsed form, and key.
type Generated struct {
	DER  []byte
	X509 *x509.Certificate
	Key  ed25519.PrivateKey
}

// Generate builds and signs a certificate per spec, producing RFC
// 3779/8182 extensions that pkg/cert's decoders can parse.
func Generate(spec CertSpec) (*Generated, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	ski := sha1.Sum(pub)

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	tpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: spec.CommonName},
		NotBefore:             spec.NotBefore,
		NotAfter:              spec.NotAfter,
		BasicConstraintsValid: true,
		IsCA:                  spec.IsCA,
		SubjectKeyId:          ski[:],
		KeyUsage:              x509.KeyUsageDigitalSignature,
	}
	if spec.IsCA {
		tpl.KeyUsage |= x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	}
	if spec.IsRouter {
		tpl.UnknownExtKeyUsage = []asn1.ObjectIdentifier{oidExtKeyUsageBgpsecRouter}
	}
	if spec.CRL != "" {
		tpl.CRLDistributionPoints = []string{spec.CRL}
	}
	if spec.AIA != "" {
		tpl.IssuingCertificateURL = []string{spec.AIA}
	}

	if len(spec.IPs) > 0 {
		ext, err := EncodeIPAddrBlock(spec.IPs)
		if err != nil {
			return nil, fmt.Errorf("encode IPAddrBlock: %w", err)
		}
		tpl.ExtraExtensions = append(tpl.ExtraExtensions, pkix.Extension{Id: oidSbgpIPAddrBlock, Critical: true, Value: ext})
	}
	if spec.AS != nil {
		ext, err := EncodeASIdentifiers(*spec.AS)
		if err != nil {
			return nil, fmt.Errorf("encode ASIdentifiers: %w", err)
		}
		tpl.ExtraExtensions = append(tpl.ExtraExtensions, pkix.Extension{Id: oidSbgpAutonomousSysNum, Critical: true, Value: ext})
	}
	if spec.Repo != "" || spec.Manifest != "" || spec.Notify != "" {
		ext, err := EncodeSIA(spec.Repo, spec.Manifest, spec.Notify)
		if err != nil {
			return nil, fmt.Errorf("encode SIA: %w", err)
		}
		tpl.ExtraExtensions = append(tpl.ExtraExtensions, pkix.Extension{Id: oidSubjectInformationAccess, Value: ext})
	}

	parent := tpl
	signer := priv
	if spec.Parent != nil {
		parent = spec.Parent
		signer = spec.ParentKey
		tpl.AuthorityKeyId = spec.Parent.SubjectKeyId
	} else {
		tpl.AuthorityKeyId = ski[:]
	}

	der, err := x509.CreateCertificate(rand.Reader, tpl, parent, pub, signer)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	x, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse generated certificate: %w", err)
	}
	return &Generated{DER: der, X509: x, Key: priv}, nil
}
