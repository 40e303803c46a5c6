package x509util

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	tagGeneralNameDNS       = cryptobyte_asn1.Tag(2).ContextSpecific()
	tagGeneralNameDirectory = cryptobyte_asn1.Tag(4).ContextSpecific().Constructed()
	tagPermittedSubtrees    = cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()
	tagExcludedSubtrees     = cryptobyte_asn1.Tag(1).ContextSpecific().Constructed()
)

// Subtrees a CA permits or excludes for the certificates below it.
//
// Directory names are enforced by [ValidateCertificateChain] as RDN prefixes of each subordinate subject. DNS names are carried in the extension only.
type NameConstraints struct {
	PermittedDNSDomains     []string
	ExcludedDNSDomains      []string
	PermittedDirectoryNames []pkix.Name
	ExcludedDirectoryNames  []pkix.Name
}

func (nc *NameConstraints) empty() bool {
	return nc == nil || (len(nc.PermittedDNSDomains) == 0 && len(nc.ExcludedDNSDomains) == 0 &&
		len(nc.PermittedDirectoryNames) == 0 && len(nc.ExcludedDirectoryNames) == 0)
}

func marshalName(n pkix.Name) ([]byte, error) {
	return asn1.Marshal(n.ToRDNSequence())
}

func parseName(raw []byte) (pkix.Name, pkix.RDNSequence, error) {
	var rdns pkix.RDNSequence
	rest, err := asn1.Unmarshal(raw, &rdns)
	if err != nil {
		return pkix.Name{}, nil, err
	}
	if len(rest) != 0 {
		return pkix.Name{}, nil, fmt.Errorf("trailing data after name")
	}
	var name pkix.Name
	name.FillFromRDNSequence(&rdns)
	return name, rdns, nil
}

func (nc *NameConstraints) marshal() ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	var failed error
	addSubtrees := func(b *cryptobyte.Builder, tag cryptobyte_asn1.Tag, dns []string, dirs []pkix.Name) {
		if len(dns) == 0 && len(dirs) == 0 {
			return
		}
		b.AddASN1(tag, func(b *cryptobyte.Builder) {
			for _, d := range dns {
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1(tagGeneralNameDNS, func(b *cryptobyte.Builder) {
						b.AddBytes([]byte(d))
					})
				})
			}
			for _, n := range dirs {
				raw, err := marshalName(n)
				if err != nil {
					failed = err
					return
				}
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1(tagGeneralNameDirectory, func(b *cryptobyte.Builder) {
						b.AddBytes(raw)
					})
				})
			}
		})
	}
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addSubtrees(b, tagPermittedSubtrees, nc.PermittedDNSDomains, nc.PermittedDirectoryNames)
		addSubtrees(b, tagExcludedSubtrees, nc.ExcludedDNSDomains, nc.ExcludedDirectoryNames)
	})
	if failed != nil {
		return nil, failed
	}
	return b.Bytes()
}

func parseNameConstraints(value []byte) (*NameConstraints, error) {
	input := cryptobyte.String(value)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("name constraints: expected SEQUENCE")
	}
	nc := &NameConstraints{}
	readSubtrees := func(tag cryptobyte_asn1.Tag, dns *[]string, dirs *[]pkix.Name) error {
		var subtrees cryptobyte.String
		var present bool
		if !seq.ReadOptionalASN1(&subtrees, &present, tag) {
			return fmt.Errorf("name constraints: bad subtrees")
		}
		for !subtrees.Empty() {
			var subtree, gn cryptobyte.String
			var gnTag cryptobyte_asn1.Tag
			if !subtrees.ReadASN1(&subtree, cryptobyte_asn1.SEQUENCE) || !subtree.ReadAnyASN1(&gn, &gnTag) {
				return fmt.Errorf("name constraints: bad general subtree")
			}
			switch gnTag {
			case tagGeneralNameDNS:
				*dns = append(*dns, string(gn))
			case tagGeneralNameDirectory:
				name, _, err := parseName(gn)
				if err != nil {
					return fmt.Errorf("name constraints: %w", err)
				}
				*dirs = append(*dirs, name)
			default:
				return fmt.Errorf("name constraints: unsupported general name tag %d", gnTag)
			}
		}
		return nil
	}
	if err := readSubtrees(tagPermittedSubtrees, &nc.PermittedDNSDomains, &nc.PermittedDirectoryNames); err != nil {
		return nil, err
	}
	if err := readSubtrees(tagExcludedSubtrees, &nc.ExcludedDNSDomains, &nc.ExcludedDirectoryNames); err != nil {
		return nil, err
	}
	if !seq.Empty() {
		return nil, fmt.Errorf("name constraints: trailing data")
	}
	return nc, nil
}

// Whether every RDN of prefix matches the leading RDNs of name.
func rdnPrefix(prefix, name pkix.RDNSequence) bool {
	if len(prefix) > len(name) {
		return false
	}
	for i, set := range prefix {
		if len(set) != len(name[i]) {
			return false
		}
		for j, atv := range set {
			other := name[i][j]
			if !atv.Type.Equal(other.Type) || !strings.EqualFold(fmt.Sprint(atv.Value), fmt.Sprint(other.Value)) {
				return false
			}
		}
	}
	return true
}

// Checks a subordinate subject against the directory name subtrees.
func (nc *NameConstraints) permitsDirectoryName(subject pkix.RDNSequence) error {
	for _, ex := range nc.ExcludedDirectoryNames {
		if rdnPrefix(ex.ToRDNSequence(), subject) {
			return fmt.Errorf("subject %q is within excluded subtree %q", subject.String(), ex.String())
		}
	}
	if len(nc.PermittedDirectoryNames) == 0 {
		return nil
	}
	for _, p := range nc.PermittedDirectoryNames {
		if rdnPrefix(p.ToRDNSequence(), subject) {
			return nil
		}
	}
	return fmt.Errorf("subject %q is outside the permitted subtrees", subject.String())
}
