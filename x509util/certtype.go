package x509util

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"strings"
)

// Extended key usage purposes
var (
	OIDExtKeyUsageAny        = asn1.ObjectIdentifier{2, 5, 29, 37, 0}
	OIDExtKeyUsageServerAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}
	OIDExtKeyUsageClientAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 2}
)

var defaultExtKeyUsages = []asn1.ObjectIdentifier{OIDExtKeyUsageServerAuth, OIDExtKeyUsageClientAuth, OIDExtKeyUsageAny}

// Purpose of a certificate in the network's PKI hierarchy. Determines the basic constraints, key usage and extended key usage extensions.
type CertificateType int

const (
	RootCA CertificateType = iota + 1
	IntermediateCA
	NetworkMap
	ServiceIdentity
	NodeCA
	TLS
	LegalIdentity
	ConfidentialLegalIdentity
)

var certificateTypeNames = map[CertificateType]string{
	RootCA:                    "ROOT_CA",
	IntermediateCA:            "INTERMEDIATE_CA",
	NetworkMap:                "NETWORK_MAP",
	ServiceIdentity:           "SERVICE_IDENTITY",
	NodeCA:                    "NODE_CA",
	TLS:                       "TLS",
	LegalIdentity:             "LEGAL_IDENTITY",
	ConfidentialLegalIdentity: "CONFIDENTIAL_LEGAL_IDENTITY",
}

func (ct CertificateType) String() string {
	if name, ok := certificateTypeNames[ct]; ok {
		return name
	}
	return fmt.Sprintf("CertificateType(%d)", int(ct))
}

// Parses a name as printed by [CertificateType.String], case-insensitively.
func ParseCertificateType(name string) (CertificateType, error) {
	for ct, n := range certificateTypeNames {
		if strings.EqualFold(n, name) {
			return ct, nil
		}
	}
	return 0, fmt.Errorf("unknown certificate type: %q", name)
}

func (ct CertificateType) valid() bool {
	_, ok := certificateTypeNames[ct]
	return ok
}

// Whether the basic constraints CA flag is set.
func (ct CertificateType) IsCA() bool {
	switch ct {
	case RootCA, IntermediateCA, NodeCA, LegalIdentity:
		return true
	default:
		return false
	}
}

func (ct CertificateType) KeyUsage() x509.KeyUsage {
	switch ct {
	case RootCA, IntermediateCA, NodeCA, LegalIdentity:
		return x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	case TLS:
		return x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageKeyAgreement
	default:
		return x509.KeyUsageDigitalSignature
	}
}

// Purpose OIDs for the extended key usage extension. Returns a copy.
func (ct CertificateType) ExtKeyUsages() []asn1.ObjectIdentifier {
	out := make([]asn1.ObjectIdentifier, len(defaultExtKeyUsages))
	copy(out, defaultExtKeyUsages)
	return out
}
