package x509util

import (
	"encoding/pem"
	"fmt"
	"os"
)

const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypeRequest     = "CERTIFICATE REQUEST"
)

func EncodeCertificatePEM(certs ...*Certificate) []byte {
	var out []byte
	for _, c := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: c.Raw})...)
	}
	return out
}

// Parses every CERTIFICATE block in data, in order. Other block types are skipped.
func DecodeCertificatesPEM(data []byte) ([]*Certificate, error) {
	var certs []*Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != pemTypeCertificate {
			continue
		}
		cert, err := ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, invalidCertificate("no %s block found", pemTypeCertificate)
	}
	return certs, nil
}

func EncodeCertificateRequestPEM(csr *CertificateRequest) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeRequest, Bytes: csr.Raw})
}

func DecodeCertificateRequestPEM(data []byte) (*CertificateRequest, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, invalidCertificate("no %s block found", pemTypeRequest)
		}
		if block.Type == pemTypeRequest {
			return ParseCertificateRequest(block.Bytes)
		}
	}
}

// Writes certs to path as concatenated PEM blocks.
func SaveCertificatesPEM(path string, certs ...*Certificate) error {
	if err := os.WriteFile(path, EncodeCertificatePEM(certs...), 0644); err != nil {
		return fmt.Errorf("writing certificates: %w", err)
	}
	return nil
}

func LoadCertificatesPEM(path string) ([]*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading certificates: %w", err)
	}
	return DecodeCertificatesPEM(data)
}
