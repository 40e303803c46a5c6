// Package x509util issues and checks the X.509 certificates and PKCS#10 requests of the ledger PKI.
//
// Certificates are built and parsed with cryptobyte rather than crypto/x509, because subject and issuer keys may use any scheme from the crypto package, including secp256k1 and SLH-DSA. The [CertificateType] of a certificate decides its basic constraints, key usage and extended key usage.
package x509util
