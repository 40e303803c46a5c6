// Package crypto provides the signature schemes, keys and operations used by the ledger.
//
// Only a fixed catalog of algorithm/curve/hash combinations is supported; every key, signature and certificate produced or accepted by this package belongs to exactly one [SignatureScheme] from that catalog:
//
//   - RSA_SHA256: RSA PKCS#1 v1.5 over SHA-256, golang's stdlib
//   - ECDSA_SECP256K1_SHA256: K-256/secp256k1, internally implemented using https://gitlab.com/yawning/secp256k1-voi
//   - ECDSA_SECP256R1_SHA256: P-256/secp256r1, golang's stdlib
//   - EDDSA_ED25519_SHA512: Ed25519, golang's stdlib
//   - SPHINCS-256_SHA512: hash-based SLH-DSA-SHA2-256f, internally implemented using https://github.com/cloudflare/circl
//
// Keys are exchanged as PKCS#8 (private) and SubjectPublicKeyInfo (public) DER structures. The scheme of an encoded key is found from the algorithm identifier embedded in the encoding.
//
// ECDSA signatures are ASN.1 DER encoded. There is no "low-S" normalization.
//
// This package uses concrete types for private keys, meaning that the secret key material is present in memory.
package crypto
