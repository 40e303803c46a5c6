package x509util

import (
	"errors"
)

var (
	// A freshly issued certificate failed its post-issuance checks.
	ErrCertificateBuild = errors.New("certificate build failed")

	// Certificate or certification request bytes could not be parsed, or failed a validity check.
	ErrInvalidCertificate = errors.New("invalid certificate")
)
