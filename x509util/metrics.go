package x509util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var certificatesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgercrypto_x509_certificates_issued_total",
	Help: "Number of certificates signed, by certificate type",
}, []string{"type"})

var csrsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgercrypto_x509_csrs_created_total",
	Help: "Number of certification requests created, by scheme",
}, []string{"scheme"})
