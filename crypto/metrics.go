package crypto

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var keyPairsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgercrypto_key_pairs_generated_total",
	Help: "The total number of key pairs generated",
}, []string{"scheme"})

var signaturesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgercrypto_signatures_created_total",
	Help: "The total number of signatures created",
}, []string{"scheme"})

var verifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgercrypto_verifications_total",
	Help: "The results of signature verifications",
}, []string{"scheme", "result"})

var derivationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgercrypto_derivation_rejections_total",
	Help: "Candidate scalars rejected during deterministic key derivation",
}, []string{"curve", "reason"})
