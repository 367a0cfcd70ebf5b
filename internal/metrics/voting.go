package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tokenValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evote",
			Name:      "token_validations_total",
			Help:      "Token validations by result (valid/not_found/used/expired/error).",
		},
		[]string{"result"},
	)

	voteSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evote",
			Name:      "vote_submissions_total",
			Help:      "Vote submissions by result (accepted/rejected/error).",
		},
		[]string{"result"},
	)

	tokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "evote",
			Name:      "tokens_issued_total",
			Help:      "Tokens issued by admin API or CLI.",
		},
	)
)

func init() {
	register(tokenValidations, voteSubmissions, tokensIssued)
}

func IncTokenValidation(result string) {
	tokenValidations.WithLabelValues(result).Inc()
}

func IncVoteSubmission(result string) {
	voteSubmissions.WithLabelValues(result).Inc()
}

func AddTokensIssued(n int) {
	tokensIssued.Add(float64(n))
}
