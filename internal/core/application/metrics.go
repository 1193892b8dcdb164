package application

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const metricsNamespace = "coinpay"

var (
	paymentPlansCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payment_plans_total",
			Help:      "Number of payment plans built, by kind.",
		},
		[]string{"kind"},
	)
	paymentFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payment_failures_total",
			Help:      "Number of payment plans that could not be built, by reason.",
		},
		[]string{"reason"},
	)
	planInputsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "payment_plan_input_coins",
			Help:      "Number of input coins of the payment plans built.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		},
	)
	lockedCoinsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "coin_locks_total",
			Help:      "Number of coins locked and unlocked.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		paymentPlansCounter, paymentFailuresCounter,
		planInputsHistogram, lockedCoinsCounter,
	)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, coin.ErrInsufficientGasFunds):
		return "insufficient_gas"
	case errors.Is(err, coin.ErrInsufficientTransferFunds):
		return "insufficient_funds"
	default:
		return "invalid_request"
	}
}
