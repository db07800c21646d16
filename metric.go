package zns

import (
	"github.com/everFinance/zns/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "zns"
)

var (
	workflowOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "workflow_outcome_total",
			Help:      "terminal workflow outcomes by action and error kind",
		},
		[]string{"action", "kind"},
	)

	confirmSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricNameSpace,
			Name:      "confirm_seconds",
			Help:      "time from submission to terminal receipt",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"purpose", "status"},
	)

	tokenBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "account_balance",
			Help:      "balance of the connected account",
		},
		[]string{"account", "token"},
	)
)

func init() {
	prometheus.MustRegister(
		workflowOutcome,
		confirmSeconds,
		tokenBalance,
	)
}

func metricOutcome(o *schema.Outcome) {
	kind := "success"
	if o.Err != nil {
		kind = schema.KindOf(o.Err)
	}
	workflowOutcome.WithLabelValues(string(o.Action), kind).Inc()
}

func metricConfirm(purpose schema.TxPurpose, status schema.TxStatus, seconds float64) {
	confirmSeconds.WithLabelValues(string(purpose), string(status)).Observe(seconds)
}

func metricBalance(account, symbol string, amount float64) {
	tokenBalance.WithLabelValues(account, symbol).Set(amount)
}
