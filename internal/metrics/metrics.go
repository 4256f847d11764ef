// Package metrics declares the Prometheus collectors exported by sqlitepdo.
// Collectors are package-level and unregistered; callers that expose an
// endpoint register them with Register.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metric names.
const (
	WALSizeMegabytesKey       = "sqlitepdo_wal_size_megabytes"
	WALCheckpointsTotalKey    = "sqlitepdo_wal_checkpoints_total"
	WALGuardianErrorsTotalKey = "sqlitepdo_wal_guardian_errors_total"
	StatementsTotalKey        = "sqlitepdo_statements_total"
	PrecisionUpgradesTotalKey = "sqlitepdo_precision_upgrades_total"
)

// Label values.
const (
	StatementReader    = "reader"
	StatementAffecting = "affecting"
	StatementFailed    = "failed"

	UpgradeBigInt  = "bigint"
	UpgradeDecimal = "decimal"
)

// Collectors for the WAL guardian, labelled by database path.
var (
	WALSizeMegabytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: WALSizeMegabytesKey,
		Help: "Last observed WAL file size in megabytes.",
	}, []string{"path"})
	WALCheckpointsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: WALCheckpointsTotalKey,
		Help: "Cumulative number of checkpoints triggered by the WAL guardian.",
	}, []string{"path"})
	WALGuardianErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: WALGuardianErrorsTotalKey,
		Help: "Cumulative number of failed WAL guardian ticks.",
	}, []string{"path"})
)

// Collectors for the statement pipeline.
var (
	StatementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: StatementsTotalKey,
		Help: "Cumulative number of executed statements by outcome.",
	}, []string{"outcome"})
	PrecisionUpgradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: PrecisionUpgradesTotalKey,
		Help: "Cumulative number of numeric cells returned as big integers or decimal text.",
	}, []string{"kind"})
)

// Collectors returns every sqlitepdo collector.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		WALSizeMegabytes,
		WALCheckpointsTotal,
		WALGuardianErrorsTotal,
		StatementsTotal,
		PrecisionUpgradesTotal,
	}
}

// Register registers every collector with r.
func Register(r prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
