// Package metrics exposes Prometheus instruments for the storage layer.
//
// Instruments register with prometheus.DefaultRegisterer. A long-running
// embedder serves them through its own /metrics handler; short-lived
// processes dump them with WriteText or WriteFile.
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// namePrefix selects the families this package owns when gathering.
const namePrefix = "listings_"

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultError    = "error"
)

var (
	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listings_store_operations_total",
		Help: "Count of store operations by table, operation and result",
	}, []string{"table", "operation", "result"})

	storeOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listings_store_operation_duration_seconds",
		Help:    "Duration of store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"table", "operation"})

	schemaMigrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listings_schema_migrations_total",
		Help: "Count of schema migration steps applied, including destructive resets",
	}, []string{"kind"})
)

// ObserveOperation records one store operation.
func ObserveOperation(table, operation, result string, d time.Duration) {
	storeOperations.WithLabelValues(table, operation, result).Inc()
	storeOperationDuration.WithLabelValues(table, operation).Observe(d.Seconds())
}

// IncMigration counts an applied schema step. kind is "additive" or "destructive".
func IncMigration(kind string) {
	schemaMigrations.WithLabelValues(kind).Inc()
}

// OperationCount returns the counter for the given labels.
func OperationCount(table, operation, result string) prometheus.Counter {
	return storeOperations.WithLabelValues(table, operation, result)
}

// WriteText gathers g and writes the listings families to w in the
// Prometheus text exposition format. Runtime and process families are skipped.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namePrefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the WriteText output to path atomically, in the form the
// node_exporter textfile collector reads.
func WriteFile(path string, g prometheus.Gatherer) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".metrics-*.prom")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteText(tmp, g); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming metrics file: %w", err)
	}
	return nil
}
