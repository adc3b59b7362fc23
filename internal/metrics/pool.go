package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// PoolCollector exports connection pool statistics for the canvas database.
// Stats are read during each scrape.
type PoolCollector struct {
	pool PoolStatter
	name string

	acquireCount    *prometheus.Desc
	acquireDuration *prometheus.Desc
	acquiredConns   *prometheus.Desc
	emptyAcquires   *prometheus.Desc
	idleConns       *prometheus.Desc
	maxConns        *prometheus.Desc
	totalConns      *prometheus.Desc
}

func poolDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "db_pool", name), help, []string{"pool"}, nil)
}

// NewPoolCollector creates a collector for pool, labeled with name. A nil
// pool produces no samples.
func NewPoolCollector(name string, pool PoolStatter) *PoolCollector {
	return &PoolCollector{
		pool:            pool,
		name:            name,
		acquireCount:    poolDesc("acquires_total", "Cumulative count of successful connection acquires."),
		acquireDuration: poolDesc("acquire_seconds_total", "Cumulative time spent acquiring connections."),
		acquiredConns:   poolDesc("acquired_conns", "Connections currently checked out."),
		emptyAcquires:   poolDesc("empty_acquires_total", "Acquires that had to wait for a connection."),
		idleConns:       poolDesc("idle_conns", "Idle connections in the pool."),
		maxConns:        poolDesc("max_conns", "Configured connection ceiling."),
		totalConns:      poolDesc("total_conns", "Open connections in the pool."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.acquiredConns
	ch <- c.emptyAcquires
	ch <- c.idleConns
	ch <- c.maxConns
	ch <- c.totalConns
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	if stat == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stat.AcquireCount()), c.name)
	ch <- prometheus.MustNewConstMetric(c.acquireDuration, prometheus.CounterValue, stat.AcquireDuration().Seconds(), c.name)
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()), c.name)
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, prometheus.CounterValue, float64(stat.EmptyAcquireCount()), c.name)
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stat.IdleConns()), c.name)
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()), c.name)
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stat.TotalConns()), c.name)
}
