package grouping

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine-level metric collectors. These complement whatever
// the embedding application already exports with grouping-specific state that
// only the engine can know about. A nil *Metrics disables collection.
type Metrics struct {
	groupsLive  prometheus.Gauge
	rebuilds    prometheus.Counter
	relocations prometheus.Counter
	created     prometheus.Counter
	destroyed   prometheus.Counter
}

// NewMetrics creates the engine metric collectors and registers them with the
// given registerer (pass nil to skip registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		groupsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livegroup_groups_live",
			Help: "Number of groups currently reachable from the grouped content.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livegroup_rebuilds_total",
			Help: "Number of full partition rebuilds.",
		}),
		relocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livegroup_member_relocations_total",
			Help: "Number of members relocated between groups due to key-field changes.",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livegroup_groups_created_total",
			Help: "Number of groups created by incremental maintenance.",
		}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livegroup_groups_destroyed_total",
			Help: "Number of groups destroyed after emptying.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.groupsLive, m.rebuilds, m.relocations, m.created, m.destroyed)
	}

	return m
}

func (m *Metrics) setGroupsLive(n int) {
	if m == nil {
		return
	}
	m.groupsLive.Set(float64(n))
}

func (m *Metrics) incRebuilds() {
	if m == nil {
		return
	}
	m.rebuilds.Inc()
}

func (m *Metrics) incRelocations() {
	if m == nil {
		return
	}
	m.relocations.Inc()
}

func (m *Metrics) incCreated(n int) {
	if m == nil {
		return
	}
	m.created.Add(float64(n))
}

func (m *Metrics) incDestroyed(n int) {
	if m == nil {
		return
	}
	m.destroyed.Add(float64(n))
}
