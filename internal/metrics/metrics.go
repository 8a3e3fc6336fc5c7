// Package metrics exports encounter telemetry to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"riftcore/internal/arena"
	"riftcore/internal/combat"
)

const namespace = "riftcore"

// Collector turns the boss event stream and run results into metrics.
// It owns its registry so tests and embedders do not share global state.
type Collector struct {
	registry *prometheus.Registry

	events     *prometheus.CounterVec
	health     *prometheus.GaugeVec
	phase      *prometheus.GaugeVec
	punished   *prometheus.CounterVec
	runs       *prometheus.CounterVec
	runTicks   *prometheus.HistogramVec
	heroDamage *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boss_events_total",
			Help:      "Boss events by type.",
		}, []string{"boss", "type"}),
		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boss_health",
			Help:      "Boss health after the last damage event.",
		}, []string{"boss"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boss_phase",
			Help:      "Last phase entered by the boss.",
		}, []string{"boss"}),
		punished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engagement_punished_players_total",
			Help:      "Players hit by engagement punishment.",
		}, []string{"boss"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_runs_total",
			Help:      "Finished arena runs by outcome.",
		}, []string{"boss", "outcome"}),
		runTicks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "arena_run_ticks",
			Help:      "Length of arena runs in ticks.",
			Buckets:   prometheus.ExponentialBuckets(250, 2, 8),
		}, []string{"boss"}),
		heroDamage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hero_damage_total",
			Help:      "Damage landed on the boss by hero.",
		}, []string{"boss", "hero"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.events, c.health, c.phase, c.punished, c.runs, c.runTicks, c.heroDamage,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Observer returns an event callback labelled with boss. Safe for concurrent use.
func (c *Collector) Observer(boss string) func(combat.Event) {
	events := c.events.MustCurryWith(prometheus.Labels{"boss": boss})
	health := c.health.WithLabelValues(boss)
	phase := c.phase.WithLabelValues(boss)
	punished := c.punished.WithLabelValues(boss)
	return func(ev combat.Event) {
		events.WithLabelValues(ev.Type).Inc()
		switch ev.Type {
		case combat.EventDamageTaken, combat.EventChunkPayback:
			if h, ok := ev.Payload["health"].(float64); ok {
				health.Set(h)
			}
		case combat.EventPhaseEnter:
			if p, ok := ev.Payload["phase"].(int); ok {
				phase.Set(float64(p))
			}
		case combat.EventPunish:
			if ids, ok := ev.Payload["targets"].([]combat.EntityID); ok {
				punished.Add(float64(len(ids)))
			}
		}
	}
}

func (c *Collector) ObserveRun(res *arena.Result) {
	outcome := "loss"
	switch {
	case res.Win:
		outcome = "win"
	case res.HeroesAlive > 0:
		outcome = "timeout"
	}
	c.runs.WithLabelValues(res.Boss, outcome).Inc()
	c.runTicks.WithLabelValues(res.Boss).Observe(float64(res.Ticks))
	for hero, dmg := range res.DamageByHero {
		c.heroDamage.WithLabelValues(res.Boss, hero).Add(dmg)
	}
}
