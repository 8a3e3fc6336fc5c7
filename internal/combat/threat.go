package combat

import "sort"

type ThreatConfig struct {
	DecayInterval int
	DecayFactor   float64
	// Entries below Floor are dropped after decay.
	Floor float64
}

func DefaultThreatConfig() ThreatConfig {
	return ThreatConfig{DecayInterval: 20, DecayFactor: 0.95, Floor: 1}
}

// ThreatTable accumulates damage dealt to the boss per attacker.
type ThreatTable struct {
	cfg    ThreatConfig
	values map[EntityID]float64
	timer  int
}

func NewThreatTable(cfg ThreatConfig) *ThreatTable {
	return &ThreatTable{cfg: cfg, values: map[EntityID]float64{}}
}

func (t *ThreatTable) Add(id EntityID, amount float64) {
	if id == 0 || amount <= 0 {
		return
	}
	t.values[id] += amount
}

func (t *ThreatTable) Threat(id EntityID) float64 { return t.values[id] }

func (t *ThreatTable) Len() int { return len(t.values) }

func (t *ThreatTable) Tick() {
	if t.cfg.DecayInterval <= 0 {
		return
	}
	t.timer++
	if t.timer < t.cfg.DecayInterval {
		return
	}
	t.timer = 0
	for id, v := range t.values {
		v *= t.cfg.DecayFactor
		if v < t.cfg.Floor {
			delete(t.values, id)
			continue
		}
		t.values[id] = v
	}
}

// Forget drops an entity, e.g. on death.
func (t *ThreatTable) Forget(id EntityID) { delete(t.values, id) }

// Ranked returns attackers by descending threat, ties by id.
func (t *ThreatTable) Ranked() []EntityID {
	ids := make([]EntityID, 0, len(t.values))
	for id := range t.values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.values[ids[i]], t.values[ids[j]]
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})
	return ids
}
