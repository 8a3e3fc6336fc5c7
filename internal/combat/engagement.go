package combat

import "math"

type DebuffSpec struct {
	Kind          DebuffKind
	DurationTicks int
	Magnitude     int
}

type PunishmentConfig struct {
	Radius float64
	// Damage is max(MinDamage, Ratio * target max health), dealt as true damage.
	Ratio     float64
	MinDamage float64
	Debuffs   []DebuffSpec
}

func (p PunishmentConfig) damageFor(targetMax float64) float64 {
	return math.Max(p.MinDamage, p.Ratio*targetMax)
}

type EngagementConfig struct {
	// ThresholdTicks of no line of sight fires a punishment. Zero disables the monitor.
	ThresholdTicks int
	// TrackRadius bounds which players count as engaged.
	TrackRadius float64
	Punishment  PunishmentConfig
}

func DefaultEngagementConfig() EngagementConfig {
	return EngagementConfig{
		ThresholdTicks: 60,
		TrackRadius:    24,
		Punishment: PunishmentConfig{
			Radius:    24,
			Ratio:     0.06,
			MinDamage: 2,
			Debuffs: []DebuffSpec{
				{Kind: DebuffMiningFatigue, DurationTicks: 60, Magnitude: 2},
				{Kind: DebuffSlowness, DurationTicks: 60, Magnitude: 1},
			},
		},
	}
}

// EngagementMonitor counts ticks without line of sight to any tracked target.
type EngagementMonitor struct {
	threshold int
	ticks     int
}

func NewEngagementMonitor(threshold int) EngagementMonitor {
	return EngagementMonitor{threshold: threshold}
}

// Tick returns true exactly once per threshold crossing, then re-arms.
func (m *EngagementMonitor) Tick(hasLineOfSight bool) bool {
	if m.threshold <= 0 {
		return false
	}
	if hasLineOfSight {
		m.ticks = 0
		return false
	}
	m.ticks++
	if m.ticks < m.threshold {
		return false
	}
	m.ticks = 0
	return true
}

func (m EngagementMonitor) TicksWithoutSight() int { return m.ticks }

func (m EngagementMonitor) Threshold() int { return m.threshold }

func (m *EngagementMonitor) restore(ticks int) {
	m.ticks = min(max(0, ticks), max(0, m.threshold-1))
}
