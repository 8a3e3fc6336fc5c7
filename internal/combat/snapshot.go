package combat

import (
	"fmt"
	"math"
)

// Snapshot is the persisted state of a boss. Restoring it into a controller
// built from the same options and abilities reproduces the boss exactly.
type Snapshot struct {
	Boss            string                    `json:"boss"`
	Tick            int64                     `json:"tick"`
	Health          float64                   `json:"health"`
	MaxHealth       float64                   `json:"max_health"`
	Absorption      float64                   `json:"absorption"`
	Phase           Phase                     `json:"phase"`
	Dead            bool                      `json:"dead,omitempty"`
	Gate            GateSnapshot              `json:"gate"`
	Abilities       map[string]AbilityRuntime `json:"abilities"`
	Forced          []string                  `json:"forced,omitempty"`
	EngagementTicks int                       `json:"engagement_ticks"`
	PunishPending   bool                      `json:"punish_pending,omitempty"`
	ExhaustionTicks int                       `json:"exhaustion_ticks"`
}

func (bc *BossController) Snapshot() Snapshot {
	ss := bc.scheduler.snapshot()
	return Snapshot{
		Boss:            bc.name,
		Tick:            bc.tick,
		Health:          bc.health,
		MaxHealth:       bc.maxHealth,
		Absorption:      bc.absorption,
		Phase:           bc.phaser.Current(),
		Dead:            bc.dead,
		Gate:            bc.gate.snapshot(),
		Abilities:       ss.abilities,
		Forced:          ss.forced,
		EngagementTicks: bc.engagement.TicksWithoutSight(),
		PunishPending:   bc.punishPending,
		ExhaustionTicks: ss.exhaustTicks,
	}
}

// Restore replaces the controller state with s. On error the controller is unchanged.
func (bc *BossController) Restore(s Snapshot) error {
	if s.MaxHealth != 0 && s.MaxHealth != bc.maxHealth {
		return fmt.Errorf("%w: snapshot max health %v, boss has %v", ErrInvalidConfig, s.MaxHealth, bc.maxHealth)
	}
	if math.IsNaN(s.Health) || math.IsNaN(s.Absorption) {
		return fmt.Errorf("%w: NaN vitals in snapshot", ErrInvalidConfig)
	}
	if err := bc.scheduler.restore(schedulerSnapshot{
		abilities:    s.Abilities,
		exhaustTicks: s.ExhaustionTicks,
		forced:       s.Forced,
	}); err != nil {
		return err
	}
	bc.tick = s.Tick
	bc.health = math.Min(bc.maxHealth, math.Max(0, s.Health))
	bc.absorption = math.Max(0, s.Absorption)
	bc.phaser.restore(s.Phase)
	bc.gate.restore(s.Gate)
	bc.engagement.restore(s.EngagementTicks)
	bc.punishPending = s.PunishPending
	bc.dead = s.Dead || bc.health <= 0
	return nil
}
