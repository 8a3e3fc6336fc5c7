package config

// BossConfig is one encounter definition, loaded from assets/bosses/<id>.yaml.
type BossConfig struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Note  string  `yaml:"note"`
	MaxHP float64 `yaml:"max_hp"`

	Gate       GateConfig       `yaml:"gate"`
	Phases     []PhaseConfig    `yaml:"phases"`
	Abilities  []AbilityConfig  `yaml:"abilities"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Exhaustion ExhaustionConfig `yaml:"exhaustion"`
	Engagement EngagementConfig `yaml:"engagement"`
	Threat     ThreatConfig     `yaml:"threat"`
}

type GateConfig struct {
	ChunkFraction float64 `yaml:"chunk_fraction"`
	MinDamage     float64 `yaml:"min_damage"`
}

// PhaseConfig describes one tier. The first entry is the opening tier and
// its threshold is ignored.
type PhaseConfig struct {
	Threshold     float64 `yaml:"threshold"`
	CooldownScale float64 `yaml:"cooldown_scale"`
	GateTicks     int     `yaml:"gate_ticks"`
	MinionCap     int     `yaml:"minion_cap"`
	Wave          string  `yaml:"wave"`
	Note          string  `yaml:"note"`
}

type AbilityConfig struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Class           string  `yaml:"class"`
	Cooldown        int     `yaml:"cooldown"`
	InitialCooldown int     `yaml:"initial_cooldown"`
	Windup          int     `yaml:"windup"`
	Resolve         int     `yaml:"resolve"`
	MinPhase        int     `yaml:"min_phase"`
	Range           float64 `yaml:"range"`
	Leash           float64 `yaml:"leash"`
	Group           string  `yaml:"group"`
	LocksMovement   bool    `yaml:"locks_movement"`
	Continuous      bool    `yaml:"continuous"`
	RequiresSight   bool    `yaml:"requires_sight"`
	Self            bool    `yaml:"self"`
	Exhausts        bool    `yaml:"exhausts"`
	// When is a script expression evaluated per candidate target.
	When   string       `yaml:"when"`
	Effect EffectConfig `yaml:"effect"`
	Note   string       `yaml:"note"`
}

// EffectConfig selects a built-in effect for an ability.
type EffectConfig struct {
	// Kind is one of strike, area, summon or none.
	Kind    string         `yaml:"kind"`
	Damage  float64        `yaml:"damage"`
	True    bool           `yaml:"true_damage"`
	Radius  float64        `yaml:"radius"`
	Count   int            `yaml:"count"`
	Debuffs []DebuffConfig `yaml:"debuffs"`
}

type DebuffConfig struct {
	Kind  string `yaml:"kind"`
	Ticks int    `yaml:"ticks"`
	Level int    `yaml:"level"`
}

type SchedulerConfig struct {
	MaxConcurrent  int     `yaml:"max_concurrent"`
	SearchRadius   float64 `yaml:"search_radius"`
	HoldWhileGated bool    `yaml:"hold_while_gated"`
	TargetPolicy   string  `yaml:"target_policy"`
}

type ExhaustionConfig struct {
	Ticks            int     `yaml:"ticks"`
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	Recovery         string  `yaml:"recovery"`
}

type EngagementConfig struct {
	Threshold   int            `yaml:"threshold"`
	TrackRadius float64        `yaml:"track_radius"`
	Radius      float64        `yaml:"radius"`
	Ratio       float64        `yaml:"ratio"`
	MinDamage   float64        `yaml:"min_damage"`
	Debuffs     []DebuffConfig `yaml:"debuffs"`
}

type ThreatConfig struct {
	DecayInterval int     `yaml:"decay_interval"`
	DecayFactor   float64 `yaml:"decay_factor"`
	Floor         float64 `yaml:"floor"`
}

// Ability returns the ability with the given id.
func (c *BossConfig) Ability(id string) (*AbilityConfig, bool) {
	for i := range c.Abilities {
		if c.Abilities[i].ID == id {
			return &c.Abilities[i], true
		}
	}
	return nil, false
}

// ApplyDefaults fills zero values that have a sensible non-zero default.
func (c *BossConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Gate.ChunkFraction == 0 {
		c.Gate.ChunkFraction = 0.05
	}
	if len(c.Phases) == 0 {
		c.Phases = []PhaseConfig{{}, {Threshold: 0.75}, {Threshold: 0.50}, {Threshold: 0.25}}
	}
	for i := range c.Phases {
		p := &c.Phases[i]
		if p.CooldownScale == 0 {
			p.CooldownScale = 1 - 0.1*float64(i)
		}
		if p.GateTicks == 0 {
			p.GateTicks = max(24, 40-4*i)
		}
	}
	if c.Scheduler.MaxConcurrent == 0 {
		c.Scheduler.MaxConcurrent = 2
	}
	if c.Scheduler.SearchRadius == 0 {
		c.Scheduler.SearchRadius = 32
	}
	if c.Scheduler.TargetPolicy == "" {
		c.Scheduler.TargetPolicy = "nearest"
	}
	if c.Exhaustion.DamageMultiplier == 0 {
		c.Exhaustion.DamageMultiplier = 1
	}
	if c.Engagement.Threshold > 0 {
		if c.Engagement.TrackRadius == 0 {
			c.Engagement.TrackRadius = 24
		}
		if c.Engagement.Radius == 0 {
			c.Engagement.Radius = c.Engagement.TrackRadius
		}
	}
	if c.Threat.DecayInterval == 0 {
		c.Threat.DecayInterval = 20
	}
	if c.Threat.DecayFactor == 0 {
		c.Threat.DecayFactor = 0.95
	}
	if c.Threat.Floor == 0 {
		c.Threat.Floor = 1
	}
	for i := range c.Abilities {
		if c.Abilities[i].Effect.Kind == "" {
			c.Abilities[i].Effect.Kind = "none"
		}
	}
}
