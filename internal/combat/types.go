package combat

// Event is a structured record of something the boss did. Hosts collect
// these for logs, replays and metrics.
type Event struct {
	Tick    int64          `json:"tick"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Event types emitted by the controller.
const (
	EventGateOpen        = "GateOpen"
	EventGateBlock       = "GateBlock"
	EventGateChip        = "GateChip"
	EventGateClose       = "GateClose"
	EventChunkPayback    = "ChunkPayback"
	EventDamageTaken     = "DamageTaken"
	EventPhaseEnter      = "PhaseEnter"
	EventAbilityWindup   = "AbilityWindup"
	EventAbilityResolve  = "AbilityResolve"
	EventAbilityPulse    = "AbilityPulse"
	EventAbilityFizzle   = "AbilityFizzle"
	EventAbilityComplete = "AbilityComplete"
	EventExhaustStart    = "ExhaustStart"
	EventExhaustEnd      = "ExhaustEnd"
	EventPunish          = "Punish"
	EventDeath           = "Death"
	EventInvariant       = "InvariantRepair"
)

// Feedback telegraph ids played on rejection paths so a player can tell why
// an action had no effect.
const (
	FeedbackGateOpen    = "gate_open"
	FeedbackGateBlock   = "gate_block"
	FeedbackGateChip    = "gate_chip"
	FeedbackPayback     = "chunk_payback"
	FeedbackFizzle      = "ability_fizzle"
	FeedbackExhausted   = "exhausted"
	FeedbackRecovered   = "recovered"
	FeedbackPunishment  = "engagement_punish"
	FeedbackPhaseChange = "phase_change"
)

// EntityID is a weak reference to an entity owned by the host. Zero is "none".
type EntityID uint32

// EntityKind filters spatial queries.
type EntityKind int

const (
	KindPlayer EntityKind = iota
	KindMinion
)

// DamageKind tags damage flowing into or out of the core.
type DamageKind int

const (
	DamagePhysical DamageKind = iota
	DamageTrue
	// DamageTrusted bypasses the damage gate. Used for chunk replay and other
	// system-internal damage.
	DamageTrusted
)

func (k DamageKind) String() string {
	switch k {
	case DamagePhysical:
		return "physical"
	case DamageTrue:
		return "true"
	case DamageTrusted:
		return "trusted"
	}
	return "unknown"
}

// DamageSource describes where incoming damage came from.
type DamageSource struct {
	Kind     DamageKind
	Attacker EntityID
}

// Trusted reports whether the source is exempt from gating.
func (s DamageSource) Trusted() bool { return s.Kind == DamageTrusted }

// DebuffKind names a status effect applied to a target.
type DebuffKind string

const (
	DebuffSlowness      DebuffKind = "slowness"
	DebuffMiningFatigue DebuffKind = "mining_fatigue"
	DebuffWeakness      DebuffKind = "weakness"
	DebuffLevitation    DebuffKind = "levitation"
	DebuffWither        DebuffKind = "wither"
)

// WorldQuery answers read-only spatial questions about the host world.
type WorldQuery interface {
	HasLineOfSight(from, to EntityID) bool
	EntitiesInRadius(center EntityID, radius float64, kind EntityKind) []EntityID
	DistanceSquared(a, b EntityID) float64
	Alive(id EntityID) bool
	MaxHealth(id EntityID) float64
}

// TargetSink receives one-way effect requests aimed at other entities.
type TargetSink interface {
	ApplyDamage(target EntityID, amount float64, kind DamageKind)
	ApplyDebuff(target EntityID, kind DebuffKind, durationTicks int, magnitude int)
}

// EffectSink plays cosmetic feedback. Best effort; the core never waits on it.
type EffectSink interface {
	PlayTelegraph(abilityID string, at EntityID)
}

// Host bundles the collaborators a controller talks to.
type Host struct {
	World   WorldQuery
	Targets TargetSink
	Effects EffectSink
}
