package combat

import (
	"fmt"
	"strings"
)

// AbilityClass orders selection. Lower classes are considered first.
type AbilityClass int

const (
	ClassMelee AbilityClass = iota
	ClassShortRange
	ClassLongRange
	ClassSummon
)

func (c AbilityClass) String() string {
	switch c {
	case ClassMelee:
		return "melee"
	case ClassShortRange:
		return "short_range"
	case ClassLongRange:
		return "long_range"
	case ClassSummon:
		return "summon"
	}
	return "unknown"
}

func ParseAbilityClass(s string) (AbilityClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "melee":
		return ClassMelee, nil
	case "short_range", "short":
		return ClassShortRange, nil
	case "long_range", "long":
		return ClassLongRange, nil
	case "summon":
		return ClassSummon, nil
	}
	return 0, fmt.Errorf("unknown ability class %q", s)
}

type LifecycleState int

const (
	StateIdle LifecycleState = iota
	StateWindup
	StateResolving
)

func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWindup:
		return "windup"
	case StateResolving:
		return "resolving"
	}
	return "unknown"
}

// PreconditionInput is what a precondition sees for one candidate target.
type PreconditionInput struct {
	DistanceSq      float64
	Visible         bool
	Phase           Phase
	ActiveAbilities int
	MinionsAlive    int
	MinionCap       int
	Threat          float64
}

type Precondition func(in PreconditionInput) bool

// ResolveContext is handed to an ability effect at its boundary or on each pulse.
type ResolveContext struct {
	Ability *AbilityDescriptor
	Tick    int64
	Boss    EntityID
	Target  EntityID
	Phase   Phase
	// Pulse counts continuous pulses from 0. Always 0 for one-shot effects.
	Pulse int
	Host  Host
}

type EffectFunc func(rc ResolveContext)

// AbilityDescriptor is immutable once registered.
type AbilityDescriptor struct {
	ID                   string
	Class                AbilityClass
	BaseCooldownTicks    int
	InitialCooldownTicks int
	WindupTicks          int
	ResolveTicks         int
	MinPhase             Phase

	// Range bounds target selection (distance, not squared). Zero means unbounded.
	Range float64
	// LeashRange bounds an active target; defaults to Range.
	LeashRange float64
	Group      string

	LocksMovement      bool
	Continuous         bool
	RequiresSight      bool
	SelfTargeted       bool
	TriggersExhaustion bool

	Precondition Precondition
	Effect       EffectFunc
}

func (d *AbilityDescriptor) leash() float64 {
	if d.LeashRange > 0 {
		return d.LeashRange
	}
	return d.Range
}

func (d *AbilityDescriptor) inRange(distSq float64) bool {
	return d.Range <= 0 || distSq <= d.Range*d.Range
}

func (d *AbilityDescriptor) conflictsWith(o *AbilityDescriptor) bool {
	if d.Group != "" && d.Group == o.Group {
		return true
	}
	return d.LocksMovement && o.LocksMovement
}

func (d *AbilityDescriptor) validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: ability without id", ErrInvalidConfig)
	}
	if d.BaseCooldownTicks < 0 || d.WindupTicks < 0 || d.ResolveTicks < 0 || d.InitialCooldownTicks < 0 {
		return fmt.Errorf("%w: ability %s: negative tick count", ErrInvalidConfig, d.ID)
	}
	if d.MinPhase < Phase0 || d.MinPhase > MaxPhase {
		return fmt.Errorf("%w: ability %s: min phase %d out of range", ErrInvalidConfig, d.ID, d.MinPhase)
	}
	if d.Range < 0 || d.LeashRange < 0 {
		return fmt.Errorf("%w: ability %s: negative range", ErrInvalidConfig, d.ID)
	}
	return nil
}

// AbilityRuntime is the mutable half of an ability.
type AbilityRuntime struct {
	CooldownRemaining int            `json:"cooldown_remaining"`
	State             LifecycleState `json:"state"`
	TicksRemaining    int            `json:"ticks_remaining"`
	Target            EntityID       `json:"target,omitempty"`
	Pulses            int            `json:"pulses,omitempty"`
}

func (r AbilityRuntime) Active() bool { return r.State != StateIdle }
