package combat

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type TargetPolicy int

const (
	TargetNearest TargetPolicy = iota
	// TargetThreat prefers the highest-threat attacker, nearest first on ties.
	TargetThreat
)

func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return TargetNearest, nil
	case "threat":
		return TargetThreat, nil
	}
	return 0, fmt.Errorf("unknown target policy %q", s)
}

type ExhaustionConfig struct {
	DurationTicks    int
	DamageMultiplier float64
	// RecoveryAbility is forced when the window ends.
	RecoveryAbility string
}

type SchedulerConfig struct {
	MaxConcurrent int
	// SearchRadius bounds target search for abilities without a Range.
	SearchRadius   float64
	HoldWhileGated bool
	TargetPolicy   TargetPolicy
	Exhaustion     ExhaustionConfig
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrent: 2,
		SearchRadius:  32,
		Exhaustion: ExhaustionConfig{
			DurationTicks:    400,
			DamageMultiplier: 2,
		},
	}
}

type abilitySlot struct {
	desc AbilityDescriptor
	rt   AbilityRuntime
}

// AbilityScheduler owns every registered ability of one boss and decides
// which one runs next.
type AbilityScheduler struct {
	cfg          SchedulerConfig
	slots        []*abilitySlot
	byID         map[string]*abilitySlot
	forced       []string
	exhaustTicks int
}

// schedEnv carries the per-tick view the controller hands to the scheduler.
type schedEnv struct {
	tick         int64
	boss         EntityID
	phase        Phase
	tuning       PhaseTuning
	gated        bool
	host         Host
	emit         func(Event)
	log          logrus.FieldLogger
	threat       *ThreatTable
	minionsAlive int
}

type schedOutcome struct {
	exhaustStarted bool
	exhaustEnded   bool
}

func NewAbilityScheduler(cfg SchedulerConfig, abilities []AbilityDescriptor) (*AbilityScheduler, error) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Exhaustion.DamageMultiplier <= 0 {
		cfg.Exhaustion.DamageMultiplier = 1
	}
	s := &AbilityScheduler{cfg: cfg, byID: map[string]*abilitySlot{}}
	for _, d := range abilities {
		if err := s.Register(d); err != nil {
			return nil, err
		}
	}
	if r := cfg.Exhaustion.RecoveryAbility; r != "" {
		if _, ok := s.byID[r]; !ok {
			return nil, fmt.Errorf("recovery ability %s: %w", r, ErrUnknownAbility)
		}
	}
	return s, nil
}

// Register adds an ability. Selection order is by class, then registration order.
func (s *AbilityScheduler) Register(d AbilityDescriptor) error {
	if err := d.validate(); err != nil {
		return err
	}
	if _, dup := s.byID[d.ID]; dup {
		return fmt.Errorf("%w: duplicate ability %s", ErrInvalidConfig, d.ID)
	}
	sl := &abilitySlot{desc: d, rt: AbilityRuntime{CooldownRemaining: d.InitialCooldownTicks}}
	s.byID[d.ID] = sl
	s.slots = append(s.slots, sl)
	sort.SliceStable(s.slots, func(i, j int) bool {
		return s.slots[i].desc.Class < s.slots[j].desc.Class
	})
	return nil
}

// Abilities returns ability ids in selection order.
func (s *AbilityScheduler) Abilities() []string {
	out := make([]string, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.desc.ID
	}
	return out
}

func (s *AbilityScheduler) Descriptor(id string) (AbilityDescriptor, bool) {
	sl, ok := s.byID[id]
	if !ok {
		return AbilityDescriptor{}, false
	}
	return sl.desc, true
}

func (s *AbilityScheduler) Runtime(id string) (AbilityRuntime, bool) {
	sl, ok := s.byID[id]
	if !ok {
		return AbilityRuntime{}, false
	}
	return sl.rt, true
}

func (s *AbilityScheduler) ActiveCount() int {
	n := 0
	for _, sl := range s.slots {
		if sl.rt.Active() {
			n++
		}
	}
	return n
}

func (s *AbilityScheduler) Exhausted() bool { return s.exhaustTicks > 0 }

func (s *AbilityScheduler) ExhaustionRemaining() int { return s.exhaustTicks }

func (s *AbilityScheduler) DamageMultiplier() float64 { return s.cfg.Exhaustion.DamageMultiplier }

func (s *AbilityScheduler) IsMovementLocked() bool {
	if s.exhaustTicks > 0 {
		return true
	}
	for _, sl := range s.slots {
		if sl.rt.Active() && sl.desc.LocksMovement {
			return true
		}
	}
	return false
}

// ForceActivate queues an ability to start outside the normal cadence. It
// skips cooldown, phase and precondition checks but still waits for
// conflicting abilities and for exhaustion to end.
func (s *AbilityScheduler) ForceActivate(id string) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("force %s: %w", id, ErrUnknownAbility)
	}
	s.forced = append(s.forced, id)
	return nil
}

func (s *AbilityScheduler) tick(env *schedEnv) schedOutcome {
	var out schedOutcome
	for _, sl := range s.slots {
		if sl.rt.CooldownRemaining > 0 {
			sl.rt.CooldownRemaining--
		}
	}

	if s.exhaustTicks > 0 {
		s.exhaustTicks--
		if s.exhaustTicks > 0 {
			return out
		}
		out.exhaustEnded = true
		s.endExhaustion(env)
	}

	if !s.runForced(env) && !(env.gated && s.cfg.HoldWhileGated) {
		s.selectNext(env)
	}
	out.exhaustStarted = s.advance(env)
	return out
}

func (s *AbilityScheduler) conflicts(sl *abilitySlot) bool {
	for _, other := range s.slots {
		if other == sl || !other.rt.Active() {
			continue
		}
		if sl.desc.conflictsWith(&other.desc) {
			return true
		}
	}
	return false
}

func (s *AbilityScheduler) selectNext(env *schedEnv) {
	active := s.ActiveCount()
	if active >= s.cfg.MaxConcurrent {
		return
	}
	for _, sl := range s.slots {
		if sl.rt.Active() || sl.rt.CooldownRemaining > 0 || sl.desc.MinPhase > env.phase {
			continue
		}
		if s.conflicts(sl) {
			continue
		}
		target, ok := s.pickTarget(sl, env, active)
		if !ok {
			continue
		}
		s.activate(sl, target, env, false)
		return
	}
}

func (s *AbilityScheduler) input(env *schedEnv, active int) PreconditionInput {
	return PreconditionInput{
		Phase:           env.phase,
		ActiveAbilities: active,
		MinionsAlive:    env.minionsAlive,
		MinionCap:       env.tuning.MinionCap,
	}
}

type candidate struct {
	id     EntityID
	distSq float64
	threat float64
}

func (s *AbilityScheduler) candidates(sl *abilitySlot, env *schedEnv) []candidate {
	w := env.host.World
	if w == nil {
		return nil
	}
	radius := sl.desc.Range
	if radius <= 0 {
		radius = s.cfg.SearchRadius
	}
	var out []candidate
	for _, id := range w.EntitiesInRadius(env.boss, radius, KindPlayer) {
		if id == 0 || id == env.boss || !w.Alive(id) {
			continue
		}
		c := candidate{id: id, distSq: w.DistanceSquared(env.boss, id)}
		if env.threat != nil {
			c.threat = env.threat.Threat(id)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if s.cfg.TargetPolicy == TargetThreat && out[i].threat != out[j].threat {
			return out[i].threat > out[j].threat
		}
		if out[i].distSq != out[j].distSq {
			return out[i].distSq < out[j].distSq
		}
		return out[i].id < out[j].id
	})
	return out
}

func (s *AbilityScheduler) pickTarget(sl *abilitySlot, env *schedEnv, active int) (EntityID, bool) {
	in := s.input(env, active)
	if sl.desc.SelfTargeted {
		in.Visible = true
		if sl.desc.Precondition != nil && !sl.desc.Precondition(in) {
			return 0, false
		}
		return env.boss, true
	}
	for _, c := range s.candidates(sl, env) {
		if !sl.desc.inRange(c.distSq) {
			continue
		}
		in.DistanceSq = c.distSq
		in.Threat = c.threat
		in.Visible = env.host.World.HasLineOfSight(env.boss, c.id)
		if sl.desc.Precondition != nil && !sl.desc.Precondition(in) {
			continue
		}
		return c.id, true
	}
	return 0, false
}

func (s *AbilityScheduler) runForced(env *schedEnv) bool {
	if len(s.forced) == 0 {
		return false
	}
	activated := false
	keep := s.forced[:0]
	for _, id := range s.forced {
		sl := s.byID[id]
		if activated || sl.rt.Active() || s.conflicts(sl) {
			keep = append(keep, id)
			continue
		}
		target := env.boss
		if !sl.desc.SelfTargeted {
			cs := s.candidates(sl, env)
			if len(cs) == 0 || !sl.desc.inRange(cs[0].distSq) {
				env.log.WithField("ability", id).Debug("forced ability dropped: no target")
				continue
			}
			target = cs[0].id
		}
		s.activate(sl, target, env, true)
		activated = true
	}
	s.forced = keep
	return activated
}

func (s *AbilityScheduler) activate(sl *abilitySlot, target EntityID, env *schedEnv, forced bool) {
	sl.rt.State = StateWindup
	sl.rt.TicksRemaining = sl.desc.WindupTicks
	sl.rt.Target = target
	sl.rt.Pulses = 0
	env.emit(Event{Tick: env.tick, Type: EventAbilityWindup, Payload: map[string]any{
		"ability": sl.desc.ID,
		"class":   sl.desc.Class.String(),
		"target":  target,
		"forced":  forced,
	}})
	telegraph(env.host, sl.desc.ID, target)
}

func (s *AbilityScheduler) targetValid(sl *abilitySlot, env *schedEnv) bool {
	if sl.desc.SelfTargeted {
		return true
	}
	w := env.host.World
	if w == nil || !w.Alive(sl.rt.Target) {
		return false
	}
	leash := sl.desc.leash()
	return leash <= 0 || w.DistanceSquared(env.boss, sl.rt.Target) <= leash*leash
}

// advance steps every active ability. Returns true if exhaustion began.
func (s *AbilityScheduler) advance(env *schedEnv) bool {
	for _, sl := range s.slots {
		switch sl.rt.State {
		case StateWindup:
			if !s.targetValid(sl, env) {
				s.fizzle(sl, env, "target_lost")
				continue
			}
			sl.rt.TicksRemaining--
			if sl.rt.TicksRemaining > 0 {
				continue
			}
			if sl.desc.RequiresSight && !sl.desc.SelfTargeted && !env.host.World.HasLineOfSight(env.boss, sl.rt.Target) {
				s.fizzle(sl, env, "no_sight")
				continue
			}
			if s.enterResolving(sl, env) {
				return true
			}
		case StateResolving:
			if !s.targetValid(sl, env) {
				s.fizzle(sl, env, "target_lost")
				continue
			}
			if sl.desc.Continuous {
				s.pulse(sl, env)
			}
			sl.rt.TicksRemaining--
			if sl.rt.TicksRemaining <= 0 && s.complete(sl, env) {
				return true
			}
		}
	}
	return false
}

func (s *AbilityScheduler) context(sl *abilitySlot, env *schedEnv) ResolveContext {
	return ResolveContext{
		Ability: &sl.desc,
		Tick:    env.tick,
		Boss:    env.boss,
		Target:  sl.rt.Target,
		Phase:   env.phase,
		Pulse:   sl.rt.Pulses,
		Host:    env.host,
	}
}

func (s *AbilityScheduler) enterResolving(sl *abilitySlot, env *schedEnv) bool {
	sl.rt.State = StateResolving
	sl.rt.TicksRemaining = sl.desc.ResolveTicks
	env.emit(Event{Tick: env.tick, Type: EventAbilityResolve, Payload: map[string]any{
		"ability": sl.desc.ID,
		"target":  sl.rt.Target,
	}})
	if !sl.desc.Continuous && sl.desc.Effect != nil {
		sl.desc.Effect(s.context(sl, env))
	}
	if sl.rt.TicksRemaining <= 0 {
		return s.complete(sl, env)
	}
	return false
}

func (s *AbilityScheduler) pulse(sl *abilitySlot, env *schedEnv) {
	if sl.desc.Effect != nil {
		sl.desc.Effect(s.context(sl, env))
	}
	env.emit(Event{Tick: env.tick, Type: EventAbilityPulse, Payload: map[string]any{
		"ability": sl.desc.ID,
		"target":  sl.rt.Target,
		"pulse":   sl.rt.Pulses,
	}})
	sl.rt.Pulses++
}

func scaledCooldown(base int, scale float64) int {
	if scale <= 0 {
		scale = 1
	}
	return max(0, int(math.Round(float64(base)*scale)))
}

func (s *AbilityScheduler) idle(sl *abilitySlot, env *schedEnv) {
	sl.rt.State = StateIdle
	sl.rt.TicksRemaining = 0
	sl.rt.Target = 0
	sl.rt.Pulses = 0
	sl.rt.CooldownRemaining = scaledCooldown(sl.desc.BaseCooldownTicks, env.tuning.CooldownScale)
}

func (s *AbilityScheduler) complete(sl *abilitySlot, env *schedEnv) bool {
	s.idle(sl, env)
	env.emit(Event{Tick: env.tick, Type: EventAbilityComplete, Payload: map[string]any{
		"ability":  sl.desc.ID,
		"cooldown": sl.rt.CooldownRemaining,
	}})
	if sl.desc.TriggersExhaustion && s.cfg.Exhaustion.DurationTicks > 0 {
		s.beginExhaustion(sl, env)
		return true
	}
	return false
}

func (s *AbilityScheduler) fizzle(sl *abilitySlot, env *schedEnv, reason string) {
	target := sl.rt.Target
	s.idle(sl, env)
	env.emit(Event{Tick: env.tick, Type: EventAbilityFizzle, Payload: map[string]any{
		"ability": sl.desc.ID,
		"target":  target,
		"reason":  reason,
	}})
	env.log.WithFields(logrus.Fields{"ability": sl.desc.ID, "reason": reason}).Debug("ability fizzled")
	telegraph(env.host, FeedbackFizzle, env.boss)
}

func (s *AbilityScheduler) beginExhaustion(cause *abilitySlot, env *schedEnv) {
	for _, sl := range s.slots {
		if sl != cause && sl.rt.Active() {
			s.fizzle(sl, env, "exhaustion")
		}
	}
	s.exhaustTicks = s.cfg.Exhaustion.DurationTicks
	env.emit(Event{Tick: env.tick, Type: EventExhaustStart, Payload: map[string]any{
		"ability":    cause.desc.ID,
		"ticks":      s.exhaustTicks,
		"multiplier": s.cfg.Exhaustion.DamageMultiplier,
	}})
	env.log.WithField("ticks", s.exhaustTicks).Info("boss exhausted")
	telegraph(env.host, FeedbackExhausted, env.boss)
}

func (s *AbilityScheduler) endExhaustion(env *schedEnv) {
	env.emit(Event{Tick: env.tick, Type: EventExhaustEnd})
	env.log.Info("boss recovered")
	telegraph(env.host, FeedbackRecovered, env.boss)
	if r := s.cfg.Exhaustion.RecoveryAbility; r != "" {
		s.forced = append([]string{r}, s.forced...)
	}
}

func telegraph(h Host, id string, at EntityID) {
	if h.Effects != nil {
		h.Effects.PlayTelegraph(id, at)
	}
}

type schedulerSnapshot struct {
	abilities    map[string]AbilityRuntime
	exhaustTicks int
	forced       []string
}

func (s *AbilityScheduler) snapshot() schedulerSnapshot {
	out := schedulerSnapshot{
		abilities:    make(map[string]AbilityRuntime, len(s.slots)),
		exhaustTicks: s.exhaustTicks,
		forced:       append([]string(nil), s.forced...),
	}
	for _, sl := range s.slots {
		out.abilities[sl.desc.ID] = sl.rt
	}
	return out
}

func (s *AbilityScheduler) restore(snap schedulerSnapshot) error {
	for id := range snap.abilities {
		if _, ok := s.byID[id]; !ok {
			return fmt.Errorf("restore %s: %w", id, ErrUnknownAbility)
		}
	}
	for _, id := range snap.forced {
		if _, ok := s.byID[id]; !ok {
			return fmt.Errorf("restore forced %s: %w", id, ErrUnknownAbility)
		}
	}
	for _, sl := range s.slots {
		rt, ok := snap.abilities[sl.desc.ID]
		if !ok {
			rt = AbilityRuntime{}
		}
		sl.rt = rt
	}
	s.exhaustTicks = max(0, snap.exhaustTicks)
	s.forced = append(s.forced[:0], snap.forced...)
	return nil
}
