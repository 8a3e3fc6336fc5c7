package combat

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Options configures a BossController. Zero fields fall back to DefaultOptions.
type Options struct {
	ID        EntityID
	Name      string
	MaxHealth float64

	Gate       GateConfig
	Thresholds []float64
	// Tuning has one entry per phase, Phase0 first.
	Tuning     []PhaseTuning
	Scheduler  SchedulerConfig
	Engagement EngagementConfig
	Threat     ThreatConfig

	// Strict panics on invariant violations instead of repairing them.
	Strict bool
	Logger logrus.FieldLogger
	Emit   func(Event)
}

func DefaultOptions() Options {
	return Options{
		Name:       "boss",
		MaxHealth:  4000,
		Gate:       GateConfig{ChunkFraction: 1.0 / 20, MinDamage: 8},
		Thresholds: append([]float64(nil), DefaultThresholds...),
		Tuning:     DefaultPhaseTuning(),
		Scheduler:  DefaultSchedulerConfig(),
		Engagement: DefaultEngagementConfig(),
		Threat:     DefaultThreatConfig(),
	}
}

func (o *Options) validate() error {
	if o.MaxHealth <= 0 || math.IsInf(o.MaxHealth, 0) || math.IsNaN(o.MaxHealth) {
		return fmt.Errorf("%w: max health %v", ErrInvalidConfig, o.MaxHealth)
	}
	if o.Gate.ChunkFraction <= 0 || o.Gate.ChunkFraction > 1 {
		return fmt.Errorf("%w: chunk fraction %v not in (0,1]", ErrInvalidConfig, o.Gate.ChunkFraction)
	}
	if o.Gate.MinDamage < 0 {
		return fmt.Errorf("%w: negative min damage", ErrInvalidConfig)
	}
	if len(o.Thresholds) > int(MaxPhase) {
		return fmt.Errorf("%w: %d thresholds, at most %d", ErrInvalidConfig, len(o.Thresholds), MaxPhase)
	}
	prev := 1.0
	for i, t := range o.Thresholds {
		if t <= 0 || t >= prev {
			return fmt.Errorf("%w: threshold %d (%v) must be in (0,%v)", ErrInvalidConfig, i, t, prev)
		}
		prev = t
	}
	if len(o.Tuning) < len(o.Thresholds)+1 {
		return fmt.Errorf("%w: tuning for %d phases, need %d", ErrInvalidConfig, len(o.Tuning), len(o.Thresholds)+1)
	}
	return nil
}

// BossController is the aggregate root for one live boss. It is owned by a
// single tick loop and is not safe for concurrent use.
type BossController struct {
	opts Options
	id   EntityID
	name string

	vitals
	gate       DamageGate
	phaser     *PhaseController
	scheduler  *AbilityScheduler
	engagement EngagementMonitor
	threat     *ThreatTable

	host Host
	emit func(Event)
	log  logrus.FieldLogger
	tick int64
	dead bool

	// punishPending holds a fired punishment until no ability is active.
	punishPending bool
}

func NewBossController(opts Options, abilities []AbilityDescriptor, host Host) (*BossController, error) {
	def := DefaultOptions()
	if opts.Thresholds == nil {
		opts.Thresholds = def.Thresholds
	}
	if opts.Tuning == nil {
		opts.Tuning = def.Tuning
	}
	if opts.Name == "" {
		opts.Name = def.Name
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	sched, err := NewAbilityScheduler(opts.Scheduler, abilities)
	if err != nil {
		return nil, fmt.Errorf("boss %s: %w", opts.Name, err)
	}
	for p, t := range opts.Tuning {
		if t.WaveAbility == "" {
			continue
		}
		if _, ok := sched.Descriptor(t.WaveAbility); !ok {
			return nil, fmt.Errorf("boss %s: phase %d wave %s: %w", opts.Name, p, t.WaveAbility, ErrUnknownAbility)
		}
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	emit := opts.Emit
	if emit == nil {
		emit = func(Event) {}
	}
	bc := &BossController{
		opts:       opts,
		id:         opts.ID,
		name:       opts.Name,
		vitals:     vitals{health: opts.MaxHealth, maxHealth: opts.MaxHealth},
		gate:       newDamageGate(opts.Gate),
		scheduler:  sched,
		engagement: NewEngagementMonitor(opts.Engagement.ThresholdTicks),
		threat:     NewThreatTable(opts.Threat),
		host:       host,
		emit:       emit,
		log:        log.WithFields(logrus.Fields{"boss": opts.Name, "boss_id": opts.ID}),
	}
	bc.phaser = NewPhaseController(opts.Thresholds, bc.enterPhase)
	return bc, nil
}

func (bc *BossController) ID() EntityID                 { return bc.id }
func (bc *BossController) Name() string                 { return bc.name }
func (bc *BossController) Now() int64                   { return bc.tick }
func (bc *BossController) Health() float64              { return bc.health }
func (bc *BossController) MaxHealth() float64           { return bc.maxHealth }
func (bc *BossController) Absorption() float64          { return bc.absorption }
func (bc *BossController) HealthRatio() float64         { return bc.vitals.ratio() }
func (bc *BossController) Phase() Phase                 { return bc.phaser.Current() }
func (bc *BossController) Dead() bool                   { return bc.dead }
func (bc *BossController) Gate() *DamageGate            { return &bc.gate }
func (bc *BossController) GateOpen() bool               { return bc.gate.Open() }
func (bc *BossController) Scheduler() *AbilityScheduler { return bc.scheduler }
func (bc *BossController) Threat() *ThreatTable         { return bc.threat }
func (bc *BossController) Exhausted() bool              { return bc.scheduler.Exhausted() }
func (bc *BossController) Engagement() EngagementMonitor {
	return bc.engagement
}

// IsMovementLocked is polled by the host's movement AI.
func (bc *BossController) IsMovementLocked() bool {
	if bc.dead {
		return false
	}
	return bc.scheduler.IsMovementLocked()
}

func (bc *BossController) tuning() PhaseTuning {
	return bc.tuningFor(bc.phaser.Current())
}

func (bc *BossController) tuningFor(p Phase) PhaseTuning {
	t := bc.opts.Tuning[p]
	if t.GateTicks <= 0 {
		t.GateTicks = DefaultGateTicks(p)
	}
	if t.CooldownScale <= 0 {
		t.CooldownScale = DefaultCooldownScale(p)
	}
	return t
}

func (bc *BossController) logger() logrus.FieldLogger {
	return bc.log.WithField("tick", bc.tick)
}

func (bc *BossController) event(typ string, payload map[string]any) {
	bc.emit(Event{Tick: bc.tick, Type: typ, Payload: payload})
}

// Tick advances the boss by one host tick: gate, phase, scheduler, engagement.
func (bc *BossController) Tick() {
	if bc.dead {
		return
	}
	bc.tick++

	bc.tickGate()
	if bc.dead {
		return
	}
	bc.phaser.Evaluate(bc.vitals.ratio())
	bc.threat.Tick()

	out := bc.scheduler.tick(bc.schedEnv())
	if out.exhaustStarted {
		bc.flushGate()
	}
	if bc.dead {
		return
	}
	if !bc.scheduler.Exhausted() {
		bc.tickEngagement()
	}
	bc.checkInvariants()
}

func (bc *BossController) schedEnv() *schedEnv {
	return &schedEnv{
		tick:         bc.tick,
		boss:         bc.id,
		phase:        bc.phaser.Current(),
		tuning:       bc.tuning(),
		gated:        bc.gate.Open(),
		host:         bc.host,
		emit:         bc.emit,
		log:          bc.logger(),
		threat:       bc.threat,
		minionsAlive: bc.minionsAlive(),
	}
}

func (bc *BossController) minionsAlive() int {
	w := bc.host.World
	if w == nil {
		return 0
	}
	n := 0
	for _, id := range w.EntitiesInRadius(bc.id, math.Inf(1), KindMinion) {
		if w.Alive(id) {
			n++
		}
	}
	return n
}

// ReceiveDamage routes a hit on the boss through exhaustion and the damage gate.
func (bc *BossController) ReceiveDamage(amount float64, src DamageSource) GateOutcome {
	if bc.dead {
		return GateIgnored
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		bc.logger().WithField("amount", amount).Debug("ignoring invalid damage")
		return GateIgnored
	}
	if !src.Trusted() {
		bc.threat.Add(src.Attacker, amount)
	}

	before := bc.health
	var out GateOutcome
	if bc.scheduler.Exhausted() && !src.Trusted() {
		bc.vitals.hurt(amount * bc.scheduler.DamageMultiplier())
		out = GatePassthrough
	} else {
		out = bc.gate.receive(&bc.vitals, amount, src, bc.tuning().GateTicks)
	}

	switch out {
	case GateRejected:
		bc.event(EventGateBlock, map[string]any{"amount": amount, "attacker": src.Attacker})
		bc.logger().WithField("amount", amount).Debug("damage blocked by open gate")
		telegraph(bc.host, FeedbackGateBlock, bc.id)
	case GateChipRejected:
		bc.event(EventGateChip, map[string]any{"amount": amount, "attacker": src.Attacker})
		bc.logger().WithField("amount", amount).Debug("chip damage rejected")
		telegraph(bc.host, FeedbackGateChip, bc.id)
	case GateAccepted, GateClamped, GatePassthrough:
		bc.event(EventDamageTaken, map[string]any{
			"amount":   amount,
			"applied":  before - bc.health,
			"kind":     src.Kind.String(),
			"attacker": src.Attacker,
			"health":   bc.health,
		})
		if out != GatePassthrough {
			pending, pendingAmount := bc.gate.PendingChunk()
			bc.event(EventGateOpen, map[string]any{
				"ticks":          bc.gate.InvulnerabilityTicks(),
				"pending":        pending,
				"pending_amount": pendingAmount,
			})
			telegraph(bc.host, FeedbackGateOpen, bc.id)
		}
	}
	bc.checkDeath()
	return out
}

func (bc *BossController) replay(amount float64) {
	bc.ReceiveDamage(amount, DamageSource{Kind: DamageTrusted})
}

// Heal restores health. Rejected while the gate is open or the boss is dead.
func (bc *BossController) Heal(amount float64) bool {
	if bc.dead || amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) || bc.gate.Open() {
		return false
	}
	bc.health = math.Min(bc.maxHealth, bc.health+amount)
	return true
}

// SyncFromHost records health and absorption changed outside the core.
// While the gate is open the frozen values win on the next tick.
func (bc *BossController) SyncFromHost(health, absorption float64) {
	if math.IsNaN(health) || math.IsNaN(absorption) {
		bc.logger().Debug("ignoring NaN host sync")
		return
	}
	bc.health = math.Min(bc.maxHealth, math.Max(0, health))
	bc.absorption = math.Max(0, absorption)
	bc.checkDeath()
}

func (bc *BossController) tickGate() {
	res := bc.gate.tick(&bc.vitals, bc.replay)
	if res.repaired {
		bc.event(EventInvariant, map[string]any{"what": "frozen_health", "health": bc.health})
		bc.logger().Debug("restored frozen health while gated")
	}
	if !res.closed {
		return
	}
	if res.replayed > 0 {
		bc.event(EventChunkPayback, map[string]any{"amount": res.replayed, "health": bc.health})
		telegraph(bc.host, FeedbackPayback, bc.id)
	}
	bc.event(EventGateClose, nil)
}

func (bc *BossController) flushGate() {
	open := bc.gate.Open()
	if replayed := bc.gate.flush(bc.replay); replayed > 0 {
		bc.event(EventChunkPayback, map[string]any{"amount": replayed, "health": bc.health})
		telegraph(bc.host, FeedbackPayback, bc.id)
	}
	if open {
		bc.event(EventGateClose, map[string]any{"reason": "exhaustion"})
	}
}

func (bc *BossController) enterPhase(p Phase) {
	t := bc.tuningFor(p)
	bc.event(EventPhaseEnter, map[string]any{
		"phase":          int(p),
		"cooldown_scale": t.CooldownScale,
		"gate_ticks":     t.GateTicks,
		"minion_cap":     t.MinionCap,
	})
	bc.logger().WithField("phase", int(p)).Info("phase entered")
	telegraph(bc.host, FeedbackPhaseChange, bc.id)
	if t.WaveAbility != "" {
		if err := bc.scheduler.ForceActivate(t.WaveAbility); err != nil {
			bc.logger().WithError(err).Error("phase wave")
		}
	}
}

func (bc *BossController) tickEngagement() {
	w := bc.host.World
	if w == nil || bc.engagement.Threshold() <= 0 {
		return
	}
	sight := false
	for _, id := range w.EntitiesInRadius(bc.id, bc.opts.Engagement.TrackRadius, KindPlayer) {
		if id != bc.id && w.Alive(id) && w.HasLineOfSight(bc.id, id) {
			sight = true
			break
		}
	}
	if bc.engagement.Tick(sight) {
		bc.punishPending = true
	} else if sight {
		bc.punishPending = false
	}
	if bc.punishPending && bc.scheduler.ActiveCount() == 0 {
		bc.punishPending = false
		bc.punish()
	}
}

func (bc *BossController) punish() {
	w := bc.host.World
	p := bc.opts.Engagement.Punishment
	var hit []EntityID
	for _, id := range w.EntitiesInRadius(bc.id, p.Radius, KindPlayer) {
		if id == bc.id || !w.Alive(id) {
			continue
		}
		hit = append(hit, id)
		if bc.host.Targets == nil {
			continue
		}
		bc.host.Targets.ApplyDamage(id, p.damageFor(w.MaxHealth(id)), DamageTrue)
		for _, d := range p.Debuffs {
			bc.host.Targets.ApplyDebuff(id, d.Kind, d.DurationTicks, d.Magnitude)
		}
	}
	bc.event(EventPunish, map[string]any{"targets": hit})
	bc.logger().WithField("targets", len(hit)).Debug("engagement punishment")
	telegraph(bc.host, FeedbackPunishment, bc.id)
}

func (bc *BossController) checkDeath() {
	if bc.dead || bc.health > 0 {
		return
	}
	bc.dead = true
	bc.event(EventDeath, map[string]any{"phase": int(bc.phaser.Current())})
	bc.logger().Info("boss died")
}

func (bc *BossController) checkInvariants() {
	if math.IsNaN(bc.health) || bc.health < 0 || bc.health > bc.maxHealth {
		bc.violation("health out of range", logrus.Fields{"health": bc.health, "max": bc.maxHealth})
		if math.IsNaN(bc.health) {
			bc.health = 0
		}
		bc.health = math.Min(bc.maxHealth, math.Max(0, bc.health))
		bc.checkDeath()
	}
	if bc.absorption < 0 || math.IsNaN(bc.absorption) {
		bc.violation("negative absorption", logrus.Fields{"absorption": bc.absorption})
		bc.absorption = 0
	}
	locks := 0
	for _, sl := range bc.scheduler.slots {
		if sl.rt.Active() && sl.desc.LocksMovement {
			locks++
		}
	}
	if locks > 1 || (locks > 0 && bc.scheduler.Exhausted()) {
		bc.violation("multiple movement locks", logrus.Fields{"locks": locks})
	}
}

func (bc *BossController) violation(msg string, fields logrus.Fields) {
	if bc.opts.Strict {
		panic(fmt.Sprintf("combat: %s: %v", msg, fields))
	}
	bc.logger().WithFields(fields).Error(msg)
	bc.event(EventInvariant, map[string]any{"what": msg})
}
