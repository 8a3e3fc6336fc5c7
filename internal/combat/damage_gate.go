package combat

import "math"

// GateConfig tunes the damage gate.
type GateConfig struct {
	// ChunkFraction is the share of max health applied per gate opening.
	ChunkFraction float64
	// MinDamage rejects chip damage below this amount.
	MinDamage float64
}

// GateOutcome reports what ReceiveDamage did with a hit.
type GateOutcome int

const (
	GateIgnored GateOutcome = iota
	GateRejected
	GateChipRejected
	GateAccepted
	GateClamped
	GatePassthrough
)

func (o GateOutcome) String() string {
	switch o {
	case GateIgnored:
		return "ignored"
	case GateRejected:
		return "rejected"
	case GateChipRejected:
		return "chip_rejected"
	case GateAccepted:
		return "accepted"
	case GateClamped:
		return "clamped"
	case GatePassthrough:
		return "passthrough"
	}
	return "unknown"
}

// Applied reports whether the hit changed health.
func (o GateOutcome) Applied() bool {
	return o == GateAccepted || o == GateClamped || o == GatePassthrough
}

type vitals struct {
	health     float64
	maxHealth  float64
	absorption float64
}

// hurt removes amount from absorption first, then health. Returns the health lost.
func (v *vitals) hurt(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if v.absorption > 0 {
		soaked := math.Min(v.absorption, amount)
		v.absorption -= soaked
		amount -= soaked
	}
	before := v.health
	v.health = math.Max(0, v.health-amount)
	return before - v.health
}

func (v *vitals) ratio() float64 {
	if v.maxHealth <= 0 {
		return 0
	}
	return v.health / v.maxHealth
}

// DamageGate paces incoming damage: one clamped chunk per opening, everything
// untrusted is rejected while open, and oversized hits are replayed in full
// as trusted damage when the gate closes.
type DamageGate struct {
	cfg GateConfig

	invulnerabilityTicks int
	pendingChunk         bool
	pendingAmount        float64
	frozen               bool
	frozenHealth         float64
	frozenAbsorption     float64

	// set while the deferred chunk is being replayed
	applyingChunk bool
}

func newDamageGate(cfg GateConfig) DamageGate {
	return DamageGate{cfg: cfg}
}

// Open reports whether untrusted damage is currently rejected.
func (g *DamageGate) Open() bool {
	return g.invulnerabilityTicks > 0 || g.applyingChunk
}

// InvulnerabilityTicks returns the remaining open window.
func (g *DamageGate) InvulnerabilityTicks() int { return g.invulnerabilityTicks }

// PendingChunk reports whether a deferred replay is queued, and its amount.
func (g *DamageGate) PendingChunk() (bool, float64) { return g.pendingChunk, g.pendingAmount }

// ChunkSize is the largest amount a single opening applies immediately.
func (g *DamageGate) ChunkSize(maxHealth float64) float64 {
	return maxHealth * g.cfg.ChunkFraction
}

func (g *DamageGate) receive(v *vitals, amount float64, src DamageSource, openTicks int) GateOutcome {
	if amount <= 0 || math.IsNaN(amount) {
		return GateIgnored
	}
	if src.Trusted() {
		v.hurt(amount)
		return GatePassthrough
	}
	if g.Open() {
		return GateRejected
	}
	if amount < g.cfg.MinDamage {
		return GateChipRejected
	}

	clamped := math.Min(amount, g.ChunkSize(v.maxHealth))
	v.hurt(clamped)
	outcome := GateAccepted
	if amount > clamped {
		g.pendingChunk = true
		g.pendingAmount = amount
		outcome = GateClamped
	}
	if openTicks > g.invulnerabilityTicks {
		g.invulnerabilityTicks = openTicks
	}
	g.frozen = true
	g.frozenHealth = v.health
	g.frozenAbsorption = v.absorption
	return outcome
}

type gateTick struct {
	closed   bool
	repaired bool
	replayed float64
}

// tick counts the window down. replay is invoked with the deferred amount when
// the gate closes with a pending chunk; it must apply the damage as trusted.
func (g *DamageGate) tick(v *vitals, replay func(amount float64)) gateTick {
	var out gateTick
	if g.invulnerabilityTicks <= 0 {
		return out
	}
	g.invulnerabilityTicks--

	if g.frozen && (v.health != g.frozenHealth || v.absorption != g.frozenAbsorption) {
		v.health = g.frozenHealth
		v.absorption = g.frozenAbsorption
		out.repaired = true
	}
	if g.invulnerabilityTicks > 0 {
		return out
	}

	out.closed = true
	if g.pendingChunk {
		amount := g.pendingAmount
		g.pendingChunk = false
		g.pendingAmount = 0
		g.applyingChunk = true
		replay(amount)
		g.applyingChunk = false
		out.replayed = amount
	}
	g.clearFrozen()
	return out
}

// flush closes the gate at once, replaying any pending chunk.
func (g *DamageGate) flush(replay func(amount float64)) float64 {
	g.invulnerabilityTicks = 0
	var replayed float64
	if g.pendingChunk {
		replayed = g.pendingAmount
		g.pendingChunk = false
		g.pendingAmount = 0
		g.applyingChunk = true
		replay(replayed)
		g.applyingChunk = false
	}
	g.clearFrozen()
	return replayed
}

func (g *DamageGate) clearFrozen() {
	g.frozen = false
	g.frozenHealth = 0
	g.frozenAbsorption = 0
}

// GateSnapshot is the persisted form of a DamageGate.
type GateSnapshot struct {
	InvulnerabilityTicks int     `json:"invulnerability_ticks"`
	PendingChunk         bool    `json:"pending_chunk"`
	PendingAmount        float64 `json:"pending_amount,omitempty"`
	Frozen               bool    `json:"frozen,omitempty"`
	FrozenHealth         float64 `json:"frozen_health,omitempty"`
	FrozenAbsorption     float64 `json:"frozen_absorption,omitempty"`
}

func (g *DamageGate) snapshot() GateSnapshot {
	return GateSnapshot{
		InvulnerabilityTicks: g.invulnerabilityTicks,
		PendingChunk:         g.pendingChunk,
		PendingAmount:        g.pendingAmount,
		Frozen:               g.frozen,
		FrozenHealth:         g.frozenHealth,
		FrozenAbsorption:     g.frozenAbsorption,
	}
}

func (g *DamageGate) restore(s GateSnapshot) {
	g.invulnerabilityTicks = max(0, s.InvulnerabilityTicks)
	g.pendingChunk = s.PendingChunk && g.invulnerabilityTicks > 0
	g.pendingAmount = 0
	if g.pendingChunk {
		g.pendingAmount = s.PendingAmount
	}
	g.frozen = s.Frozen && g.invulnerabilityTicks > 0
	g.frozenHealth = s.FrozenHealth
	g.frozenAbsorption = s.FrozenAbsorption
	g.applyingChunk = false
}
