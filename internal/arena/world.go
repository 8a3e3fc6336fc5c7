package arena

import (
	"math"
	"math/rand"
	"sort"

	"riftcore/internal/combat"
)

const (
	bossEntity  combat.EntityID = 1
	firstHero   combat.EntityID = 2
	firstMinion combat.EntityID = 100

	bossSpeed    = 0.15
	bossReach    = 2.5
	minionHP     = 10
	minionSpeed  = 0.18
	minionReach  = 1.5
	minionDamage = 1
	minionRate   = 20
	minionLife   = 300
)

type Minion struct {
	ID         combat.EntityID
	Pos        Vec2
	HP         float64
	expires    int64
	nextAttack int64
}

// World is a flat arena hosting one boss, a party and the boss's minions.
// It implements every host interface the combat core needs.
type World struct {
	tick    int64
	bossPos Vec2
	boss    *combat.BossController
	party   *Party
	minions []*Minion
	nextID  combat.EntityID
	rng     *rand.Rand
	emit    func(combat.Event)

	Telegraphs map[string]int
}

func newWorld(party *Party, rng *rand.Rand, emit func(combat.Event)) *World {
	return &World{
		party:      party,
		nextID:     firstMinion,
		rng:        rng,
		emit:       emit,
		Telegraphs: map[string]int{},
	}
}

func (w *World) host() combat.Host {
	return combat.Host{World: w, Targets: w, Effects: w}
}

func (w *World) event(typ string, payload map[string]any) {
	w.emit(combat.Event{Tick: w.tick, Type: typ, Payload: payload})
}

func (w *World) minion(id combat.EntityID) *Minion {
	for _, m := range w.minions {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (w *World) pos(id combat.EntityID) (Vec2, bool) {
	if id == bossEntity {
		return w.bossPos, true
	}
	if h := w.party.byID(id); h != nil {
		return h.Pos, true
	}
	if m := w.minion(id); m != nil {
		return m.Pos, true
	}
	return Vec2{}, false
}

func (w *World) hidden(id combat.EntityID) bool {
	h := w.party.byID(id)
	return h != nil && h.Hidden(w.tick)
}

func (w *World) HasLineOfSight(from, to combat.EntityID) bool {
	return !w.hidden(from) && !w.hidden(to)
}

func (w *World) EntitiesInRadius(center combat.EntityID, radius float64, kind combat.EntityKind) []combat.EntityID {
	c, ok := w.pos(center)
	if !ok {
		return nil
	}
	r2 := radius * radius
	var out []combat.EntityID
	switch kind {
	case combat.KindPlayer:
		for _, h := range w.party.Heroes {
			if h.ID != center && !h.Down && h.Pos.DistSq(c) <= r2 {
				out = append(out, h.ID)
			}
		}
	case combat.KindMinion:
		for _, m := range w.minions {
			if m.ID != center && m.Pos.DistSq(c) <= r2 {
				out = append(out, m.ID)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) DistanceSquared(a, b combat.EntityID) float64 {
	pa, okA := w.pos(a)
	pb, okB := w.pos(b)
	if !okA || !okB {
		return math.Inf(1)
	}
	return pa.DistSq(pb)
}

func (w *World) Alive(id combat.EntityID) bool {
	if id == bossEntity {
		return w.boss != nil && !w.boss.Dead()
	}
	if h := w.party.byID(id); h != nil {
		return !h.Down
	}
	return w.minion(id) != nil
}

func (w *World) MaxHealth(id combat.EntityID) float64 {
	if id == bossEntity && w.boss != nil {
		return w.boss.MaxHealth()
	}
	if h := w.party.byID(id); h != nil {
		return h.Def.MaxHP
	}
	if w.minion(id) != nil {
		return minionHP
	}
	return 0
}

func (w *World) ApplyDamage(target combat.EntityID, amount float64, kind combat.DamageKind) {
	h := w.party.byID(target)
	if h == nil {
		return
	}
	downed := h.hurt(amount)
	w.event("HeroHit", map[string]any{"hero": h.Def.ID, "amount": amount, "kind": kind.String(), "hp": h.HP})
	if downed {
		w.heroDown(h)
	}
}

// heroDown drops a fallen hero from the boss's threat table.
func (w *World) heroDown(h *Hero) {
	w.event("HeroDown", map[string]any{"hero": h.Def.ID})
	if w.boss != nil {
		w.boss.Threat().Forget(h.ID)
	}
}

func (w *World) ApplyDebuff(target combat.EntityID, kind combat.DebuffKind, durationTicks int, magnitude int) {
	h := w.party.byID(target)
	if h == nil || h.Down {
		return
	}
	h.addDebuff(kind, durationTicks, magnitude)
	w.event("Debuff", map[string]any{"hero": h.Def.ID, "debuff": string(kind), "ticks": durationTicks, "level": magnitude})
}

func (w *World) PlayTelegraph(abilityID string, at combat.EntityID) {
	w.Telegraphs[abilityID]++
}

// SpawnMinions places count minions in a ring around the boss.
func (w *World) SpawnMinions(boss combat.EntityID, count int) int {
	for i := 0; i < count; i++ {
		angle := w.rng.Float64() * 2 * math.Pi
		m := &Minion{
			ID:         w.nextID,
			Pos:        w.bossPos.Add(Vec2{X: 3 * math.Cos(angle), Y: 3 * math.Sin(angle)}),
			HP:         minionHP,
			expires:    w.tick + minionLife,
			nextAttack: w.tick + minionRate,
		}
		w.nextID++
		w.minions = append(w.minions, m)
		w.event("MinionSpawn", map[string]any{"id": m.ID, "x": m.Pos.X, "y": m.Pos.Y})
	}
	return count
}

func (w *World) nearestHero(from Vec2) *Hero {
	var best *Hero
	bestD := math.Inf(1)
	for _, h := range w.party.Heroes {
		if h.Down {
			continue
		}
		if d := h.Pos.DistSq(from); d < bestD {
			best, bestD = h, d
		}
	}
	return best
}

func (w *World) nearestMinion(from Vec2, reach float64) *Minion {
	var best *Minion
	bestD := reach * reach
	for _, m := range w.minions {
		if d := m.Pos.DistSq(from); d <= bestD {
			best, bestD = m, d
		}
	}
	return best
}

func (w *World) tickMinions() {
	alive := w.minions[:0]
	for _, m := range w.minions {
		if m.HP <= 0 || w.tick >= m.expires {
			w.event("MinionGone", map[string]any{"id": m.ID, "killed": m.HP <= 0})
			continue
		}
		if h := w.nearestHero(m.Pos); h != nil {
			m.Pos = m.Pos.StepToward(h.Pos, minionSpeed, minionReach*0.8)
			if w.tick >= m.nextAttack && m.Pos.DistSq(h.Pos) <= minionReach*minionReach {
				m.nextAttack = w.tick + minionRate
				w.ApplyDamage(h.ID, minionDamage, combat.DamagePhysical)
			}
		}
		alive = append(alive, m)
	}
	w.minions = alive
}

func (w *World) moveBoss() {
	if w.boss.IsMovementLocked() || w.boss.Exhausted() {
		return
	}
	if h := w.nearestHero(w.bossPos); h != nil {
		w.bossPos = w.bossPos.StepToward(h.Pos, bossSpeed, bossReach)
	}
}

// tickHeroes moves every standing hero toward the boss and lets it attack.
// Heroes clear minions in reach before hitting the boss. Hidden heroes hold.
func (w *World) tickHeroes() {
	for _, h := range w.party.Heroes {
		if h.Down {
			continue
		}
		if dot := h.tickDebuffs(); dot > 0 && h.hurt(dot) {
			w.heroDown(h)
			continue
		}
		if h.Hidden(w.tick) {
			continue
		}
		h.Pos = h.Pos.StepToward(w.bossPos, h.speed(), h.Def.Range*0.9)
		if w.tick < h.nextAttack || h.Def.Damage <= 0 {
			continue
		}

		if m := w.nearestMinion(h.Pos, h.Def.Range); m != nil {
			h.nextAttack = w.tick + h.attackInterval()
			m.HP -= h.attackDamage(w.rng)
			continue
		}
		if w.boss.Dead() || h.Pos.DistSq(w.bossPos) > h.Def.Range*h.Def.Range {
			continue
		}
		h.nextAttack = w.tick + h.attackInterval()
		dmg := h.attackDamage(w.rng)
		out := w.boss.ReceiveDamage(dmg, combat.DamageSource{Kind: combat.DamagePhysical, Attacker: h.ID})
		if out.Applied() {
			h.DamageDealt += dmg
		}
		w.event("Attack", map[string]any{"hero": h.Def.ID, "amount": dmg, "outcome": out.String()})
	}
}
