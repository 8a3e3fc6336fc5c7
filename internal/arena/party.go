package arena

import (
	"math/rand"

	"riftcore/internal/combat"
	"riftcore/internal/config"
	"riftcore/internal/util"
)

type debuff struct {
	ticks int
	level int
}

// Hero is one simulated player fighting the boss.
type Hero struct {
	ID   combat.EntityID
	Def  config.HeroDef
	Pos  Vec2
	HP   float64
	Down bool

	nextAttack int64
	debuffs    map[combat.DebuffKind]debuff

	DamageDealt float64
	DamageTaken float64
}

func newHero(id combat.EntityID, def config.HeroDef, idx int) *Hero {
	pos := Vec2{X: def.Spawn.X, Y: def.Spawn.Y}
	if pos == (Vec2{}) {
		pos = Vec2{X: 1, Y: 3 + float64(idx)*2}
	}
	if def.Speed <= 0 {
		def.Speed = 0.2
	}
	if def.Range <= 0 {
		def.Range = 3
	}
	if def.AttackInterval <= 0 {
		def.AttackInterval = 10
	}
	return &Hero{ID: id, Def: def, Pos: pos, HP: def.MaxHP, debuffs: map[combat.DebuffKind]debuff{}}
}

func (h *Hero) Name() string {
	if h.Def.Name != "" {
		return h.Def.Name
	}
	return h.Def.ID
}

// Hidden reports whether the hero is behind cover at tick.
func (h *Hero) Hidden(tick int64) bool {
	for _, w := range h.Def.Hide {
		if tick >= int64(w.From) && tick < int64(w.Until) {
			return true
		}
	}
	return false
}

func (h *Hero) level(k combat.DebuffKind) int {
	return h.debuffs[k].level
}

func (h *Hero) addDebuff(k combat.DebuffKind, ticks, level int) {
	cur := h.debuffs[k]
	// Stronger or longer applications replace weaker ones.
	if level > cur.level || (level == cur.level && ticks > cur.ticks) {
		h.debuffs[k] = debuff{ticks: ticks, level: level}
	}
}

func (h *Hero) speed() float64 {
	if h.level(combat.DebuffLevitation) > 0 {
		return 0
	}
	return h.Def.Speed * max(0, 1-0.15*float64(h.level(combat.DebuffSlowness)))
}

func (h *Hero) attackInterval() int64 {
	return int64(float64(h.Def.AttackInterval) * (1 + 0.2*float64(h.level(combat.DebuffMiningFatigue))))
}

func (h *Hero) attackDamage(r *rand.Rand) float64 {
	dmg := util.Jitter(r, h.Def.Damage, 0.1)
	return dmg * max(0, 1-0.2*float64(h.level(combat.DebuffWeakness)))
}

func (h *Hero) hurt(amount float64) bool {
	if h.Down || amount <= 0 {
		return false
	}
	h.HP -= amount
	h.DamageTaken += amount
	if h.HP <= 0 {
		h.HP = 0
		h.Down = true
		return true
	}
	return false
}

// tickDebuffs counts debuffs down and returns wither damage for this tick.
func (h *Hero) tickDebuffs() float64 {
	dot := 0.1 * float64(h.level(combat.DebuffWither))
	for k, d := range h.debuffs {
		d.ticks--
		if d.ticks <= 0 {
			delete(h.debuffs, k)
			continue
		}
		h.debuffs[k] = d
	}
	return dot
}

// Party is the roster in spawn order.
type Party struct {
	Heroes []*Hero
}

func NewParty(cfg *config.HeroesConfig, firstID combat.EntityID) *Party {
	p := &Party{}
	for i, def := range cfg.Heroes {
		p.Heroes = append(p.Heroes, newHero(firstID+combat.EntityID(i), def, i))
	}
	return p
}

func (p *Party) Alive() int {
	n := 0
	for _, h := range p.Heroes {
		if !h.Down {
			n++
		}
	}
	return n
}

func (p *Party) byID(id combat.EntityID) *Hero {
	for _, h := range p.Heroes {
		if h.ID == id {
			return h
		}
	}
	return nil
}
