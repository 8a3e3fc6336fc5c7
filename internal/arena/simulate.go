// Package arena runs a boss against a simulated party, tick by tick.
package arena

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"riftcore/internal/combat"
	"riftcore/internal/config"
	"riftcore/internal/encounter"
	"riftcore/internal/util"
)

const DefaultMaxTicks = 12000

type Params struct {
	Boss     *config.BossConfig
	Heroes   *config.HeroesConfig
	Seed     int64
	MaxTicks int
	// Record keeps the full event log in the result.
	Record bool
	Strict bool
	// Resume restores the boss from a saved snapshot before the first tick.
	Resume   *combat.Snapshot
	Logger   logrus.FieldLogger
	Observer func(combat.Event)
}

type Result struct {
	Boss         string             `json:"boss"`
	Seed         int64              `json:"seed"`
	Win          bool               `json:"win"`
	Ticks        int64              `json:"ticks"`
	FinalHealth  float64            `json:"final_health"`
	PhaseReached int                `json:"phase_reached"`
	HeroesAlive  int                `json:"heroes_alive"`
	DPS          float64            `json:"dps"`
	DamageByHero map[string]float64 `json:"damage_by_hero"`
	DamageTaken  map[string]float64 `json:"damage_taken"`
	EventCounts  map[string]int     `json:"event_counts"`
	Telegraphs   map[string]int     `json:"telegraphs,omitempty"`
	ThreatOrder  []string           `json:"threat_order,omitempty"`
	Meta         Meta               `json:"meta"`
	Snapshot     *combat.Snapshot   `json:"snapshot,omitempty"`
	Events       []combat.Event     `json:"events,omitempty"`
}

type Meta struct {
	Boss   BossMeta   `json:"boss"`
	Heroes []HeroMeta `json:"heroes"`
	Notes  []string   `json:"notes,omitempty"`
}

type BossMeta struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	MaxHP  float64 `json:"max_hp"`
	Phases int     `json:"phases"`
	Note   string  `json:"note,omitempty"`
}

type HeroMeta struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	MaxHP float64 `json:"max_hp"`
	Speed float64 `json:"speed"`
	Note  string  `json:"note,omitempty"`
}

func buildMeta(bc *config.BossConfig, party *Party) Meta {
	meta := Meta{Boss: BossMeta{ID: bc.ID, Name: bc.Name, MaxHP: bc.MaxHP, Phases: len(bc.Phases), Note: bc.Note}}
	for i, p := range bc.Phases {
		if p.Note != "" && i > 0 {
			meta.Notes = append(meta.Notes, fmt.Sprintf("Phase @%.0f%%: %s", p.Threshold*100, p.Note))
		}
	}
	for _, h := range party.Heroes {
		meta.Heroes = append(meta.Heroes, HeroMeta{ID: h.Def.ID, Name: h.Name(), MaxHP: h.Def.MaxHP, Speed: h.Def.Speed, Note: h.Def.Note})
	}
	return meta
}

// Run fights one encounter to the end: boss death, party wipe or MaxTicks.
// The context is checked between ticks.
func Run(ctx context.Context, p Params) (*Result, error) {
	if p.Boss == nil {
		return nil, fmt.Errorf("arena: no boss config")
	}
	heroes := p.Heroes
	if heroes == nil {
		heroes = config.DefaultHeroes()
	}
	if len(heroes.Heroes) == 0 {
		return nil, fmt.Errorf("arena: empty party")
	}
	maxTicks := p.MaxTicks
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	log := p.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"boss": p.Boss.ID, "seed": p.Seed})

	res := &Result{
		Boss:         p.Boss.ID,
		Seed:         p.Seed,
		DamageByHero: map[string]float64{},
		DamageTaken:  map[string]float64{},
		EventCounts:  map[string]int{},
	}
	emit := func(ev combat.Event) {
		res.EventCounts[ev.Type]++
		if p.Record {
			res.Events = append(res.Events, ev)
		}
		if p.Observer != nil {
			p.Observer(ev)
		}
	}

	party := NewParty(heroes, firstHero)
	w := newWorld(party, util.New(p.Seed), emit)
	boss, err := encounter.Build(p.Boss, bossEntity, w.host(), encounter.BuildOptions{
		Strict: p.Strict,
		Logger: log,
		Emit:   emit,
	})
	if err != nil {
		return nil, err
	}
	w.boss = boss
	if p.Resume != nil {
		if err := boss.Restore(*p.Resume); err != nil {
			return nil, fmt.Errorf("arena: resume: %w", err)
		}
		w.tick = boss.Now()
		log.WithField("tick", w.tick).Info("resumed boss from snapshot")
	}
	res.Meta = buildMeta(p.Boss, party)

	for _, h := range party.Heroes {
		w.event("Spawn", map[string]any{"id": h.ID, "hero": h.Def.ID, "x": h.Pos.X, "y": h.Pos.Y, "hp": h.HP})
	}
	w.event("Spawn", map[string]any{"id": bossEntity, "boss": p.Boss.ID, "hp": boss.Health(), "max_hp": boss.MaxHealth()})

	start := w.tick
	for w.tick-start < int64(maxTicks) && !boss.Dead() && party.Alive() > 0 {
		if (w.tick-start)%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		w.tick++
		w.tickHeroes()
		w.moveBoss()
		boss.Tick()
		w.tickMinions()
	}

	elapsed := w.tick - start
	res.Win = boss.Dead()
	res.Ticks = elapsed
	res.FinalHealth = boss.Health()
	res.PhaseReached = int(boss.Phase())
	res.HeroesAlive = party.Alive()
	res.Telegraphs = w.Telegraphs
	total := 0.0
	for _, h := range party.Heroes {
		res.DamageByHero[h.Def.ID] = h.DamageDealt
		res.DamageTaken[h.Def.ID] = h.DamageTaken
		total += h.DamageDealt
	}
	if elapsed > 0 {
		res.DPS = total / float64(elapsed)
	}
	for _, id := range boss.Threat().Ranked() {
		if h := party.byID(id); h != nil {
			res.ThreatOrder = append(res.ThreatOrder, h.Def.ID)
		}
	}
	snap := boss.Snapshot()
	res.Snapshot = &snap

	log.WithFields(logrus.Fields{
		"win":   res.Win,
		"ticks": res.Ticks,
		"phase": res.PhaseReached,
		"alive": res.HeroesAlive,
	}).Debug("encounter finished")
	return res, nil
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
