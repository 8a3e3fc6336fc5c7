package combat

import (
	"io"
	"math"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	bossID   EntityID = 1
	kindBoss          = EntityKind(99)
)

type vec struct{ X, Y float64 }

func (a vec) distSq(b vec) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

type fakeEntity struct {
	pos   vec
	kind  EntityKind
	alive bool
	maxHP float64
}

type debuffCall struct {
	target    EntityID
	kind      DebuffKind
	ticks     int
	magnitude int
}

// fakeWorld is a flat 2D world with per-entity line-of-sight blocking.
type fakeWorld struct {
	ents       map[EntityID]*fakeEntity
	blind      map[EntityID]bool
	damage     map[EntityID]float64
	debuffs    []debuffCall
	telegraphs []string
}

func newFakeWorld() *fakeWorld {
	w := &fakeWorld{
		ents:   map[EntityID]*fakeEntity{},
		blind:  map[EntityID]bool{},
		damage: map[EntityID]float64{},
	}
	w.ents[bossID] = &fakeEntity{kind: kindBoss, alive: true, maxHP: 4000}
	return w
}

func (w *fakeWorld) addPlayer(id EntityID, x, y float64) {
	w.ents[id] = &fakeEntity{pos: vec{X: x, Y: y}, kind: KindPlayer, alive: true, maxHP: 20}
}

func (w *fakeWorld) addMinion(id EntityID) {
	w.ents[id] = &fakeEntity{kind: KindMinion, alive: true, maxHP: 10}
}

func (w *fakeWorld) host() Host { return Host{World: w, Targets: w, Effects: w} }

func (w *fakeWorld) HasLineOfSight(from, to EntityID) bool {
	return !w.blind[from] && !w.blind[to]
}

func (w *fakeWorld) EntitiesInRadius(center EntityID, radius float64, kind EntityKind) []EntityID {
	c, ok := w.ents[center]
	if !ok {
		return nil
	}
	var out []EntityID
	for id, e := range w.ents {
		if id == center || e.kind != kind {
			continue
		}
		if e.pos.distSq(c.pos) <= radius*radius {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *fakeWorld) DistanceSquared(a, b EntityID) float64 {
	ea, okA := w.ents[a]
	eb, okB := w.ents[b]
	if !okA || !okB {
		return math.Inf(1)
	}
	return ea.pos.distSq(eb.pos)
}

func (w *fakeWorld) Alive(id EntityID) bool {
	e, ok := w.ents[id]
	return ok && e.alive
}

func (w *fakeWorld) MaxHealth(id EntityID) float64 {
	if e, ok := w.ents[id]; ok {
		return e.maxHP
	}
	return 0
}

func (w *fakeWorld) ApplyDamage(target EntityID, amount float64, kind DamageKind) {
	w.damage[target] += amount
}

func (w *fakeWorld) ApplyDebuff(target EntityID, kind DebuffKind, durationTicks int, magnitude int) {
	w.debuffs = append(w.debuffs, debuffCall{target: target, kind: kind, ticks: durationTicks, magnitude: magnitude})
}

func (w *fakeWorld) PlayTelegraph(abilityID string, at EntityID) {
	w.telegraphs = append(w.telegraphs, abilityID)
}

type eventLog struct {
	events []Event
}

func (l *eventLog) emit(ev Event) { l.events = append(l.events, ev) }

func (l *eventLog) ofType(typ string) []Event {
	var out []Event
	for _, ev := range l.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testOptions(log *eventLog) Options {
	o := DefaultOptions()
	o.ID = bossID
	o.Name = "test_boss"
	o.Engagement.ThresholdTicks = 0
	o.Strict = true
	o.Logger = quietLogger()
	o.Emit = log.emit
	return o
}

func newTestBoss(t *testing.T, w *fakeWorld, opts Options, abilities ...AbilityDescriptor) *BossController {
	t.Helper()
	bc, err := NewBossController(opts, abilities, w.host())
	require.NoError(t, err)
	return bc
}

func tickN(bc *BossController, n int) {
	for i := 0; i < n; i++ {
		bc.Tick()
	}
}

type effectCounter struct {
	calls  int
	pulses []int
}

func (c *effectCounter) effect(rc ResolveContext) {
	c.calls++
	c.pulses = append(c.pulses, rc.Pulse)
}
