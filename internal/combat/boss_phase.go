package combat

// Phase is a one-way health tier. Phase0 is the opening tier.
type Phase int

const (
	Phase0 Phase = iota
	Phase1
	Phase2
	Phase3
)

// MaxPhase is the deepest tier a boss can reach.
const MaxPhase = Phase3

// DefaultThresholds are the health ratios that enter Phase1..Phase3.
var DefaultThresholds = []float64{0.75, 0.50, 0.25}

// PhaseTuning is reapplied every time a tier is entered.
type PhaseTuning struct {
	CooldownScale float64
	GateTicks     int
	MinionCap     int
	// WaveAbility is forced once on entry, outside the normal cadence.
	WaveAbility string
}

// DefaultGateTicks is max(24, 40-4*phase).
func DefaultGateTicks(p Phase) int {
	return max(24, 40-4*int(p))
}

// DefaultCooldownScale shortens cooldowns by a tenth per phase.
func DefaultCooldownScale(p Phase) float64 {
	return 1 - 0.1*float64(p)
}

// DefaultPhaseTuning returns the tuning table used when none is configured.
func DefaultPhaseTuning() []PhaseTuning {
	out := make([]PhaseTuning, int(MaxPhase)+1)
	for i := range out {
		out[i] = PhaseTuning{
			CooldownScale: DefaultCooldownScale(Phase(i)),
			GateTicks:     DefaultGateTicks(Phase(i)),
			MinionCap:     3 + i,
		}
	}
	return out
}

type PhaseController struct {
	thresholds []float64
	phase      Phase
	onEnter    func(Phase)
}

func NewPhaseController(thresholds []float64, onEnter func(Phase)) *PhaseController {
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	if len(thresholds) > int(MaxPhase) {
		thresholds = thresholds[:MaxPhase]
	}
	ts := make([]float64, len(thresholds))
	copy(ts, thresholds)
	if onEnter == nil {
		onEnter = func(Phase) {}
	}
	return &PhaseController{thresholds: ts, onEnter: onEnter}
}

func (pc *PhaseController) Current() Phase { return pc.phase }

// Last is the deepest phase this controller can reach.
func (pc *PhaseController) Last() Phase { return Phase(len(pc.thresholds)) }

// Evaluate enters every tier whose threshold ratio has crossed, in order, and
// returns the tiers entered by this call. A rising ratio never lowers the phase.
func (pc *PhaseController) Evaluate(ratio float64) []Phase {
	var entered []Phase
	for int(pc.phase) < len(pc.thresholds) && ratio <= pc.thresholds[pc.phase] {
		pc.phase++
		entered = append(entered, pc.phase)
		pc.onEnter(pc.phase)
	}
	return entered
}

// restore sets the phase without firing entry callbacks.
func (pc *PhaseController) restore(p Phase) {
	if p < Phase0 {
		p = Phase0
	}
	if p > pc.Last() {
		p = pc.Last()
	}
	pc.phase = p
}
