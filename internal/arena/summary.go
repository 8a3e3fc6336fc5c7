package arena

// Share is one contributor's part of the total.
type Share struct {
	Total float64 `json:"total"`
	Ratio float64 `json:"ratio"`
}

// Summary aggregates a batch of runs. Add is not safe for concurrent use.
type Summary struct {
	Runs     int              `json:"runs"`
	Wins     int              `json:"wins"`
	WinRate  float64          `json:"win_rate"`
	AvgTicks float64          `json:"avg_ticks"`
	AvgDPS   float64          `json:"avg_dps"`
	AvgPhase float64          `json:"avg_phase"`
	ByHero   map[string]Share `json:"by_hero"`
	Events   map[string]int   `json:"events"`

	sumTicks, sumDPS, sumPhase float64
	damage                     map[string]float64
}

func NewSummary() *Summary {
	return &Summary{ByHero: map[string]Share{}, Events: map[string]int{}, damage: map[string]float64{}}
}

func (s *Summary) Add(r *Result) {
	s.Runs++
	if r.Win {
		s.Wins++
	}
	s.sumTicks += float64(r.Ticks)
	s.sumDPS += r.DPS
	s.sumPhase += float64(r.PhaseReached)
	for k, v := range r.DamageByHero {
		s.damage[k] += v
	}
	for k, v := range r.EventCounts {
		s.Events[k] += v
	}
	s.finish()
}

func (s *Summary) finish() {
	n := float64(s.Runs)
	s.WinRate = float64(s.Wins) / n
	s.AvgTicks = s.sumTicks / n
	s.AvgDPS = s.sumDPS / n
	s.AvgPhase = s.sumPhase / n

	total := 0.0
	for _, v := range s.damage {
		total += v
	}
	for k, v := range s.damage {
		sh := Share{Total: v}
		if total > 0 {
			sh.Ratio = v / total
		}
		s.ByHero[k] = sh
	}
}
