package timeline

import "time"

// Phase is a named stage of a simulated impact.
type Phase string

const (
	Idle             Phase = "idle"
	Approach         Phase = "approach"
	AtmosphericEntry Phase = "atmospheric-entry"
	Impact           Phase = "impact"
	Shockwave        Phase = "shockwave"
	SecondaryEffects Phase = "secondary-effects"
	DustFormation    Phase = "dust-formation"
	Complete         Phase = "complete"
)

// Step is one scheduled transition, measured from the start of a run.
type Step struct {
	Phase    Phase
	Progress int
	Offset   time.Duration
}

// Schedule is the fixed phase sequence of every run, in firing order.
var Schedule = []Step{
	{Phase: Approach, Progress: 0, Offset: 0},
	{Phase: AtmosphericEntry, Progress: 20, Offset: 2 * time.Second},
	{Phase: Impact, Progress: 40, Offset: 4 * time.Second},
	{Phase: Shockwave, Progress: 60, Offset: 6 * time.Second},
	{Phase: SecondaryEffects, Progress: 75, Offset: 8 * time.Second},
	{Phase: DustFormation, Progress: 90, Offset: 10 * time.Second},
	{Phase: Complete, Progress: 100, Offset: 12 * time.Second},
}

// Duration is the time from start to complete.
func Duration() time.Duration {
	return Schedule[len(Schedule)-1].Offset
}

// Progress returns the percentage tied to p. Idle is 0.
func (p Phase) Progress() int {
	for _, s := range Schedule {
		if s.Phase == p {
			return s.Progress
		}
	}
	return 0
}

// Running reports whether p lies strictly between idle and complete.
func (p Phase) Running() bool {
	return p != Idle && p != Complete
}
