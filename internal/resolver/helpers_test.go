package resolver

import (
	"github.com/banshee-data/facing.report/internal/angles"
)

func pos(x, y float64) *angles.Vec3 {
	return &angles.Vec3{X: x, Y: y}
}

func candidate(id EntityID, x, y float64) Candidate {
	return Candidate{
		ID:       id,
		Alive:    true,
		Visible:  true,
		Position: pos(x, y),
		Health:   100,
		Props:    &Properties{},
	}
}

func stateWith(samples ...float64) *TrackedEntityState {
	st := newTrackedEntityState(1, 16)
	for _, s := range samples {
		st.History.Push(s)
	}
	return st
}
