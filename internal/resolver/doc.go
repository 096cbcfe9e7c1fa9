// Package resolver estimates the hidden facing yaw of a tracked entity.
//
// Responsibilities: target selection with hysteresis, per-entity yaw
// history, behaviour classification (oscillation, anomalous simulation
// timing, lower-body-yaw updates), weighted multi-hypothesis fusion into a
// single yaw and confidence, and hit/miss driven fallback cycling.
// Key types: Engine, TrackedEntityState, Selector, Hypothesis.
//
// The package performs no I/O. Hosts push a Frame per simulation tick and
// hit/miss/round events between ticks; the Engine publishes overrides to a
// Sink and exposes read-only snapshots.
package resolver
