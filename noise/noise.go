// Package noise provides bounded, zero-mean perturbations that are applied to
// synthetic readings after their deterministic value has been computed.
package noise

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

// MaxRelative bounds the combined relative perturbation of a container. Because
// it is below 1, multiplying a value by (1+delta) never flips its sign.
const MaxRelative = 0.5

// NoiseInterface is the interface for all noise types (jitter, ripple, spike).
type NoiseInterface interface {
	GetName() string                            // Returns the name of the noise source
	TypeAsString() string                       // Returns the noise type as a string
	GetMagnitude() float64                      // Returns the relative magnitude of the noise
	GetIsActive() bool                          // Returns whether the noise perturbed the signal this timestep
	Reset()                                     // Resets the internal time state
	setName(name string)                        // Sets the name when added to a container
	stepNoise(r *rand.Rand, dt float64) float64 // Steps the noise by dt seconds and returns the relative change in signal
	clone() NoiseInterface                      // Returns an independent copy with reset time state
}

// Container is an ordered collection of noise sources. Order is kept so that a
// seeded generator reproduces the same sequence.
type Container []NoiseInterface

// Add a noise source to the container. If it has no name a UUID is assigned.
// Returns the name of the noise source.
func (c *Container) Add(n NoiseInterface) string {
	if n.GetName() == "" {
		n.setName(uuid.New().String())
	}
	*c = append(*c, n)
	return n.GetName()
}

// Steps all noise sources by dt seconds and returns the sum of their effects,
// clamped to the open interval (-MaxRelative, MaxRelative).
func (c Container) StepAll(r *rand.Rand, dt float64) float64 {
	delta := 0.0
	for i := range c {
		delta += c[i].stepNoise(r, dt)
	}
	limit := math.Nextafter(MaxRelative, 0)
	return math.Max(-limit, math.Min(limit, delta))
}

// Apply returns value scaled by one step of the combined relative noise.
// The sign of value is always preserved.
func (c Container) Apply(value float64, r *rand.Rand, dt float64) float64 {
	if len(c) == 0 {
		return value
	}
	return value * (1 + c.StepAll(r, dt))
}

// Returns a container of independent copies of the noise sources, with the same
// names and parameters and reset time state. Sources are stateful, so each
// consumer stepping noise needs its own copy.
func (c Container) Clone() Container {
	if c == nil {
		return nil
	}
	out := make(Container, 0, len(c))
	for i := range c {
		out = append(out, c[i].clone())
	}
	return out
}

// Resets the time state of all noise sources.
func (c Container) ResetAll() {
	for i := range c {
		c[i].Reset()
	}
}
