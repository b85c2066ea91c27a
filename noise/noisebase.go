package noise

import (
	"errors"
	"fmt"
)

// NoiseBase is the base struct for all noise types.
type NoiseBase struct {
	// Setters and getters are provided for private fields below to allow for error checking
	name      string  // identifier of the noise source within a container
	typeName  string  // the type of noise
	magnitude float64 // relative amplitude as a fraction of the signal, in [0, MaxRelative)
	Off       bool    // true: noise deactivated, false: activated

	// internal state
	isActive    bool    // whether the noise perturbed the signal in this timestep
	elapsedTime float64 // time the noise source has been stepped for in seconds
}

// Returns the name of the noise source.
func (n *NoiseBase) GetName() string {
	return n.name
}

// Returns the type of noise as a string.
func (n *NoiseBase) TypeAsString() string {
	return n.typeName
}

// Returns the relative magnitude of the noise.
func (n *NoiseBase) GetMagnitude() float64 {
	return n.magnitude
}

// Returns whether the noise perturbed the signal in this timestep.
func (n *NoiseBase) GetIsActive() bool {
	return n.isActive
}

// Returns the time the noise source has been stepped for in seconds.
func (n *NoiseBase) GetElapsedTime() float64 {
	return n.elapsedTime
}

// Sets the relative magnitude if 0 <= magnitude < MaxRelative.
func (n *NoiseBase) SetMagnitude(magnitude float64) error {
	if magnitude < 0 {
		return errors.New("magnitude must be greater than or equal to 0")
	}
	if magnitude >= MaxRelative {
		return fmt.Errorf("magnitude must be less than %g", MaxRelative)
	}
	n.magnitude = magnitude
	return nil
}

func (n *NoiseBase) setName(name string) {
	n.name = name
}

// Resets the internal time state.
func (n *NoiseBase) Reset() {
	n.isActive = false
	n.elapsedTime = 0
}
