package noise

import (
	"errors"
	"math/rand/v2"
)

// Produces occasional spikes: these occur at each timestep based on a probability
// factor, with equal chance of either sign.
type spikeNoise struct {
	NoiseBase

	probability float64 // probability of a spike in each time step
}

// Parameters used to request spike noise.
type SpikeParams struct {
	Name        string  `yaml:"Name" mapstructure:"Name"`
	Off         bool    `yaml:"Off" mapstructure:"Off"`
	Magnitude   float64 `yaml:"Magnitude" mapstructure:"Magnitude"`     // relative magnitude of spikes, default 0
	Probability float64 `yaml:"Probability" mapstructure:"Probability"` // probability of a spike in each time step, default 0
}

// Initialise the internal fields of spikeNoise when it is unmarshalled from yaml.
func (s *spikeNoise) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var params SpikeParams
	if err := unmarshal(&params); err != nil {
		return err
	}

	spike, err := NewSpikeNoise(params)
	if err != nil {
		return err
	}

	*s = *spike
	return nil
}

// Returns a spikeNoise pointer with the requested parameters, checking for invalid values.
func NewSpikeNoise(params SpikeParams) (*spikeNoise, error) {
	spike := &spikeNoise{}

	if err := spike.SetMagnitude(params.Magnitude); err != nil {
		return nil, err
	}
	if err := spike.SetProbability(params.Probability); err != nil {
		return nil, err
	}

	spike.name = params.Name
	spike.typeName = "spike"
	spike.Off = params.Off

	return spike, nil
}

func (s *spikeNoise) stepNoise(r *rand.Rand, dt float64) float64 {
	s.elapsedTime += dt
	if s.Off {
		s.isActive = false
		return 0.0
	}

	// Don't trigger if the probability is not met
	if r.Float64() >= s.probability {
		s.isActive = false
		return 0.0
	}

	s.isActive = true
	if r.Float64() < 0.5 {
		return -s.magnitude
	}
	return s.magnitude
}

// Set probability of spikes occurring each timestep if 0 <= probability <= 1.
func (s *spikeNoise) SetProbability(probability float64) error {
	if probability < 0 || probability > 1 {
		return errors.New("probability must be between 0 and 1")
	}
	s.probability = probability
	return nil
}

func (s *spikeNoise) clone() NoiseInterface {
	c := *s
	c.Reset()
	return &c
}

func (s *spikeNoise) GetProbability() float64 {
	return s.probability
}
