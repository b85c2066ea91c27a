package noise

import (
	"math"
	"math/rand/v2"

	"github.com/synaptecltd/insulation/mathfuncs"
)

// Random jitter truncated to +/- magnitude. Gaussian jitter has a standard
// deviation of a third of the magnitude so truncation rarely applies; uniform
// jitter spans the whole band.
type jitterNoise struct {
	NoiseBase

	distribution string // name of the mathfuncs random function, defaults to "gaussian"
	drawFunc     mathfuncs.RandomFunction
	scale        float64 // scale passed to drawFunc
}

// Parameters used to request jitter noise.
type JitterParams struct {
	Name         string  `yaml:"Name" mapstructure:"Name"`                 // name of the noise source, used for identification
	Off          bool    `yaml:"Off" mapstructure:"Off"`                   // true: noise deactivated, false: activated
	Magnitude    float64 `yaml:"Magnitude" mapstructure:"Magnitude"`       // bound of the relative jitter, default 0
	Distribution string  `yaml:"Distribution" mapstructure:"Distribution"` // "gaussian" or "uniform", empty defaults to "gaussian"
}

// Initialise the internal fields of jitterNoise when it is unmarshalled from yaml.
func (j *jitterNoise) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var params JitterParams
	if err := unmarshal(&params); err != nil {
		return err
	}

	jitter, err := NewJitterNoise(params)
	if err != nil {
		return err
	}

	*j = *jitter
	return nil
}

// Returns a jitterNoise pointer with the requested parameters, checking for invalid values.
func NewJitterNoise(params JitterParams) (*jitterNoise, error) {
	jitter := &jitterNoise{}

	if err := jitter.SetMagnitude(params.Magnitude); err != nil {
		return nil, err
	}
	if err := jitter.SetDistribution(params.Distribution); err != nil {
		return nil, err
	}

	jitter.name = params.Name
	jitter.typeName = "jitter"
	jitter.Off = params.Off

	return jitter, nil
}

func (j *jitterNoise) stepNoise(r *rand.Rand, dt float64) float64 {
	j.elapsedTime += dt
	if j.Off || j.magnitude == 0 {
		j.isActive = false
		return 0.0
	}

	j.isActive = true
	delta := j.drawFunc(r, j.magnitude*j.scale)
	return math.Max(-j.magnitude, math.Min(j.magnitude, delta))
}

// Sets the distribution the jitter is drawn from.
func (j *jitterNoise) SetDistribution(name string) error {
	if name == "" {
		name = "gaussian"
	}

	f, err := mathfuncs.GetRandomFunctionFromName(name)
	if err != nil {
		return err
	}
	j.distribution = name
	j.drawFunc = f
	j.scale = 1.0
	if name == "gaussian" {
		j.scale = 1.0 / 3
	}
	return nil
}

func (j *jitterNoise) GetDistribution() string {
	return j.distribution
}

func (j *jitterNoise) clone() NoiseInterface {
	c := *j
	c.Reset()
	return &c
}
