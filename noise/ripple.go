package noise

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/synaptecltd/insulation/mathfuncs"
)

// Periodic ripple, such as mains pickup on the measurement leads, or any other
// curve from mathfuncs ("flat" gives a constant bias, "linear" a drift that
// settles after Period). The ripple is driven by elapsed time rather than by
// the random source.
type rippleNoise struct {
	NoiseBase

	period      float64 // period of the ripple in seconds
	shapeName   string  // name of the periodic function, defaults to "sine"
	shapeFunc   mathfuncs.MathsFunction
	phaseOffset float64 // time offset applied to the ripple in seconds
}

// Parameters used to request ripple noise.
type RippleParams struct {
	Name        string  `yaml:"Name" mapstructure:"Name"`
	Off         bool    `yaml:"Off" mapstructure:"Off"`
	Magnitude   float64 `yaml:"Magnitude" mapstructure:"Magnitude"`     // relative amplitude of the ripple
	Period      float64 `yaml:"Period" mapstructure:"Period"`           // period of the ripple in seconds, must be > 0
	Shape       string  `yaml:"Shape" mapstructure:"Shape"`             // name of a mathfuncs curve, empty defaults to "sine"
	PhaseOffset float64 `yaml:"PhaseOffset" mapstructure:"PhaseOffset"` // offset in seconds
}

// Initialise the internal fields of rippleNoise when it is unmarshalled from yaml.
func (p *rippleNoise) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var params RippleParams
	if err := unmarshal(&params); err != nil {
		return err
	}

	ripple, err := NewRippleNoise(params)
	if err != nil {
		return err
	}

	*p = *ripple
	return nil
}

// Returns a rippleNoise pointer with the requested parameters, checking for invalid values.
func NewRippleNoise(params RippleParams) (*rippleNoise, error) {
	ripple := &rippleNoise{}

	if err := ripple.SetMagnitude(params.Magnitude); err != nil {
		return nil, err
	}
	if err := ripple.SetPeriod(params.Period); err != nil {
		return nil, err
	}
	if err := ripple.SetShapeByName(params.Shape); err != nil {
		return nil, err
	}

	ripple.name = params.Name
	ripple.typeName = "ripple"
	ripple.Off = params.Off
	ripple.phaseOffset = params.PhaseOffset

	return ripple, nil
}

func (p *rippleNoise) stepNoise(_ *rand.Rand, dt float64) float64 {
	t := p.elapsedTime + p.phaseOffset
	p.elapsedTime += dt
	if p.Off || p.magnitude == 0 {
		p.isActive = false
		return 0.0
	}

	p.isActive = true
	return p.shapeFunc(t, p.magnitude, p.period)
}

// Sets the ripple period in seconds if period > 0.
func (p *rippleNoise) SetPeriod(period float64) error {
	if period <= 0 {
		return errors.New("period must be greater than 0")
	}
	p.period = period
	return nil
}

// Sets the periodic function used for the ripple.
func (p *rippleNoise) SetShapeByName(name string) error {
	if name == "" {
		name = "sine"
	}

	f, err := mathfuncs.GetMathsFunctionFromName(name)
	if err != nil {
		return fmt.Errorf("ripple shape must be one of %s", strings.Join(mathfuncs.GetMathsFunctionNames(), ", "))
	}
	p.shapeName = name
	p.shapeFunc = f
	return nil
}

func (p *rippleNoise) clone() NoiseInterface {
	c := *p
	c.Reset()
	return &c
}

func (p *rippleNoise) GetPeriod() float64 {
	return p.period
}

func (p *rippleNoise) GetShapeName() string {
	return p.shapeName
}
