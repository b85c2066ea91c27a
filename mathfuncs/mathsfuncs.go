package mathfuncs

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/stevenblair/sigourney/fast"
)

// A mathematical function y=f(t,A,T). Takes amplitude, A, and period or time constant, T,
// as inputs and returns the value of the function at time, t.
type MathsFunction func(t, A, T float64) float64

// A map between string name and MathsFunction pairs
var mathsFunctions = map[string]MathsFunction{
	"linear":                 LinearRamp,
	"sine":                   Sine,
	"cosine":                 cosineWave,
	"exponential_decay":      ExponentialDecay,
	"exponential_decay_full": ExponentialSaturation,
	"log_growth":             LogGrowth,
	"square":                 squareWave,
	"flat":                   flat,
}

// A random function y=f(r,A) drawing a value of scale A from the generator r.
type RandomFunction func(r *rand.Rand, A float64) float64

// A map between string name and RandomFunction pairs
var randomFunctions = map[string]RandomFunction{
	"uniform":  UniformNoise,
	"gaussian": GaussianNoise,
}

// Returns the names of all MathsFunctions in name order.
func GetMathsFunctionNames() []string {
	names := make([]string, 0, len(mathsFunctions))
	for name := range mathsFunctions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Returns the named function.
func GetMathsFunctionFromName(name string) (MathsFunction, error) {
	f, ok := mathsFunctions[name]
	if !ok {
		return nil, errors.New("maths function not found")
	}

	return f, nil
}

// Returns the named random function.
func GetRandomFunctionFromName(name string) (RandomFunction, error) {
	f, ok := randomFunctions[name]
	if !ok {
		return nil, errors.New("random function not found")
	}

	return f, nil
}

// Returns a linear ramp y=(A/T)*t where A is the magnitude of the ramp, T is
// its duration, and t is elapsed time. The ramp is held at A once t >= T.
func LinearRamp(t, A, T float64) float64 {
	if t >= T {
		return A
	}
	m := A / T // slope of the ramp
	return m * t
}

// Returns a sine wave y = A*sin(2π * t / PeriodDuration)
func Sine(t, A, PeriodDuration float64) float64 {
	if PeriodDuration <= 0 {
		PeriodDuration = 1.0
	}
	return A * fast.Sin(2*math.Pi*t/PeriodDuration)
}

// Returns a cosine wave y=A*cos(2*pi*t/T) where A is the amplitude,
// T is the period, and t is elapsed time.
func cosineWave(t, A, T float64) float64 {
	return A * fast.Cos(2*math.Pi*t/T)
}

// Returns an exponential decay y=A*exp(-t/T) where A is the amplitude,
// T is the time constant, and t is elapsed time.
func ExponentialDecay(t, A, T float64) float64 {
	return A * math.Exp(-t/T)
}

// Returns an exponential rise towards A, y=A*(1-exp(-t/T)), where T is
// the time constant, and t is elapsed time.
func ExponentialSaturation(t, A, T float64) float64 {
	return A * (1 - math.Exp(-t/T))
}

// Returns logarithmic growth y=A*ln(1+t/T). Negative t is treated as zero.
func LogGrowth(t, A, T float64) float64 {
	if t < 0 {
		t = 0
	}
	return A * math.Log1p(t/T)
}

// Returns a square wave y=A if sin(2*pi*t/T) >= 0, else -A.
func squareWave(t, A, T float64) float64 {
	if fast.Sin(2*math.Pi*t/T) >= 0 {
		return A
	} else {
		return -A
	}
}

// Returns uniform noise in [-A, A) drawn from r.
func UniformNoise(r *rand.Rand, A float64) float64 {
	return A * (r.Float64()*2 - 1)
}

// Returns Gaussian noise with standard deviation A drawn from r.
func GaussianNoise(r *rand.Rand, A float64) float64 {
	return r.NormFloat64() * A
}

// flat returns a constant value equal to A, independent of time t or period T.
func flat(t, A, T float64) float64 {
	return A
}
