// Package vecmath provides elementary operations on fixed-length state vectors.
// All functions return freshly allocated vectors and never mutate their inputs.
// Callers guarantee equal lengths; these kernels never resize.
package vecmath

import "math"

// Vector is an ordered, fixed-length sequence of float64 components.
type Vector []float64

// Clone returns an independent copy of v.
func Clone(v Vector) Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Zero returns a vector of the given dimension with all components zero.
func Zero(dim int) Vector {
	return make(Vector, dim)
}

// Add returns a + b component-wise.
func Add(a, b Vector) Vector {
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// Sub returns a - b component-wise.
func Sub(a, b Vector) Vector {
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Scale returns v scaled by s.
func Scale(v Vector, s float64) Vector {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// Blend returns the linear interpolation (1-alpha)*a + alpha*b.
func Blend(a, b Vector, alpha float64) Vector {
	out := make(Vector, len(a))
	for i := range a {
		out[i] = (1-alpha)*a[i] + alpha*b[i]
	}
	return out
}

// Sin returns the component-wise sine of v.
func Sin(v Vector) Vector {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = math.Sin(v[i])
	}
	return out
}

// Cos returns the component-wise cosine of v.
func Cos(v Vector) Vector {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = math.Cos(v[i])
	}
	return out
}

// Norm returns the Euclidean norm sqrt(sum x_i^2).
func Norm(v Vector) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Mean returns the arithmetic mean of the components. Zero for an empty vector.
func Mean(v Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// AddInPlace accumulates b into a component-wise. The one mutating helper,
// used for weighted accumulation where allocating per term would be wasteful.
func AddInPlace(a, b Vector) {
	for i := range a {
		a[i] += b[i]
	}
}
