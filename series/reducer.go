// Package series holds the bounded chart buffers and the reduction used to fit
// a long series into a fixed display resolution.
package series

import (
	"gonum.org/v1/gonum/stat"
)

// Bounds returns the [start, end) index pairs of k contiguous intervals covering
// n points. Interval sizes differ by at most one and none is empty when n >= k.
func Bounds(n, k int) [][2]int {
	if n <= 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	bounds := make([][2]int, k)
	for i := 0; i < k; i++ {
		bounds[i] = [2]int{i * n / k, (i + 1) * n / k}
	}
	return bounds
}

// Reduce buckets values into at most k points by replacing each interval with
// the arithmetic mean of its members. Input no longer than k is returned as a
// copy, so Reduce is idempotent on its own output.
func Reduce(values []float64, k int) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	if k < 1 {
		k = 1
	}
	if len(values) <= k {
		return append([]float64(nil), values...)
	}

	out := make([]float64, 0, k)
	for _, b := range Bounds(len(values), k) {
		out = append(out, stat.Mean(values[b[0]:b[1]], nil))
	}
	return out
}

// ReduceLabels picks, for each interval, the label nearest the interval midpoint.
func ReduceLabels[L any](labels []L, k int) []L {
	if len(labels) == 0 {
		return []L{}
	}
	if k < 1 {
		k = 1
	}
	if len(labels) <= k {
		return append([]L(nil), labels...)
	}

	out := make([]L, 0, k)
	for _, b := range Bounds(len(labels), k) {
		out = append(out, labels[(b[0]+b[1]-1)/2])
	}
	return out
}

// ReducePaired reduces a value series and its paired label series together.
// Both outputs have the same length when the inputs do.
func ReducePaired[L any](values []float64, labels []L, k int) ([]float64, []L) {
	return Reduce(values, k), ReduceLabels(labels, k)
}
