// Package dataset holds the in-memory representation of a loaded data
// source: named gridded fields over (time, depth, lat, lon) axes, plus the
// reductions the diagnostics need (time means, depth selection, monthly
// climatology, area-weighted statistics).
//
// Fields are dense row-major float64 arrays with NaN marking masked cells
// (land points, missing values). All reductions skip NaN.
package dataset

import (
	"fmt"
	"math"
)

// Field is one named variable: a dense row-major array with named
// dimensions.
type Field struct {
	Name     string
	Dims     []string
	Shape    []int
	Values   []float64
	Units    string
	LongName string
}

// NewField allocates a field of the given shape, filled with NaN.
func NewField(name string, dims []string, shape []int) *Field {
	n := 1
	for _, s := range shape {
		n *= s
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}
	return &Field{Name: name, Dims: append([]string(nil), dims...), Shape: append([]int(nil), shape...), Values: values}
}

// Len returns the flat element count.
func (f *Field) Len() int {
	n := 1
	for _, s := range f.Shape {
		n *= s
	}
	return n
}

// DimIndex finds the axis position of a named dimension.
func (f *Field) DimIndex(dim string) (int, bool) {
	for i, d := range f.Dims {
		if d == dim {
			return i, true
		}
	}
	return 0, false
}

// strides returns the row-major stride of each dimension.
func (f *Field) strides() []int {
	strides := make([]int, len(f.Shape))
	stride := 1
	for i := len(f.Shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= f.Shape[i]
	}
	return strides
}

// dropDim returns the dims/shape with axis i removed.
func (f *Field) dropDim(i int) ([]string, []int) {
	dims := make([]string, 0, len(f.Dims)-1)
	shape := make([]int, 0, len(f.Shape)-1)
	for j := range f.Dims {
		if j != i {
			dims = append(dims, f.Dims[j])
			shape = append(shape, f.Shape[j])
		}
	}
	return dims, shape
}

// MeanOver averages the field across the given indices of the named
// dimension, dropping that dimension from the result. A nil indices slice
// averages across the whole axis. NaN cells do not contribute; a cell with
// no contributors stays NaN.
func (f *Field) MeanOver(dim string, indices []int) (*Field, error) {
	axis, ok := f.DimIndex(dim)
	if !ok {
		return nil, fmt.Errorf("field %s has no dimension %q", f.Name, dim)
	}
	if indices == nil {
		indices = make([]int, f.Shape[axis])
		for i := range indices {
			indices[i] = i
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= f.Shape[axis] {
			return nil, fmt.Errorf("field %s: index %d out of range for dimension %q (size %d)",
				f.Name, idx, dim, f.Shape[axis])
		}
	}

	dims, shape := f.dropDim(axis)
	out := NewField(f.Name, dims, shape)
	out.Units, out.LongName = f.Units, f.LongName

	strides := f.strides()
	outLen := out.Len()
	sums := make([]float64, outLen)
	counts := make([]int, outLen)

	// Walk the output positions; for each, accumulate the selected slices
	// of the reduced axis.
	outStrides := out.strides()
	for flat := 0; flat < outLen; flat++ {
		// Recover the multi-index of the output position, then the base
		// offset in the input array with the reduced axis at 0.
		base := 0
		rem := flat
		oi := 0
		for d := 0; d < len(f.Shape); d++ {
			if d == axis {
				continue
			}
			idx := rem / outStrides[oi]
			rem = rem % outStrides[oi]
			base += idx * strides[d]
			oi++
		}
		for _, idx := range indices {
			v := f.Values[base+idx*strides[axis]]
			if !math.IsNaN(v) {
				sums[flat] += v
				counts[flat]++
			}
		}
	}
	for i := range sums {
		if counts[i] > 0 {
			out.Values[i] = sums[i] / float64(counts[i])
		}
	}
	return out, nil
}

// SliceAt selects a single index of the named dimension, dropping it.
func (f *Field) SliceAt(dim string, index int) (*Field, error) {
	return f.MeanOver(dim, []int{index})
}

// Sub returns f - other elementwise. Shapes must match exactly.
func (f *Field) Sub(other *Field) (*Field, error) {
	if len(f.Shape) != len(other.Shape) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", f.Shape, other.Shape)
	}
	for i := range f.Shape {
		if f.Shape[i] != other.Shape[i] {
			return nil, fmt.Errorf("shape mismatch: %v vs %v", f.Shape, other.Shape)
		}
	}
	out := NewField(f.Name, f.Dims, f.Shape)
	out.Units, out.LongName = f.Units, f.LongName
	for i := range f.Values {
		out.Values[i] = f.Values[i] - other.Values[i]
	}
	return out, nil
}

// Dataset is the in-memory form of one opened data source slice.
type Dataset struct {
	Fields map[string]*Field

	Time       []float64
	TimeBounds [][2]float64
	TimeUnits  string
	Calendar   string

	DepthName string
	Depth     []float64

	Lat []float64
	Lon []float64

	// Area holds per-cell areas (e.g. TAREA) for weighted statistics;
	// nil when the source provides none.
	Area *Field
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{Fields: map[string]*Field{}}
}

// TimeLen returns the length of the time axis.
func (ds *Dataset) TimeLen() int { return len(ds.Time) }

// Field looks up a variable by its dataset-local name.
func (ds *Dataset) Field(name string) (*Field, bool) {
	f, ok := ds.Fields[name]
	return f, ok
}

// NearestDepthIndex returns the index of the model level closest to the
// requested depth.
func (ds *Dataset) NearestDepthIndex(depth float64) (int, error) {
	if len(ds.Depth) == 0 {
		return 0, fmt.Errorf("dataset has no depth coordinate")
	}
	best, bestDist := 0, math.Inf(1)
	for i, z := range ds.Depth {
		if d := math.Abs(z - depth); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// DepthRangeIndices returns the indices of all levels in [top, bottom].
func (ds *Dataset) DepthRangeIndices(top, bottom float64) ([]int, error) {
	if len(ds.Depth) == 0 {
		return nil, fmt.Errorf("dataset has no depth coordinate")
	}
	var indices []int
	for i, z := range ds.Depth {
		if z >= top && z <= bottom {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("no model levels between %.0fm and %.0fm", top, bottom)
	}
	return indices, nil
}

// SelectDepth reduces a field's depth axis: a single level picks the
// nearest model level, a range averages the levels it spans. Fields with
// no depth axis pass through unchanged.
func (ds *Dataset) SelectDepth(f *Field, top, bottom float64, isRange bool) (*Field, error) {
	if _, ok := f.DimIndex(ds.DepthName); !ok {
		return f, nil
	}
	if isRange {
		indices, err := ds.DepthRangeIndices(top, bottom)
		if err != nil {
			return nil, err
		}
		return f.MeanOver(ds.DepthName, indices)
	}
	idx, err := ds.NearestDepthIndex(top)
	if err != nil {
		return nil, err
	}
	return f.SliceAt(ds.DepthName, idx)
}
