package source

import (
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/oceanbgc/climodiag/internal/dataset"
)

// readFile opens one NetCDF file and loads its coordinates plus every data
// variable accepted by keep. Variables outside keep that still carry a time
// dimension are dropped, mirroring the keep-vars pruning the diagnostics
// have always done to bound memory.
func readFile(path string, keep func(string) bool) (*dataset.Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer nc.Close()

	ds := dataset.New()

	timeVar, err := nc.GetVariable("time")
	if err == nil {
		ds.Time, err = flatten(timeVar.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: time: %w", path, err)
		}
		ds.TimeUnits = stringAttr(timeVar.Attributes, "units")
		ds.Calendar = stringAttr(timeVar.Attributes, "calendar")
		if err := readTimeBounds(nc, timeVar, ds); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	readDepth(nc, ds)
	readGrid(nc, ds)

	for _, name := range nc.ListVariables() {
		if isCoordinate(name) || !keep(name) {
			continue
		}
		vr, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, name, err)
		}
		f, err := toField(name, vr)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, name, err)
		}
		ds.Fields[name] = f
	}
	return ds, nil
}

// readTimeBounds follows the time variable's bounds attribute, falling back
// to the conventional time_bound name.
func readTimeBounds(nc api.Group, timeVar *api.Variable, ds *dataset.Dataset) error {
	tbName := stringAttr(timeVar.Attributes, "bounds")
	if tbName == "" {
		tbName = "time_bound"
	}
	tb, err := nc.GetVariable(tbName)
	if err != nil {
		return nil // no bounds; climatology sources often omit them
	}
	flat, err := flatten(tb.Values)
	if err != nil {
		return fmt.Errorf("%s: %w", tbName, err)
	}
	if len(flat)%2 != 0 {
		return fmt.Errorf("%s: odd element count %d", tbName, len(flat))
	}
	ds.TimeBounds = make([][2]float64, len(flat)/2)
	for i := range ds.TimeBounds {
		ds.TimeBounds[i] = [2]float64{flat[2*i], flat[2*i+1]}
	}
	return nil
}

func readDepth(nc api.Group, ds *dataset.Dataset) {
	// POP model output uses z_t in centimeters; observational products use
	// depth in meters.
	if zt, err := nc.GetVariable("z_t"); err == nil {
		if values, err := flatten(zt.Values); err == nil {
			for i := range values {
				values[i] *= 1e-2
			}
			ds.DepthName, ds.Depth = "z_t", values
			return
		}
	}
	if depth, err := nc.GetVariable("depth"); err == nil {
		if values, err := flatten(depth.Values); err == nil {
			ds.DepthName, ds.Depth = "depth", values
		}
	}
}

func readGrid(nc api.Group, ds *dataset.Dataset) {
	for _, name := range []string{"TLAT", "lat", "latitude"} {
		if v, err := nc.GetVariable(name); err == nil {
			if values, err := flatten(v.Values); err == nil {
				ds.Lat = values
				break
			}
		}
	}
	for _, name := range []string{"TLONG", "lon", "longitude"} {
		if v, err := nc.GetVariable(name); err == nil {
			if values, err := flatten(v.Values); err == nil {
				ds.Lon = values
				break
			}
		}
	}
	if v, err := nc.GetVariable("TAREA"); err == nil {
		if f, err := toField("TAREA", v); err == nil {
			ds.Area = f
		}
	}
}

func isCoordinate(name string) bool {
	switch name {
	case "time", "time_bound", "time_bnds", "z_t", "depth",
		"lat", "latitude", "TLAT", "lon", "longitude", "TLONG", "TAREA":
		return true
	}
	return false
}

// toField converts a NetCDF variable into a dense float64 field.
func toField(name string, vr *api.Variable) (*dataset.Field, error) {
	shape := valueShape(vr.Values)
	if len(shape) != len(vr.Dimensions) {
		return nil, fmt.Errorf("rank mismatch: %d dims, %d-deep values",
			len(vr.Dimensions), len(shape))
	}
	values, err := flatten(vr.Values)
	if err != nil {
		return nil, err
	}
	f := &dataset.Field{
		Name:     name,
		Dims:     append([]string(nil), vr.Dimensions...),
		Shape:    shape,
		Values:   values,
		Units:    stringAttr(vr.Attributes, "units"),
		LongName: stringAttr(vr.Attributes, "long_name"),
	}
	applyFillValue(f, vr.Attributes)
	return f, nil
}

// applyFillValue replaces fill/missing sentinels with NaN.
func applyFillValue(f *dataset.Field, attrs api.AttributeMap) {
	for _, key := range []string{"_FillValue", "missing_value"} {
		raw, has := attrs.Get(key)
		if !has {
			continue
		}
		fill, ok := numeric(raw)
		if !ok {
			continue
		}
		for i, v := range f.Values {
			if v == fill {
				f.Values[i] = math.NaN()
			}
		}
	}
}

func stringAttr(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	raw, has := attrs.Get(key)
	if !has {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

func numeric(raw any) (float64, bool) {
	v := reflect.ValueOf(raw)
	// Single-element attribute arrays are common in NetCDF files.
	if v.Kind() == reflect.Slice && v.Len() == 1 {
		v = v.Index(0)
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// valueShape infers the array shape from the nested-slice form the reader
// returns.
func valueShape(values any) []int {
	var shape []int
	v := reflect.ValueOf(values)
	for v.Kind() == reflect.Slice {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}
	return shape
}

// flatten converts arbitrarily nested numeric slices to a flat row-major
// float64 slice.
func flatten(values any) ([]float64, error) {
	var out []float64
	var walk func(v reflect.Value) error
	walk = func(v reflect.Value) error {
		switch v.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < v.Len(); i++ {
				if err := walk(v.Index(i)); err != nil {
					return err
				}
			}
			return nil
		case reflect.Float32, reflect.Float64:
			out = append(out, v.Float())
			return nil
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(v.Int()))
			return nil
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(v.Uint()))
			return nil
		case reflect.Interface:
			return walk(v.Elem())
		}
		return fmt.Errorf("unsupported element type %s", v.Kind())
	}
	if err := walk(reflect.ValueOf(values)); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeTime concatenates datasets along the time axis, in the given order.
// Coordinates and grid fields come from the first dataset.
func mergeTime(parts []*dataset.Dataset) (*dataset.Dataset, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	out := dataset.New()
	first := parts[0]
	out.TimeUnits, out.Calendar = first.TimeUnits, first.Calendar
	out.DepthName, out.Depth = first.DepthName, first.Depth
	out.Lat, out.Lon, out.Area = first.Lat, first.Lon, first.Area

	for _, p := range parts {
		out.Time = append(out.Time, p.Time...)
		out.TimeBounds = append(out.TimeBounds, p.TimeBounds...)
	}

	for name, f := range first.Fields {
		axis, ok := f.DimIndex("time")
		if !ok {
			out.Fields[name] = f
			continue
		}
		if axis != 0 {
			return nil, fmt.Errorf("field %s: time must be the leading dimension", name)
		}
		merged := &dataset.Field{
			Name:     f.Name,
			Dims:     append([]string(nil), f.Dims...),
			Shape:    append([]int(nil), f.Shape...),
			Units:    f.Units,
			LongName: f.LongName,
		}
		merged.Shape[0] = 0
		for _, p := range parts {
			pf, ok := p.Fields[name]
			if !ok {
				return nil, fmt.Errorf("field %s missing from one of the input files", name)
			}
			merged.Values = append(merged.Values, pf.Values...)
			merged.Shape[0] += pf.Shape[0]
		}
		out.Fields[name] = merged
	}
	return out, nil
}
