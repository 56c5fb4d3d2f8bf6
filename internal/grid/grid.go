package grid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/combin"
)

// ErrEmptyGrid is returned when a grid has no axes or an axis has no values.
var ErrEmptyGrid = errors.New("empty parameter grid")

// Axis is one named hyperparameter and its ordered candidate values.
type Axis struct {
	Name   string
	Values []interface{}
}

// ParameterGrid is an ordered collection of axes. Axes keep insertion order.
// The zero value is an empty grid ready for use.
type ParameterGrid struct {
	axes []Axis
}

// Add appends an axis. Adding a name twice replaces the earlier values but
// keeps its original position.
func (g *ParameterGrid) Add(name string, values ...interface{}) *ParameterGrid {
	for i := range g.axes {
		if g.axes[i].Name == name {
			g.axes[i].Values = values
			return g
		}
	}
	g.axes = append(g.axes, Axis{Name: name, Values: values})
	return g
}

// AddRanges appends an axis of SizeRange values.
func (g *ParameterGrid) AddRanges(name string, ranges []SizeRange) *ParameterGrid {
	values := make([]interface{}, len(ranges))
	for i, r := range ranges {
		values[i] = r
	}
	return g.Add(name, values...)
}

// AddInts appends an axis of int values.
func (g *ParameterGrid) AddInts(name string, ints []int) *ParameterGrid {
	values := make([]interface{}, len(ints))
	for i, v := range ints {
		values[i] = v
	}
	return g.Add(name, values...)
}

// AddFloats appends an axis of float64 values.
func (g *ParameterGrid) AddFloats(name string, floats []float64) *ParameterGrid {
	values := make([]interface{}, len(floats))
	for i, v := range floats {
		values[i] = v
	}
	return g.Add(name, values...)
}

// Axes returns the axes in insertion order.
func (g *ParameterGrid) Axes() []Axis {
	return append([]Axis(nil), g.axes...)
}

// Size returns the number of grid points.
func (g *ParameterGrid) Size() int {
	if len(g.axes) == 0 {
		return 0
	}
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates the cartesian product of the axes. The first axis varies
// slowest and the last axis fastest. It returns ErrEmptyGrid when the product
// is empty.
func (g *ParameterGrid) Points() ([]Point, error) {
	if g.Size() == 0 {
		if len(g.axes) == 0 {
			return nil, errors.Wrap(ErrEmptyGrid, "no axes")
		}
		for _, a := range g.axes {
			if len(a.Values) == 0 {
				return nil, errors.Wrapf(ErrEmptyGrid, "axis %q has no values", a.Name)
			}
		}
	}

	lens := make([]int, len(g.axes))
	for i, a := range g.axes {
		lens[i] = len(a.Values)
	}

	subs := combin.Cartesian(lens)
	points := make([]Point, len(subs))
	for i, sub := range subs {
		p := Point{names: make([]string, len(g.axes)), values: make([]interface{}, len(g.axes))}
		for j, a := range g.axes {
			p.names[j] = a.Name
			p.values[j] = a.Values[sub[j]]
		}
		points[i] = p
	}
	return points, nil
}

// Point is one concrete assignment of a value to every axis of a grid.
type Point struct {
	names  []string
	values []interface{}
}

// NewPoint builds a point from alternating name/value pairs. It is mostly
// useful for tests and for refitting a stored configuration.
func NewPoint(pairs ...interface{}) Point {
	var p Point
	for i := 0; i+1 < len(pairs); i += 2 {
		p.names = append(p.names, fmt.Sprint(pairs[i]))
		p.values = append(p.values, pairs[i+1])
	}
	return p
}

// Names returns the axis names in grid order.
func (p Point) Names() []string {
	return append([]string(nil), p.names...)
}

// Get returns the value for name.
func (p Point) Get(name string) (interface{}, bool) {
	for i, n := range p.names {
		if n == name {
			return p.values[i], true
		}
	}
	return nil, false
}

// Map returns the point as a name to value map.
func (p Point) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(p.names))
	for i, n := range p.names {
		m[n] = p.values[i]
	}
	return m
}

// String formats the point as "name=value" pairs in grid order.
func (p Point) String() string {
	parts := make([]string, len(p.names))
	for i, n := range p.names {
		parts[i] = fmt.Sprintf("%s=%v", n, p.values[i])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalJSON encodes the point as a JSON object. Key order follows encoding/json map rules.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}
