package region

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Point is a pixel coordinate; Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a geometry given by its vertices. Only its bounding box matters
// for classification, so holes and multi-part geometries flatten into one
// vertex list.
type Polygon []Point

// Bounds returns the bounding box of p. It is false for an empty polygon.
func (p Polygon) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	if len(p) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, v := range p {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return minX, minY, maxX, maxY, true
}

var wktTypes = map[string]bool{
	"POINT":           true,
	"LINESTRING":      true,
	"POLYGON":         true,
	"MULTIPOINT":      true,
	"MULTILINESTRING": true,
	"MULTIPOLYGON":    true,
}

// ParseWKT reads the vertices of a WKT geometry such as
// "POLYGON ((0 0, 10 0, 10 5, 0 0))". Z and M ordinates are ignored.
func ParseWKT(s string) (Polygon, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") || strings.Count(s, "(") != strings.Count(s, ")") {
		return nil, errors.Errorf("wkt: malformed geometry %q", s)
	}
	kind := strings.Fields(strings.ToUpper(s[:open]))
	if len(kind) == 0 || !wktTypes[kind[0]] {
		return nil, errors.Errorf("wkt: unsupported geometry %q", s[:open])
	}

	body := strings.NewReplacer("(", " ", ")", " ").Replace(s[open:])
	var poly Polygon
	for _, coord := range strings.Split(body, ",") {
		fields := strings.Fields(coord)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.Errorf("wkt: coordinate %q needs x and y", strings.TrimSpace(coord))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Wrap(err, "wkt")
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrap(err, "wkt")
		}
		poly = append(poly, Point{X: x, Y: y})
	}
	if len(poly) == 0 {
		return nil, errors.Errorf("wkt: empty geometry %q", s)
	}
	return poly, nil
}
