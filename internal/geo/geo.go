// Package geo provides the great-circle distance model shared by every
// optimization strategy: a Haversine distance function and a complete
// symmetric distance matrix over the depot and all clients.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Node is a graph node (the depot or a client) with a stable id.
type Node struct {
	ID string
	Point
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Matrix maps ordered node pairs to distances in km. Built from a metric,
// it is symmetric with a zero diagonal.
type Matrix map[string]map[string]float64

// BuildMatrix computes the complete distance matrix over the given nodes.
// It must be rebuilt whenever the node set changes.
func BuildMatrix(nodes []Node) Matrix {
	m := make(Matrix, len(nodes))
	for i, a := range nodes {
		row := make(map[string]float64, len(nodes))
		for j, b := range nodes {
			if i == j {
				row[b.ID] = 0
				continue
			}
			row[b.ID] = Haversine(a.Point, b.Point)
		}
		m[a.ID] = row
	}
	return m
}

// Dist returns the distance between two node ids, or +Inf when either id
// is not part of the matrix.
func (m Matrix) Dist(from, to string) float64 {
	row, ok := m[from]
	if !ok {
		return math.Inf(1)
	}
	d, ok := row[to]
	if !ok {
		return math.Inf(1)
	}
	return d
}
