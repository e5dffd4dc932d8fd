// Package opt implements the route-optimization engine: three interchangeable
// strategies over a shared great-circle distance model.
//
//   - bellman_ford: single-source shortest paths from the depot plus a
//     priority/capacity greedy assignment.
//   - programacion_dinamica: exact Held-Karp TSP per priority group, groups
//     assigned to vehicles by descending capacity.
//   - backtracking: capacity pre-partition per vehicle, then an exact
//     branch-and-bound visit-order search pruned by an MST lower bound.
//
// Every strategy is stateless across calls; search state lives inside one
// Optimize invocation. Concurrent callers must use separate invocations.
package opt

import (
	"fmt"
	"sort"
	"time"

	"rutaopt/internal/geo"
	"rutaopt/internal/model"
)

// Strategy names accepted by New.
const (
	AlgorithmBellmanFord        = "bellman_ford"
	AlgorithmDynamicProgramming = "programacion_dinamica"
	AlgorithmBacktracking       = "backtracking"
)

// IncumbentEvent reports a branch-and-bound improvement: a new best visit
// order found for one vehicle. Used to observe the anytime behavior live.
type IncumbentEvent struct {
	VehicleID string   `json:"vehiculo_id"`
	Cost      float64  `json:"costo"`
	Path      []string `json:"ruta"`
	Elapsed   float64  `json:"transcurrido"`
}

// Params carries the per-run tunables shared by the strategies. The zero
// value is not usable; start from DefaultParams.
type Params struct {
	DepotID   string
	DepotName string
	DepotLat  float64
	DepotLon  float64

	// RouteTimeLimitMin caps each route's estimated time in minutes.
	RouteTimeLimitMin float64
	// MinutesPerKm converts distance to estimated travel time.
	MinutesPerKm float64
	// SearchTimeLimit bounds the branch-and-bound wall clock.
	SearchTimeLimit time.Duration
	// MaxExactGroup caps the per-priority group size fed to the exact
	// Held-Karp solver; beyond it the DP run fails instead of exploding.
	MaxExactGroup int

	// OnIncumbent, when set, observes branch-and-bound improvements.
	OnIncumbent func(IncumbentEvent)
}

// DefaultParams returns the production defaults of the legacy system:
// the Lima central depot, an 8-hour route budget at 2 min/km, a 5-minute
// search cutoff and a 16-client exact-TSP cap.
func DefaultParams() Params {
	return Params{
		DepotID:           "deposito",
		DepotName:         "Depósito Central",
		DepotLat:          -12.0464,
		DepotLon:          -77.0428,
		RouteTimeLimitMin: 480,
		MinutesPerKm:      2,
		SearchTimeLimit:   300 * time.Second,
		MaxExactGroup:     16,
	}
}

func (p Params) depotNode() geo.Node {
	return geo.Node{ID: p.DepotID, Point: geo.Point{Lat: p.DepotLat, Lon: p.DepotLon}}
}

func (p Params) depotPoint() geo.Point {
	return geo.Point{Lat: p.DepotLat, Lon: p.DepotLon}
}

// buildMatrix constructs the complete depot+clients distance matrix.
func (p Params) buildMatrix(clients []model.Client) geo.Matrix {
	nodes := make([]geo.Node, 0, len(clients)+1)
	nodes = append(nodes, p.depotNode())
	for _, c := range clients {
		nodes = append(nodes, geo.Node{ID: c.ID, Point: geo.Point{Lat: c.Lat, Lon: c.Lon}})
	}
	return geo.BuildMatrix(nodes)
}

// Strategy is one optimization algorithm. Implementations never propagate
// errors or panics out of Optimize: failures become error results.
type Strategy interface {
	Name() string
	Optimize(clients []model.Client, vehicles []model.Vehicle) model.OptimizationResult
}

// New returns the strategy registered under the given name.
func New(name string, p Params) (Strategy, error) {
	switch name {
	case AlgorithmBellmanFord:
		return NewBellmanFord(p), nil
	case AlgorithmDynamicProgramming:
		return NewDynamicProgramming(p), nil
	case AlgorithmBacktracking:
		return NewBranchAndBound(p), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Algorithms lists the registered strategy names.
func Algorithms() []string {
	return []string{AlgorithmBellmanFord, AlgorithmDynamicProgramming, AlgorithmBacktracking}
}

// Label returns the display name a strategy reports in its results.
func Label(name string) (string, error) {
	switch name {
	case AlgorithmBellmanFord:
		return labelBellmanFord, nil
	case AlgorithmDynamicProgramming:
		return labelDynamicProgramming, nil
	case AlgorithmBacktracking:
		return labelBacktracking, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// errorResult converts a failure into the uniform error result shape.
// Execution time is reported even on failure.
func errorResult(algorithm string, start time.Time, err error) model.OptimizationResult {
	return model.OptimizationResult{
		Algorithm:     algorithm,
		Error:         err.Error(),
		ExecutionTime: time.Since(start).Seconds(),
	}
}

// recoverResult converts a panic inside a strategy into an error result.
func recoverResult(algorithm string, start time.Time, res *model.OptimizationResult) {
	if r := recover(); r != nil {
		*res = errorResult(algorithm, start, fmt.Errorf("internal error: %v", r))
	}
}

// buildMetrics aggregates per-route metrics into run metrics.
func buildMetrics(routes []model.Route, totalClients int) *model.Metrics {
	m := &model.Metrics{TotalClients: totalClients}
	for _, r := range routes {
		m.TotalDistance += r.TotalDistance
		m.TotalTime += r.EstimatedTime
		m.ClientsServed += len(r.Clients)
	}
	m.VehiclesUsed = len(routes)
	if m.VehiclesUsed > 0 {
		m.Efficiency = float64(m.ClientsServed) / float64(m.VehiclesUsed)
	} else {
		m.Efficiency = float64(m.ClientsServed)
	}
	return m
}

// byPriority sorts clients ascending by priority; ties break by id so runs
// with identical input are identical.
func byPriority(clients []model.Client) []model.Client {
	out := append([]model.Client(nil), clients...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// byPriorityThenDemand sorts clients ascending by priority and, within one
// level, descending by demand (big orders claim space first). Id tie-break.
func byPriorityThenDemand(clients []model.Client) []model.Client {
	out := append([]model.Client(nil), clients...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if out[i].Demand != out[j].Demand {
			return out[i].Demand > out[j].Demand
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// availableByCapacity filters to available vehicles sorted descending by
// capacity, ties broken by id.
func availableByCapacity(vehicles []model.Vehicle) []model.Vehicle {
	out := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Available {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity > out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// validateInput fails fast on malformed records; ingestion normally catches
// these before the engine is reached.
func validateInput(clients []model.Client, vehicles []model.Vehicle) error {
	for _, c := range clients {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, v := range vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
