package opt

import (
	"math"
	"time"

	"rutaopt/internal/geo"
	"rutaopt/internal/model"
)

const labelBacktracking = "Backtracking con Poda"

// BranchAndBound partitions clients across vehicles by capacity alone,
// then finds an exact minimum-cost visit order per vehicle with a
// depth-first search pruned by an MST-based admissible lower bound.
// The search is anytime: a wall-clock cutoff keeps the best order found
// so far and flags the result.
type BranchAndBound struct {
	params Params
}

func NewBranchAndBound(p Params) *BranchAndBound {
	return &BranchAndBound{params: p}
}

func (s *BranchAndBound) Name() string { return AlgorithmBacktracking }

func (s *BranchAndBound) Optimize(clients []model.Client, vehicles []model.Vehicle) (res model.OptimizationResult) {
	start := time.Now()
	defer recoverResult(labelBacktracking, start, &res)

	if err := validateInput(clients, vehicles); err != nil {
		return errorResult(labelBacktracking, start, err)
	}

	matrix := s.params.buildMatrix(clients)
	assignments := s.partition(clients, vehicles)

	timeLimitReached := false
	var routes []model.Route
	for _, a := range assignments {
		route, hitLimit := s.optimizeVehicle(matrix, a)
		routes = append(routes, route)
		timeLimitReached = timeLimitReached || hitLimit
	}

	return model.OptimizationResult{
		Algorithm:        labelBacktracking,
		ExecutionTime:    time.Since(start).Seconds(),
		Routes:           routes,
		Metrics:          buildMetrics(routes, len(clients)),
		Assignments:      assignments,
		DistanceMatrix:   matrix,
		TimeLimitReached: timeLimitReached,
	}
}

// partition divides clients across vehicles before any sequencing: clients
// ascending by priority (big demands first within a level), vehicles
// descending by capacity, first fit checking capacity only.
func (s *BranchAndBound) partition(clients []model.Client, vehicles []model.Vehicle) []model.Assignment {
	ordered := byPriorityThenDemand(clients)
	taken := make(map[string]bool, len(clients))

	var assignments []model.Assignment
	for _, v := range availableByCapacity(vehicles) {
		remaining := v.Capacity
		var group []model.Client
		for _, c := range ordered {
			if taken[c.ID] || c.Demand > remaining {
				continue
			}
			group = append(group, c)
			remaining -= c.Demand
			taken[c.ID] = true
		}
		if len(group) > 0 {
			assignments = append(assignments, model.Assignment{Vehicle: v, Clients: group})
		}
	}
	return assignments
}

// optimizeVehicle runs the exact search for one vehicle's client set and
// reports whether the time limit fired. Zero or one client needs no search.
func (s *BranchAndBound) optimizeVehicle(matrix geo.Matrix, a model.Assignment) (model.Route, bool) {
	route := model.Route{
		VehicleID: a.Vehicle.ID,
		Plate:     a.Vehicle.Plate,
		Capacity:  a.Vehicle.Capacity,
		Clients:   a.Clients,
	}
	for _, c := range a.Clients {
		route.TotalLoad += c.Demand
	}

	if len(a.Clients) <= 1 {
		for _, c := range a.Clients {
			route.OptimizedPath = append(route.OptimizedPath, c.ID)
		}
		return route, false
	}

	search := &bbSearch{
		matrix:   matrix,
		params:   s.params,
		vehicle:  a.Vehicle,
		started:  time.Now(),
		bestCost: math.Inf(1),
		path:     []string{s.params.DepotID},
	}
	search.dfs(a.Clients)

	if search.best == nil {
		// Nothing feasible within the budget: fall back to the unoptimized
		// depot-clients-depot order with no distance claim.
		route.OptimizedPath = append(route.OptimizedPath, s.params.DepotID)
		for _, c := range a.Clients {
			route.OptimizedPath = append(route.OptimizedPath, c.ID)
		}
		route.OptimizedPath = append(route.OptimizedPath, s.params.DepotID)
		return route, search.timedOut
	}

	route.OptimizedPath = search.best
	route.TotalDistance = search.bestCost
	route.EstimatedTime = search.bestCost * s.params.MinutesPerKm
	return route, search.timedOut
}

// bbSearch holds the state of one vehicle's depth-first search. It is
// created per vehicle and never shared: best/cost/path reset with it.
type bbSearch struct {
	matrix  geo.Matrix
	params  Params
	vehicle model.Vehicle
	started time.Time

	path []string // partial route, path[0] is the depot
	load float64
	cost float64

	best     []string
	bestCost float64
	timedOut bool
}

func (b *bbSearch) dfs(remaining []model.Client) {
	if time.Since(b.started) > b.params.SearchTimeLimit {
		b.timedOut = true
		return
	}

	last := b.path[len(b.path)-1]

	if len(remaining) == 0 {
		total := b.cost + b.matrix.Dist(last, b.params.DepotID)
		if total < b.bestCost {
			b.bestCost = total
			b.best = append(append([]string(nil), b.path...), b.params.DepotID)
			if b.params.OnIncumbent != nil {
				b.params.OnIncumbent(IncumbentEvent{
					VehicleID: b.vehicle.ID,
					Cost:      total,
					Path:      append([]string(nil), b.best...),
					Elapsed:   time.Since(b.started).Seconds(),
				})
			}
		}
		return
	}

	if b.lowerBound(last, remaining) >= b.bestCost {
		return
	}

	for i, c := range remaining {
		if b.load+c.Demand > b.vehicle.Capacity {
			continue
		}
		leg := b.matrix.Dist(last, c.ID)
		if (b.cost+leg)*b.params.MinutesPerKm > b.params.RouteTimeLimitMin {
			continue
		}

		b.path = append(b.path, c.ID)
		b.load += c.Demand
		b.cost += leg

		rest := make([]model.Client, 0, len(remaining)-1)
		rest = append(rest, remaining[:i]...)
		rest = append(rest, remaining[i+1:]...)
		b.dfs(rest)

		b.path = b.path[:len(b.path)-1]
		b.load -= c.Demand
		b.cost -= leg

		if b.timedOut {
			return
		}
	}
}

// lowerBound is an admissible bound on any completion of the partial
// route: current cost, plus an MST over the unvisited clients, plus the
// cheapest edge from the current position into them, plus the cheapest
// edge from them back to the depot.
func (b *bbSearch) lowerBound(last string, remaining []model.Client) float64 {
	ids := make([]string, len(remaining))
	for i, c := range remaining {
		ids[i] = c.ID
	}

	minIn := math.Inf(1)
	minBack := math.Inf(1)
	for _, id := range ids {
		if d := b.matrix.Dist(last, id); d < minIn {
			minIn = d
		}
		if d := b.matrix.Dist(id, b.params.DepotID); d < minBack {
			minBack = d
		}
	}
	return b.cost + primCost(b.matrix, ids) + minIn + minBack
}

// primCost returns the total weight of a minimum spanning tree over the
// given node ids, grown with Prim's algorithm in O(n²).
func primCost(m geo.Matrix, ids []string) float64 {
	n := len(ids)
	if n <= 1 {
		return 0
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	for i := range best {
		best[i] = math.Inf(1)
	}
	best[0] = 0

	total := 0.0
	for iter := 0; iter < n; iter++ {
		u := -1
		min := math.Inf(1)
		for v := 0; v < n; v++ {
			if !inTree[v] && best[v] < min {
				min = best[v]
				u = v
			}
		}
		if u < 0 {
			break
		}
		inTree[u] = true
		total += best[u]
		for v := 0; v < n; v++ {
			if inTree[v] {
				continue
			}
			if d := m.Dist(ids[u], ids[v]); d < best[v] {
				best[v] = d
			}
		}
	}
	return total
}
