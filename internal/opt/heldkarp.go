package opt

import (
	"fmt"
	"math"
	"sort"
	"time"

	"rutaopt/internal/geo"
	"rutaopt/internal/model"
)

const labelDynamicProgramming = "Programación Dinámica"

// DynamicProgramming solves an exact TSP per priority group with the
// Held-Karp subset DP, then assigns each group's tour to the largest
// available vehicle that fits its total demand.
type DynamicProgramming struct {
	params Params
}

func NewDynamicProgramming(p Params) *DynamicProgramming {
	return &DynamicProgramming{params: p}
}

func (s *DynamicProgramming) Name() string { return AlgorithmDynamicProgramming }

func (s *DynamicProgramming) Optimize(clients []model.Client, vehicles []model.Vehicle) (res model.OptimizationResult) {
	start := time.Now()
	defer recoverResult(labelDynamicProgramming, start, &res)

	if err := validateInput(clients, vehicles); err != nil {
		return errorResult(labelDynamicProgramming, start, err)
	}

	matrix := s.params.buildMatrix(clients)

	var priorityRoutes []model.PriorityRoute
	for _, priority := range sortedPriorities(clients) {
		group := clientsWithPriority(clients, priority)
		if len(group) > s.params.MaxExactGroup {
			err := fmt.Errorf("%w: priority %d has %d clients (limit %d)",
				ErrGroupTooLarge, priority, len(group), s.params.MaxExactGroup)
			return errorResult(labelDynamicProgramming, start, err)
		}
		priorityRoutes = append(priorityRoutes, s.solveGroup(matrix, priority, group))
	}

	routes := s.assignToVehicles(priorityRoutes, vehicles)

	return model.OptimizationResult{
		Algorithm:      labelDynamicProgramming,
		ExecutionTime:  time.Since(start).Seconds(),
		Routes:         routes,
		Metrics:        buildMetrics(routes, len(clients)),
		PriorityRoutes: priorityRoutes,
		DistanceMatrix: matrix,
	}
}

// solveGroup runs the exact solver for one priority level. Empty and
// singleton groups get a zero-cost trivial route.
func (s *DynamicProgramming) solveGroup(matrix geo.Matrix, priority int, group []model.Client) model.PriorityRoute {
	pr := model.PriorityRoute{Priority: priority, Clients: group, VisitOrder: []string{}}
	if len(group) <= 1 {
		for _, c := range group {
			pr.VisitOrder = append(pr.VisitOrder, c.ID)
		}
		return pr
	}

	cost, order, ok := heldKarp(matrix, s.params.DepotID, group)
	if !ok {
		// No full-subset state reachable: no feasible tour for this group.
		pr.TotalDistance = math.Inf(1)
		return pr
	}
	pr.TotalDistance = cost
	pr.VisitOrder = order
	return pr
}

// assignToVehicles gives each group tour to the highest-capacity available
// vehicle that fits its total demand, one group per vehicle, single pass.
// Groups no remaining vehicle can carry are dropped, not split.
func (s *DynamicProgramming) assignToVehicles(priorityRoutes []model.PriorityRoute, vehicles []model.Vehicle) []model.Route {
	pool := availableByCapacity(vehicles)
	used := make([]bool, len(pool))

	var routes []model.Route
	for _, pr := range priorityRoutes {
		if len(pr.Clients) == 0 || math.IsInf(pr.TotalDistance, 1) {
			continue
		}
		demand := 0.0
		for _, c := range pr.Clients {
			demand += c.Demand
		}

		for i, v := range pool {
			if used[i] || v.Capacity < demand {
				continue
			}
			used[i] = true
			routes = append(routes, model.Route{
				VehicleID:     v.ID,
				Plate:         v.Plate,
				Capacity:      v.Capacity,
				Clients:       pr.Clients,
				TotalDistance: pr.TotalDistance,
				TotalLoad:     demand,
				EstimatedTime: pr.TotalDistance * s.params.MinutesPerKm,
				VisitOrder:    pr.VisitOrder,
			})
			break
		}
	}
	return routes
}

// heldKarp computes the minimum Hamiltonian cycle through the depot and the
// group with the classic subset DP. Subsets are bitmasks with the depot at
// bit 0; dp[mask][j] is the cheapest path that starts at the depot, visits
// exactly the nodes in mask and ends at j. Time O(2^n·n²), memory O(2^n·n).
// The third return is false when no full-subset state is reachable.
func heldKarp(matrix geo.Matrix, depotID string, group []model.Client) (float64, []string, bool) {
	n := len(group) + 1
	ids := make([]string, n)
	ids[0] = depotID
	for i, c := range group {
		ids[i+1] = c.ID
	}

	// Dense weights to keep the inner loop off map lookups.
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = matrix.Dist(ids[i], ids[j])
		}
	}

	full := (1 << n) - 1
	dp := make([][]float64, 1<<n)
	parent := make([][]int, 1<<n)
	for mask := 0; mask <= full; mask++ {
		dp[mask] = make([]float64, n)
		parent[mask] = make([]int, n)
		for j := range dp[mask] {
			dp[mask][j] = math.Inf(1)
			parent[mask][j] = -1
		}
	}
	dp[1][0] = 0

	for mask := 1; mask <= full; mask++ {
		if mask&1 == 0 {
			continue // every state includes the depot
		}
		for j := 1; j < n; j++ {
			if mask&(1<<j) == 0 {
				continue
			}
			prev := mask ^ (1 << j)
			for k := 0; k < n; k++ {
				if prev&(1<<k) == 0 {
					continue
				}
				if cand := dp[prev][k] + d[k][j]; cand < dp[mask][j] {
					dp[mask][j] = cand
					parent[mask][j] = k
				}
			}
		}
	}

	best := math.Inf(1)
	last := -1
	for j := 1; j < n; j++ {
		if total := dp[full][j] + d[j][0]; total < best {
			best = total
			last = j
		}
	}
	if last < 0 || math.IsInf(best, 1) {
		return math.Inf(1), []string{}, false
	}

	// Walk the parent table back from the closing node.
	order := make([]string, n+1)
	order[n] = depotID
	mask := full
	for i := n - 1; i >= 1; i-- {
		order[i] = ids[last]
		p := parent[mask][last]
		mask ^= 1 << last
		last = p
	}
	order[0] = depotID
	return best, order, true
}

func sortedPriorities(clients []model.Client) []int {
	seen := map[int]bool{}
	var out []int
	for _, c := range clients {
		if !seen[c.Priority] {
			seen[c.Priority] = true
			out = append(out, c.Priority)
		}
	}
	sort.Ints(out)
	return out
}

func clientsWithPriority(clients []model.Client, priority int) []model.Client {
	var out []model.Client
	for _, c := range clients {
		if c.Priority == priority {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
