package opt

import (
	"fmt"
	"math"
	"sort"
	"time"

	"rutaopt/internal/geo"
	"rutaopt/internal/model"
)

const labelBellmanFord = "Bellman-Ford"

// BellmanFord assigns clients to vehicles greedily using single-source
// shortest paths from the depot. Matrix may be set to a prebuilt distance
// matrix; when nil the strategy builds its own from the client list.
type BellmanFord struct {
	params Params
	Matrix geo.Matrix
}

func NewBellmanFord(p Params) *BellmanFord {
	return &BellmanFord{params: p}
}

func (s *BellmanFord) Name() string { return AlgorithmBellmanFord }

func (s *BellmanFord) Optimize(clients []model.Client, vehicles []model.Vehicle) (res model.OptimizationResult) {
	start := time.Now()
	defer recoverResult(labelBellmanFord, start, &res)

	if err := validateInput(clients, vehicles); err != nil {
		return errorResult(labelBellmanFord, start, err)
	}

	matrix := s.Matrix
	if matrix == nil {
		matrix = s.params.buildMatrix(clients)
	}

	dist, pred, err := ShortestPaths(matrix, s.params.DepotID)
	if err != nil {
		return errorResult(labelBellmanFord, start, err)
	}

	routes := s.assign(clients, vehicles, dist)

	return model.OptimizationResult{
		Algorithm:     labelBellmanFord,
		ExecutionTime: time.Since(start).Seconds(),
		Routes:        routes,
		Metrics:       buildMetrics(routes, len(clients)),
		MinDistances:  dist,
		Predecessors:  pred,
	}
}

// assign builds one route per vehicle: clients ascending by priority,
// vehicles descending by capacity, first fit under remaining capacity and
// the route time budget. The first leg of a route uses the shortest-path
// distance from the depot; later legs use the direct distance from the
// previous stop. A depot return leg closes every non-empty route.
func (s *BellmanFord) assign(clients []model.Client, vehicles []model.Vehicle, dist map[string]float64) []model.Route {
	ordered := byPriority(clients)
	assigned := make(map[string]bool, len(clients))

	var routes []model.Route
	for _, v := range availableByCapacity(vehicles) {
		route := model.Route{
			VehicleID: v.ID,
			Plate:     v.Plate,
			Capacity:  v.Capacity,
			Clients:   []model.Client{},
		}
		remaining := v.Capacity
		last := geo.Point{}

		for _, c := range ordered {
			if assigned[c.ID] {
				continue
			}
			if c.Demand > remaining {
				continue
			}

			var legKm float64
			if len(route.Clients) == 0 {
				d, ok := dist[c.ID]
				if !ok || math.IsInf(d, 1) {
					continue
				}
				legKm = d
			} else {
				legKm = geo.Haversine(last, geo.Point{Lat: c.Lat, Lon: c.Lon})
			}

			legTime := legKm * s.params.MinutesPerKm
			if route.EstimatedTime+legTime > s.params.RouteTimeLimitMin {
				continue
			}

			route.Clients = append(route.Clients, c)
			route.TotalDistance += legKm
			route.TotalLoad += c.Demand
			route.EstimatedTime += legTime
			remaining -= c.Demand
			assigned[c.ID] = true
			last = geo.Point{Lat: c.Lat, Lon: c.Lon}
		}

		if len(route.Clients) == 0 {
			continue
		}

		// Return leg to the depot.
		back := geo.Haversine(last, s.params.depotPoint())
		route.TotalDistance += back
		route.EstimatedTime += back * s.params.MinutesPerKm
		routes = append(routes, route)
	}
	return routes
}

// ShortestPaths runs Bellman-Ford over the complete distance matrix and
// returns per-node distances from source and predecessor links. Edges are
// relaxed up to |V|-1 rounds in sorted node order so results and tie-breaks
// are deterministic. A final pass detects negative cycles.
func ShortestPaths(m geo.Matrix, source string) (map[string]float64, map[string]string, error) {
	if _, ok := m[source]; !ok {
		return nil, nil, fmt.Errorf("shortest paths: source %q not in matrix", source)
	}
	ids := sortedNodeIDs(m)

	dist := make(map[string]float64, len(ids))
	pred := make(map[string]string, len(ids))
	for _, id := range ids {
		dist[id] = math.Inf(1)
	}
	dist[source] = 0

	for round := 0; round < len(ids)-1; round++ {
		updated := false
		for _, u := range ids {
			du := dist[u]
			if math.IsInf(du, 1) {
				continue
			}
			for _, v := range ids {
				if v == u {
					continue
				}
				w, ok := m[u][v]
				if !ok {
					continue
				}
				if du+w < dist[v] {
					dist[v] = du + w
					pred[v] = u
					updated = true
				}
			}
		}
		if !updated {
			break
		}
	}

	// One more pass: any further relaxation means a negative cycle.
	for _, u := range ids {
		du := dist[u]
		if math.IsInf(du, 1) {
			continue
		}
		for _, v := range ids {
			if v == u {
				continue
			}
			if w, ok := m[u][v]; ok && du+w < dist[v] {
				return nil, nil, ErrNegativeCycle
			}
		}
	}
	return dist, pred, nil
}

// PathTo reconstructs the shortest path to dest by walking predecessors
// back to the source and reversing.
func PathTo(pred map[string]string, dest string) []string {
	path := []string{}
	cur := dest
	for steps := 0; cur != "" && steps <= len(pred)+1; steps++ {
		path = append(path, cur)
		cur = pred[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func sortedNodeIDs(m geo.Matrix) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
