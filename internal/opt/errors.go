package opt

import "errors"

// ErrNegativeCycle is returned by the shortest-path engine when an edge
// still relaxes after |V|-1 rounds. Unreachable on Haversine weights, but
// kept as a hard invariant check on the distance model.
var ErrNegativeCycle = errors.New("negative cycle detected in distance graph")

// ErrUnknownAlgorithm is returned by New for unregistered strategy names.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ErrGroupTooLarge is returned by the DP strategy when a priority group
// exceeds the exact-TSP size cap.
var ErrGroupTooLarge = errors.New("priority group too large for exact TSP")
