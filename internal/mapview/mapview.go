// Package mapview shapes clients and routes into the payloads the map UI
// renders: markers, polylines, layers, bounds and GeoJSON.
package mapview

import (
	"fmt"
	"math"

	"rutaopt/internal/model"
)

const defaultZoom = 12

// priorityColors maps priority levels to marker colors, red (most urgent)
// through blue (least).
var priorityColors = map[int]string{
	1: "#FF0000",
	2: "#FF6600",
	3: "#FFCC00",
	4: "#00CC00",
	5: "#0066CC",
}

var routeColors = []string{
	"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF",
	"#00FFFF", "#FF6600", "#6600FF", "#FF0066", "#66FF00",
}

// PriorityColor returns the marker color for a priority level.
func PriorityColor(priority int) string {
	if c, ok := priorityColors[priority]; ok {
		return c
	}
	return "#999999"
}

// RouteColor returns the polyline color for the i-th route.
func RouteColor(i int) string {
	return routeColors[i%len(routeColors)]
}

// Depot is the fixed origin rendered on the map.
type Depot struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Center is the initial map viewport.
type Center struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}

// Marker is one client rendered on the map.
type Marker struct {
	ID          string  `json:"id"`
	Name        string  `json:"nombre"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Priority    int     `json:"prioridad"`
	Demand      float64 `json:"pedido"`
	WindowStart string  `json:"ventana_inicio"`
	WindowEnd   string  `json:"ventana_fin"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
}

// RouteLine is one vehicle's polyline with its stops.
type RouteLine struct {
	ID            string       `json:"id"`
	VehicleID     string       `json:"vehiculo_id"`
	Plate         string       `json:"placa"`
	Color         string       `json:"color"`
	Coordinates   [][2]float64 `json:"coordenadas"` // [lat, lng] pairs
	Stops         []Stop       `json:"clientes"`
	TotalDistance float64      `json:"distancia_total"`
	EstimatedTime float64      `json:"tiempo_estimado"`
	TotalLoad     float64      `json:"carga_total"`
}

// Stop is one client on a route polyline.
type Stop struct {
	ID   string  `json:"id"`
	Name string  `json:"nombre"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Bounds is the viewport rectangle with margin.
type Bounds struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// HeatCell is one congestion-grid cell weighted by client density.
type HeatCell struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensidad"`
	Count     int     `json:"clientes_count"`
}

// CriticalZone rings a high-priority client.
type CriticalZone struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Radius   float64 `json:"radio"`
	Priority int     `json:"prioridad"`
	Demand   float64 `json:"pedido"`
	Color    string  `json:"color"`
}

// ClusterMarker groups nearby clients into one marker.
type ClusterMarker struct {
	Type    string         `json:"type"` // individual | cluster
	Lat     float64        `json:"lat"`
	Lng     float64        `json:"lng"`
	Count   int            `json:"count,omitempty"`
	Clients []model.Client `json:"clientes,omitempty"`
}

// MapData is the full payload for the map endpoint.
type MapData struct {
	Center  Center         `json:"centro"`
	Depot   map[string]any `json:"deposito"`
	Markers []Marker       `json:"clientes"`
	Routes  []RouteLine    `json:"rutas"`
	Bounds  Bounds         `json:"bounds"`
	Layers  map[string]any `json:"capas"`
}

// Build assembles the map payload for the current dataset and, when a
// result is present, its routes.
func Build(depot Depot, clients []model.Client, result *model.OptimizationResult) MapData {
	data := MapData{
		Center: Center{Lat: depot.Lat, Lng: depot.Lon, Zoom: defaultZoom},
		Depot: map[string]any{
			"id": depot.ID, "nombre": depot.Name,
			"lat": depot.Lat, "lng": depot.Lon,
			"tipo": "deposito", "icon": "warehouse",
		},
		Markers: Markers(clients),
		Bounds:  ViewBounds(depot, clients),
		Layers: map[string]any{
			"congestion":     CongestionGrid(clients),
			"zonas_criticas": CriticalZones(clients),
			"prioridades":    PriorityLayers(clients),
		},
	}
	if result != nil {
		data.Routes = RouteLines(depot, result.Routes)
	}
	return data
}

// Markers converts clients into colored map markers.
func Markers(clients []model.Client) []Marker {
	out := make([]Marker, 0, len(clients))
	for _, c := range clients {
		out = append(out, Marker{
			ID: c.ID, Name: c.Name, Lat: c.Lat, Lng: c.Lon,
			Priority: c.Priority, Demand: c.Demand,
			WindowStart: c.WindowStart, WindowEnd: c.WindowEnd,
			Color: PriorityColor(c.Priority), Icon: "store",
		})
	}
	return out
}

// RouteLines converts result routes into depot-to-depot polylines.
func RouteLines(depot Depot, routes []model.Route) []RouteLine {
	out := make([]RouteLine, 0, len(routes))
	for i, r := range routes {
		line := RouteLine{
			ID:            fmt.Sprintf("ruta_%d", i+1),
			VehicleID:     r.VehicleID,
			Plate:         r.Plate,
			Color:         RouteColor(i),
			TotalDistance: r.TotalDistance,
			EstimatedTime: r.EstimatedTime,
			TotalLoad:     r.TotalLoad,
		}
		line.Coordinates = append(line.Coordinates, [2]float64{depot.Lat, depot.Lon})
		for _, c := range r.Clients {
			line.Coordinates = append(line.Coordinates, [2]float64{c.Lat, c.Lon})
			line.Stops = append(line.Stops, Stop{ID: c.ID, Name: c.Name, Lat: c.Lat, Lng: c.Lon})
		}
		line.Coordinates = append(line.Coordinates, [2]float64{depot.Lat, depot.Lon})
		out = append(out, line)
	}
	return out
}

// ViewBounds computes the viewport rectangle covering the depot and all
// clients with a 0.01 degree margin. With no clients a 0.1 degree box
// around the depot is returned.
func ViewBounds(depot Depot, clients []model.Client) Bounds {
	if len(clients) == 0 {
		return Bounds{
			South: depot.Lat - 0.1, North: depot.Lat + 0.1,
			West: depot.Lon - 0.1, East: depot.Lon + 0.1,
		}
	}
	minLat, maxLat := depot.Lat, depot.Lat
	minLng, maxLng := depot.Lon, depot.Lon
	for _, c := range clients {
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
		minLng = math.Min(minLng, c.Lon)
		maxLng = math.Max(maxLng, c.Lon)
	}
	const margin = 0.01
	return Bounds{
		South: minLat - margin, North: maxLat + margin,
		West: minLng - margin, East: maxLng + margin,
	}
}

// CongestionGrid buckets clients into a 0.01 degree grid; intensity
// saturates at three clients per cell.
func CongestionGrid(clients []model.Client) []HeatCell {
	if len(clients) == 0 {
		return nil
	}
	type key struct{ lat, lng int }
	cells := map[key]int{}
	for _, c := range clients {
		cells[key{int(math.Round(c.Lat * 100)), int(math.Round(c.Lon * 100))}]++
	}
	out := make([]HeatCell, 0, len(cells))
	for k, n := range cells {
		out = append(out, HeatCell{
			Lat:       float64(k.lat) / 100,
			Lng:       float64(k.lng) / 100,
			Intensity: math.Min(float64(n)/3, 1),
			Count:     n,
		})
	}
	return out
}

// CriticalZones rings every priority 1 and 2 client with a 500m radius.
func CriticalZones(clients []model.Client) []CriticalZone {
	var out []CriticalZone
	for _, c := range clients {
		if c.Priority > 2 {
			continue
		}
		out = append(out, CriticalZone{
			Lat: c.Lat, Lng: c.Lon, Radius: 0.005,
			Priority: c.Priority, Demand: c.Demand,
			Color: PriorityColor(c.Priority),
		})
	}
	return out
}

// PriorityLayers groups markers by priority level, 1 through 5.
func PriorityLayers(clients []model.Client) map[int][]Marker {
	layers := map[int][]Marker{}
	for p := 1; p <= 5; p++ {
		for _, c := range clients {
			if c.Priority != p {
				continue
			}
			layers[p] = append(layers[p], Marker{
				ID: c.ID, Name: c.Name, Lat: c.Lat, Lng: c.Lon,
				Demand: c.Demand, Color: PriorityColor(p),
			})
		}
	}
	return layers
}

// ClusterMarkers groups clients on a 0.005 degree grid, emitting individual
// markers for lone clients and cluster markers otherwise.
func ClusterMarkers(clients []model.Client) []ClusterMarker {
	const size = 0.005
	type key struct{ lat, lng float64 }
	groups := map[key][]model.Client{}
	var order []key
	for _, c := range clients {
		k := key{math.Round(c.Lat/size) * size, math.Round(c.Lon/size) * size}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}
	out := make([]ClusterMarker, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g) == 1 {
			out = append(out, ClusterMarker{Type: "individual", Lat: g[0].Lat, Lng: g[0].Lon, Clients: g})
			continue
		}
		out = append(out, ClusterMarker{Type: "cluster", Lat: k.lat, Lng: k.lng, Count: len(g), Clients: g})
	}
	return out
}

// HeatmapPoints weights each client by priority (urgent is hot) and demand
// (normalized at 1000 kg); each point is [lat, lng, intensity].
func HeatmapPoints(clients []model.Client) [][3]float64 {
	out := make([][3]float64, 0, len(clients))
	for _, c := range clients {
		priorityHeat := float64(6-c.Priority) / 5
		demandHeat := math.Min(c.Demand/1000, 1)
		out = append(out, [3]float64{c.Lat, c.Lon, (priorityHeat + demandHeat) / 2})
	}
	return out
}

// GeoJSON renders routes as a FeatureCollection of LineStrings. GeoJSON
// coordinates are [lng, lat].
func GeoJSON(depot Depot, routes []model.Route) map[string]any {
	features := make([]map[string]any, 0, len(routes))
	for i, r := range routes {
		coords := [][2]float64{{depot.Lon, depot.Lat}}
		for _, c := range r.Clients {
			coords = append(coords, [2]float64{c.Lon, c.Lat})
		}
		coords = append(coords, [2]float64{depot.Lon, depot.Lat})

		features = append(features, map[string]any{
			"type": "Feature",
			"geometry": map[string]any{
				"type":        "LineString",
				"coordinates": coords,
			},
			"properties": map[string]any{
				"ruta_id":         fmt.Sprintf("ruta_%d", i+1),
				"vehiculo_id":     r.VehicleID,
				"placa":           r.Plate,
				"distancia_total": r.TotalDistance,
				"tiempo_estimado": r.EstimatedTime,
				"carga_total":     r.TotalLoad,
				"color":           RouteColor(i),
			},
		})
	}
	return map[string]any{"type": "FeatureCollection", "features": features}
}
