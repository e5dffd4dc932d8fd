package mapview

import (
	"testing"

	"rutaopt/internal/model"
)

var testDepot = Depot{ID: "deposito", Name: "Depósito Central", Lat: -12.0464, Lon: -77.0428}

func testClients() []model.Client {
	return []model.Client{
		{ID: "c1", Name: "Cliente 1", Lat: -12.05, Lon: -77.03, Priority: 1, Demand: 100},
		{ID: "c2", Name: "Cliente 2", Lat: -12.06, Lon: -77.04, Priority: 3, Demand: 500},
		{ID: "c3", Name: "Cliente 3", Lat: -12.0501, Lon: -77.0301, Priority: 5, Demand: 2000},
	}
}

func TestPriorityColor(t *testing.T) {
	cases := map[int]string{1: "#FF0000", 2: "#FF6600", 3: "#FFCC00", 4: "#00CC00", 5: "#0066CC", 9: "#999999"}
	for p, want := range cases {
		if got := PriorityColor(p); got != want {
			t.Fatalf("priority %d: want %s, got %s", p, want, got)
		}
	}
}

func TestRouteColorCycles(t *testing.T) {
	if RouteColor(0) != RouteColor(10) {
		t.Fatal("route colors should cycle every 10")
	}
	if RouteColor(0) == RouteColor(1) {
		t.Fatal("adjacent routes should differ")
	}
}

func TestBuildPayloadShape(t *testing.T) {
	res := &model.OptimizationResult{
		Routes: []model.Route{{
			VehicleID: "v1", Plate: "ABC-123",
			Clients:       testClients()[:2],
			TotalDistance: 7.5, EstimatedTime: 15, TotalLoad: 600,
		}},
	}
	data := Build(testDepot, testClients(), res)

	if data.Center.Zoom != defaultZoom || data.Center.Lat != testDepot.Lat {
		t.Fatalf("center: %+v", data.Center)
	}
	if data.Depot["icon"] != "warehouse" {
		t.Fatalf("depot: %+v", data.Depot)
	}
	if len(data.Markers) != 3 {
		t.Fatalf("markers: %d", len(data.Markers))
	}
	if data.Markers[0].Color != "#FF0000" || data.Markers[0].Icon != "store" {
		t.Fatalf("marker: %+v", data.Markers[0])
	}
	if len(data.Routes) != 1 {
		t.Fatalf("routes: %d", len(data.Routes))
	}

	// Polyline: depot, two clients, depot.
	line := data.Routes[0]
	if len(line.Coordinates) != 4 {
		t.Fatalf("coordinates: %v", line.Coordinates)
	}
	if line.Coordinates[0] != [2]float64{testDepot.Lat, testDepot.Lon} ||
		line.Coordinates[3] != [2]float64{testDepot.Lat, testDepot.Lon} {
		t.Fatalf("polyline should start and end at depot: %v", line.Coordinates)
	}
	if line.ID != "ruta_1" || line.Color != RouteColor(0) {
		t.Fatalf("line: %+v", line)
	}
}

func TestViewBounds(t *testing.T) {
	b := ViewBounds(testDepot, testClients())
	if b.South != -12.06-0.01 || b.North != -12.0464+0.01 {
		t.Fatalf("lat bounds: %+v", b)
	}
	if b.West != -77.0428-0.01 || b.East != -77.03+0.01 {
		t.Fatalf("lng bounds: %+v", b)
	}

	empty := ViewBounds(testDepot, nil)
	if d := empty.North - empty.South; d < 0.199 || d > 0.201 {
		t.Fatalf("empty bounds: %+v", empty)
	}
}

func TestCongestionGrid(t *testing.T) {
	cells := CongestionGrid(testClients())
	if len(cells) == 0 {
		t.Fatal("expected cells")
	}
	total := 0
	for _, c := range cells {
		if c.Intensity < 0 || c.Intensity > 1 {
			t.Fatalf("intensity out of range: %+v", c)
		}
		total += c.Count
	}
	if total != 3 {
		t.Fatalf("cells should cover every client once, counted %d", total)
	}
	if CongestionGrid(nil) != nil {
		t.Fatal("no clients -> nil grid")
	}
}

func TestCriticalZonesOnlyHighPriority(t *testing.T) {
	zones := CriticalZones(testClients())
	if len(zones) != 1 {
		t.Fatalf("want 1 zone (priority 1 client), got %d", len(zones))
	}
	z := zones[0]
	if z.Priority != 1 || z.Radius != 0.005 || z.Color != "#FF0000" {
		t.Fatalf("zone: %+v", z)
	}
}

func TestPriorityLayers(t *testing.T) {
	layers := PriorityLayers(testClients())
	if len(layers) != 3 {
		t.Fatalf("want 3 layers, got %d", len(layers))
	}
	if len(layers[1]) != 1 || layers[1][0].ID != "c1" {
		t.Fatalf("layer 1: %+v", layers[1])
	}
	if _, ok := layers[2]; ok {
		t.Fatal("no priority-2 clients, layer should be absent")
	}
}

func TestClusterMarkers(t *testing.T) {
	markers := ClusterMarkers(testClients())
	// c1 and c3 share a 0.005-degree cell; c2 stands alone.
	var clusters, individuals int
	for _, m := range markers {
		switch m.Type {
		case "cluster":
			clusters++
			if m.Count != 2 {
				t.Fatalf("cluster count: %+v", m)
			}
		case "individual":
			individuals++
		}
	}
	if clusters != 1 || individuals != 1 {
		t.Fatalf("want 1 cluster + 1 individual, got %d/%d", clusters, individuals)
	}
}

func TestHeatmapPoints(t *testing.T) {
	pts := HeatmapPoints(testClients())
	if len(pts) != 3 {
		t.Fatalf("points: %d", len(pts))
	}
	// Priority 1, demand 100: (1.0 + 0.1) / 2.
	if pts[0][2] != 0.55 {
		t.Fatalf("intensity: %v", pts[0][2])
	}
	// Demand saturates at 1000 kg.
	if pts[2][2] != (0.2+1.0)/2 {
		t.Fatalf("saturated intensity: %v", pts[2][2])
	}
}

func TestGeoJSONShape(t *testing.T) {
	routes := []model.Route{{VehicleID: "v1", Plate: "ABC-123", Clients: testClients()[:1]}}
	fc := GeoJSON(testDepot, routes)
	if fc["type"] != "FeatureCollection" {
		t.Fatalf("type: %v", fc["type"])
	}
	features := fc["features"].([]map[string]any)
	if len(features) != 1 {
		t.Fatalf("features: %d", len(features))
	}
	geom := features[0]["geometry"].(map[string]any)
	coords := geom["coordinates"].([][2]float64)
	// GeoJSON is [lng, lat].
	if coords[0] != [2]float64{testDepot.Lon, testDepot.Lat} {
		t.Fatalf("coords: %v", coords)
	}
	if len(coords) != 3 {
		t.Fatalf("want depot-client-depot, got %v", coords)
	}
}
