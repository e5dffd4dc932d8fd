package api

import (
    "bytes"
    "encoding/json"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "rutaopt/internal/config"
    "rutaopt/internal/ingest"
)

func newTestServer(t *testing.T) *Server {
    t.Helper()
    cfg := config.Default()
    cfg.DatabaseURL = ""
    cfg.RedisURL = ""
    s, err := NewServer(cfg)
    if err != nil { t.Fatalf("NewServer: %v", err) }
    return s
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
    t.Helper()
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    handler(rr, req)
    return rr
}

func seed(t *testing.T, s *Server) {
    t.Helper()
    clients := []string{
        `{"id":"c1","nombre":"Cliente 1","latitud":-12.05,"longitud":-77.03,"prioridad":1,"pedido":100,"ventana_inicio":"08:00","ventana_fin":"18:00"}`,
        `{"id":"c2","nombre":"Cliente 2","latitud":-12.06,"longitud":-77.04,"prioridad":2,"pedido":150,"ventana_inicio":"08:00","ventana_fin":"18:00"}`,
        `{"id":"c3","nombre":"Cliente 3","latitud":-12.04,"longitud":-77.02,"prioridad":1,"pedido":200,"ventana_inicio":"08:00","ventana_fin":"18:00"}`,
    }
    for _, c := range clients {
        if rr := postJSON(t, s.ClientsHandler, "/api/clientes", c); rr.Code != http.StatusCreated {
            t.Fatalf("seed client: %d %s", rr.Code, rr.Body.String())
        }
    }
    v := `{"id":"v1","placa":"ABC-123","capacidad":500,"disponible":true}`
    if rr := postJSON(t, s.VehiclesHandler, "/api/vehiculos", v); rr.Code != http.StatusCreated {
        t.Fatalf("seed vehicle: %d %s", rr.Code, rr.Body.String())
    }
}

func TestHealthReady(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    if rr.Code != 200 { t.Fatalf("health: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    if rr.Code != 200 { t.Fatalf("ready: got %d", rr.Code) }
}

func TestClientsCreateListDelete(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)

    rr := httptest.NewRecorder()
    s.ClientsHandler(rr, httptest.NewRequest(http.MethodGet, "/api/clientes", nil))
    if rr.Code != 200 { t.Fatalf("list: %d", rr.Code) }
    var list struct {
        Total int `json:"total"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &list)
    if list.Total != 3 { t.Fatalf("total: %d", list.Total) }

    rr = httptest.NewRecorder()
    s.ClientByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/api/clientes/c2", nil))
    if rr.Code != 200 { t.Fatalf("delete: %d", rr.Code) }

    rr = httptest.NewRecorder()
    s.ClientByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/api/clientes/c2", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("deleted client: %d", rr.Code) }
}

func TestClientsRejectInvalid(t *testing.T) {
    s := newTestServer(t)
    bad := `{"id":"x","nombre":"X","latitud":-12,"longitud":-77,"prioridad":9,"pedido":10,"ventana_inicio":"08:00","ventana_fin":"18:00"}`
    if rr := postJSON(t, s.ClientsHandler, "/api/clientes", bad); rr.Code != http.StatusBadRequest {
        t.Fatalf("want 400, got %d", rr.Code)
    }
}

func TestVehicleAvailabilityToggle(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)

    rr := postJSON(t, s.VehicleByIDHandler, "/api/vehiculos/v1/disponibilidad", `{"disponible":false}`)
    if rr.Code != 200 { t.Fatalf("toggle: %d %s", rr.Code, rr.Body.String()) }
    var v struct {
        Available bool `json:"disponible"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &v)
    if v.Available { t.Fatal("vehicle should be unavailable") }

    rr = postJSON(t, s.VehicleByIDHandler, "/api/vehiculos/ghost/disponibilidad", `{"disponible":true}`)
    if rr.Code != http.StatusNotFound { t.Fatalf("missing vehicle: %d", rr.Code) }
}

func TestRunAlgorithmEndToEnd(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)

    rr := postJSON(t, s.RunHandler, "/api/ejecutar_algoritmo", `{"algoritmo":"bellman_ford"}`)
    if rr.Code != 200 { t.Fatalf("run: %d %s", rr.Code, rr.Body.String()) }

    var resp struct {
        Success   bool   `json:"success"`
        ResultID  string `json:"resultado_id"`
        Resultados struct {
            Algorithm string `json:"algoritmo"`
            Metrics   struct {
                ClientsServed int `json:"clientes_atendidos"`
            } `json:"metricas"`
            Routes []struct {
                TotalLoad float64 `json:"carga_total"`
            } `json:"rutas"`
        } `json:"resultados"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if !resp.Success || resp.ResultID == "" {
        t.Fatalf("response: %+v", resp)
    }
    if resp.Resultados.Algorithm != "Bellman-Ford" || resp.Resultados.Metrics.ClientsServed != 3 {
        t.Fatalf("result: %+v", resp.Resultados)
    }
    if len(resp.Resultados.Routes) != 1 || resp.Resultados.Routes[0].TotalLoad != 450 {
        t.Fatalf("routes: %+v", resp.Resultados.Routes)
    }

    // The run is retrievable as the latest result.
    rr = httptest.NewRecorder()
    s.LastResultHandler(rr, httptest.NewRequest(http.MethodGet, "/api/ultimo_resultado?algoritmo=bellman_ford", nil))
    if rr.Code != 200 { t.Fatalf("last result: %d %s", rr.Code, rr.Body.String()) }
}

func TestRunAlgorithmValidation(t *testing.T) {
    s := newTestServer(t)

    // Unknown algorithm.
    if rr := postJSON(t, s.RunHandler, "/api/ejecutar_algoritmo", `{"algoritmo":"dijkstra"}`); rr.Code != http.StatusBadRequest {
        t.Fatalf("unknown algorithm: %d", rr.Code)
    }
    // No data loaded.
    if rr := postJSON(t, s.RunHandler, "/api/ejecutar_algoritmo", `{"algoritmo":"bellman_ford"}`); rr.Code != http.StatusBadRequest {
        t.Fatalf("no data: %d", rr.Code)
    }
}

func TestRunAllAlgorithms(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)
    for _, algo := range []string{"bellman_ford", "programacion_dinamica", "backtracking"} {
        rr := postJSON(t, s.RunHandler, "/api/ejecutar_algoritmo", `{"algoritmo":"`+algo+`"}`)
        if rr.Code != 200 {
            t.Fatalf("%s: %d %s", algo, rr.Code, rr.Body.String())
        }
    }
    rr := httptest.NewRecorder()
    s.ResultsHandler(rr, httptest.NewRequest(http.MethodGet, "/api/resultados", nil))
    var list struct {
        Total int `json:"total"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &list)
    if list.Total != 3 { t.Fatalf("results: %d", list.Total) }
}

func TestStats(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)

    rr := httptest.NewRecorder()
    s.StatsHandler(rr, httptest.NewRequest(http.MethodGet, "/api/estadisticas", nil))
    if rr.Code != 200 { t.Fatalf("stats: %d", rr.Code) }

    var st map[string]any
    _ = json.Unmarshal(rr.Body.Bytes(), &st)
    if st["total_clientes"].(float64) != 3 || st["pedidos_total"].(float64) != 450 {
        t.Fatalf("stats: %+v", st)
    }
    if st["prioridad_alta"].(float64) != 3 || st["tiene_resultados"].(bool) {
        t.Fatalf("stats: %+v", st)
    }
}

func TestMapData(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)
    _ = postJSON(t, s.RunHandler, "/api/ejecutar_algoritmo", `{"algoritmo":"backtracking"}`)

    rr := httptest.NewRecorder()
    s.MapDataHandler(rr, httptest.NewRequest(http.MethodGet, "/api/obtener_datos_mapa", nil))
    if rr.Code != 200 { t.Fatalf("map: %d", rr.Code) }

    var data struct {
        Markers []any `json:"clientes"`
        Routes  []any `json:"rutas"`
        Depot   map[string]any `json:"deposito"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &data)
    if len(data.Markers) != 3 || len(data.Routes) != 1 {
        t.Fatalf("map data: %d markers, %d routes", len(data.Markers), len(data.Routes))
    }
    if data.Depot["nombre"] != "Depósito Central" {
        t.Fatalf("depot: %+v", data.Depot)
    }
}

func TestCSVUpload(t *testing.T) {
    s := newTestServer(t)

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    fw, _ := mw.CreateFormFile("archivo", "clientes.csv")
    _, _ = fw.Write([]byte(ingest.SampleClientsCSV()))
    _ = mw.Close()

    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/api/cargar_csv", &buf)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    s.CSVUploadHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("upload: %d %s", rr.Code, rr.Body.String()) }

    var resp struct {
        Added int `json:"clientes_activos"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &resp)
    if resp.Added != 5 { t.Fatalf("added: %d", resp.Added) }
}

func TestCSVUploadRejectsNonCSV(t *testing.T) {
    s := newTestServer(t)

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    fw, _ := mw.CreateFormFile("archivo", "clientes.txt")
    _, _ = fw.Write([]byte("not a csv"))
    _ = mw.Close()

    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/api/cargar_csv", &buf)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    s.CSVUploadHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("want 400, got %d", rr.Code) }
}

func TestVehiclesUpload(t *testing.T) {
    s := newTestServer(t)
    body := `[{"placa":"ABC-123","capacidad":1000,"tipo":"Camión"},{"placa":"XYZ-789","capacidad":500,"tipo":"Furgón"}]`
    rr := postJSON(t, s.VehiclesUploadHandler, "/api/cargar_vehiculos", body)
    if rr.Code != 200 { t.Fatalf("upload: %d %s", rr.Code, rr.Body.String()) }

    rr = httptest.NewRecorder()
    s.VehiclesHandler(rr, httptest.NewRequest(http.MethodGet, "/api/vehiculos", nil))
    var list struct {
        Total int `json:"total"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &list)
    if list.Total != 2 { t.Fatalf("vehicles: %d", list.Total) }
}

func TestRunPublishesProgressEvents(t *testing.T) {
    s := newTestServer(t)
    seed(t, s)

    ch := s.Broker.Subscribe("backtracking")
    defer s.Broker.Unsubscribe("backtracking", ch)

    rr := postJSON(t, s.RunHandler, "/api/ejecutar_algoritmo", `{"algoritmo":"backtracking"}`)
    if rr.Code != 200 { t.Fatalf("run: %d", rr.Code) }

    types := map[string]bool{}
    for {
        select {
        case evt := <-ch:
            types[evt.Type] = true
        default:
            if !types["started"] || !types["finished"] {
                t.Fatalf("missing lifecycle events: %v", types)
            }
            return
        }
    }
}
