package api

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "rutaopt/internal/ingest"
    "rutaopt/internal/mapview"
    "rutaopt/internal/metrics"
    "rutaopt/internal/model"
    "rutaopt/internal/opt"
)

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ReadyHandler reports readiness: the store must answer.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    if _, err := s.Store.Stats(r.Context()); err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// ClientsHandler handles GET/POST /api/clientes
func (s *Server) ClientsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        clients, err := s.Store.ListClients(r.Context())
        if err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"clientes": clients, "total": len(clients)})
    case http.MethodPost:
        var c model.Client
        if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        created, err := s.Store.PutClient(r.Context(), c)
        if err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid client", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, created)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// ClientByIDHandler handles GET/DELETE /api/clientes/{id}
func (s *Server) ClientByIDHandler(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/api/clientes/")
    if id == "" || strings.Contains(id, "/") {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }
    switch r.Method {
    case http.MethodGet:
        c, err := s.Store.GetClient(r.Context(), id)
        if err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, c)
    case http.MethodDelete:
        if err := s.Store.DeleteClient(r.Context(), id); err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"success": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// VehiclesHandler handles GET/POST /api/vehiculos
func (s *Server) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        vehicles, err := s.Store.ListVehicles(r.Context())
        if err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"vehiculos": vehicles, "total": len(vehicles)})
    case http.MethodPost:
        var v model.Vehicle
        if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        created, err := s.Store.PutVehicle(r.Context(), v)
        if err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid vehicle", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, created)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// VehicleByIDHandler handles /api/vehiculos/{id} and
// /api/vehiculos/{id}/disponibilidad
func (s *Server) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/api/vehiculos/")
    id, action, _ := strings.Cut(rest, "/")
    if id == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }

    if action == "disponibilidad" && r.Method == http.MethodPost {
        var req struct {
            Available bool `json:"disponible"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        v, err := s.Store.SetVehicleAvailable(r.Context(), id, req.Available)
        if err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, v)
        return
    }
    if action != "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }

    switch r.Method {
    case http.MethodGet:
        v, err := s.Store.GetVehicle(r.Context(), id)
        if err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, v)
    case http.MethodDelete:
        if err := s.Store.DeleteVehicle(r.Context(), id); err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"success": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// RunHandler handles POST /api/ejecutar_algoritmo
func (s *Server) RunHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req runRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateRunRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid run request", err.Error(), r.URL.Path)
        return
    }

    clients, err := s.Store.ListClients(r.Context())
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    vehicles, err := s.Store.ListVehicles(r.Context())
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    if len(clients) == 0 {
        writeProblem(w, http.StatusBadRequest, "No data", "no hay datos cargados para optimizar", r.URL.Path)
        return
    }
    if len(vehicles) == 0 {
        writeProblem(w, http.StatusBadRequest, "No vehicles", "no hay vehículos registrados", r.URL.Path)
        return
    }

    params := s.params(req.Algorithm)
    req.apply(&params)
    strategy, err := opt.New(req.Algorithm, params)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Unknown algorithm", err.Error(), r.URL.Path)
        return
    }

    s.Broker.Publish(req.Algorithm, Event{Type: "started", Data: map[string]any{
        "algoritmo": req.Algorithm, "clientes": len(clients), "vehiculos": len(vehicles),
    }})

    res := strategy.Optimize(clients, vehicles)
    s.observeRun(req.Algorithm, res)

    if res.Failed() {
        s.Broker.Publish(req.Algorithm, Event{Type: "failed", Data: map[string]any{"error": res.Error}})
        s.notify("optimizacion.fallida", map[string]any{
            "algoritmo": res.Algorithm, "error": res.Error,
        })
        writeJSON(w, http.StatusInternalServerError, res)
        return
    }

    stored, err := s.Store.SaveResult(r.Context(), res)
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    s.Broker.Publish(req.Algorithm, Event{Type: "finished", Data: map[string]any{
        "resultado_id": stored.ID, "tiempo_ejecucion": res.ExecutionTime,
    }})
    s.notify("optimizacion.finalizada", map[string]any{
        "resultado_id": stored.ID,
        "algoritmo":    res.Algorithm,
        "metricas":     res.Metrics,
    })

    writeJSON(w, http.StatusOK, map[string]any{
        "success":      true,
        "message":      fmt.Sprintf("Algoritmo %s ejecutado exitosamente", req.Algorithm),
        "resultado_id": stored.ID,
        "resultados":   res,
    })
}

func (s *Server) observeRun(algorithm string, res model.OptimizationResult) {
    status := "ok"
    if res.Failed() {
        status = "error"
    }
    metrics.OptimizationRuns.WithLabelValues(algorithm, status).Inc()
    metrics.OptimizationDuration.WithLabelValues(algorithm).Observe(res.ExecutionTime)
    if res.Metrics != nil {
        metrics.ClientsServed.WithLabelValues(algorithm).Observe(float64(res.Metrics.ClientsServed))
    }
    if res.TimeLimitReached {
        metrics.SearchTimeouts.Inc()
    }
}

// ResultsHandler handles GET /api/resultados and /api/resultados/{id}
func (s *Server) ResultsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    id := strings.TrimPrefix(r.URL.Path, "/api/resultados")
    id = strings.TrimPrefix(id, "/")
    if id != "" {
        sr, err := s.Store.GetResult(r.Context(), id)
        if err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, sr)
        return
    }

    algorithm := r.URL.Query().Get("algoritmo")
    limit := 0
    if v := r.URL.Query().Get("limit"); v != "" {
        fmt.Sscanf(v, "%d", &limit)
    }
    items, err := s.Store.ListResults(r.Context(), algorithm, limit)
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"resultados": items, "total": len(items)})
}

// LastResultHandler handles GET /api/ultimo_resultado?algoritmo=
func (s *Server) LastResultHandler(w http.ResponseWriter, r *http.Request) {
    algorithm := r.URL.Query().Get("algoritmo")
    if algorithm == "" {
        writeProblem(w, http.StatusBadRequest, "Missing parameter", "algoritmo required", r.URL.Path)
        return
    }
    label, err := algorithmLabel(algorithm)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Unknown algorithm", err.Error(), r.URL.Path)
        return
    }
    sr, err := s.Store.LastResult(r.Context(), label)
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, sr)
}

// AlgorithmsHandler handles GET /api/algoritmos
func (s *Server) AlgorithmsHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]any{"algoritmos": opt.Algorithms()})
}

// StatsHandler handles GET /api/estadisticas
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
    st, err := s.Store.Stats(r.Context())
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    clients, err := s.Store.ListClients(r.Context())
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }

    // Windows opening early or closing late strain the fleet schedule.
    criticalWindows := 0
    for _, c := range clients {
        if c.WindowStart <= "08:00" || c.WindowEnd >= "18:00" {
            criticalWindows++
        }
    }
    results, err := s.Store.ListResults(r.Context(), "", 1)
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }

    // Operating cost estimate for the latest plan: distance, driver time
    // and a fixed cost per vehicle used.
    estimatedCost := 0.0
    if len(results) > 0 {
        if m := results[0].Result.Metrics; m != nil {
            estimatedCost = m.TotalDistance*s.Cfg.CostPerKm +
                m.TotalTime/60*s.Cfg.CostPerHour +
                float64(m.VehiclesUsed)*s.Cfg.VehicleFixedCost
        }
    }

    writeJSON(w, http.StatusOK, map[string]any{
        "total_clientes":         st.TotalClients,
        "total_vehiculos":        st.TotalVehicles,
        "vehiculos_disponibles":  st.AvailableVehicles,
        "pedidos_total":          st.TotalDemand,
        "capacidad_total":        st.TotalCapacity,
        "prioridades":            st.ByPriority,
        "clientes_por_distrito":  st.ByDistrict,
        "prioridad_alta":         st.ByPriority[1] + st.ByPriority[2],
        "ventanas_criticas":      criticalWindows,
        "costo_estimado":         estimatedCost,
        "tiene_resultados":       len(results) > 0,
    })
}

// MapDataHandler handles GET /api/obtener_datos_mapa
func (s *Server) MapDataHandler(w http.ResponseWriter, r *http.Request) {
    clients, err := s.Store.ListClients(r.Context())
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    var last *model.OptimizationResult
    if results, err := s.Store.ListResults(r.Context(), "", 1); err == nil && len(results) > 0 {
        last = &results[0].Result
    }
    writeJSON(w, http.StatusOK, mapview.Build(s.depot(), clients, last))
}

// RoutesGeoJSONHandler handles GET /api/rutas_geojson
func (s *Server) RoutesGeoJSONHandler(w http.ResponseWriter, r *http.Request) {
    results, err := s.Store.ListResults(r.Context(), r.URL.Query().Get("algoritmo"), 1)
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    if len(results) == 0 {
        writeProblem(w, http.StatusNotFound, "Not Found", "no hay resultados", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, mapview.GeoJSON(s.depot(), results[0].Result.Routes))
}

// CSVUploadHandler handles POST /api/cargar_csv (multipart field "archivo")
func (s *Server) CSVUploadHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    file, header, err := r.FormFile("archivo")
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Missing file", "no se encontró archivo", r.URL.Path)
        return
    }
    defer file.Close()
    if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
        writeProblem(w, http.StatusBadRequest, "Invalid file", "el archivo debe ser CSV", r.URL.Path)
        return
    }

    clients, rowErrs, err := ingest.ReadClientsCSV(file)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid CSV", err.Error(), r.URL.Path)
        return
    }
    added := 0
    for _, c := range clients {
        if _, err := s.Store.PutClient(r.Context(), c); err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
        added++
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "success":          true,
        "clientes_activos": added,
        "filas_rechazadas": rowErrs,
    })
}

// VehiclesUploadHandler handles POST /api/cargar_vehiculos (JSON array)
func (s *Server) VehiclesUploadHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    vehicles, err := ingest.ReadVehiclesJSON(r.Body)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid vehicles", err.Error(), r.URL.Path)
        return
    }
    for _, v := range vehicles {
        if _, err := s.Store.PutVehicle(r.Context(), v); err != nil {
            writeStoreError(w, err, r.URL.Path)
            return
        }
    }
    writeJSON(w, http.StatusOK, map[string]any{"success": true, "vehiculos_cargados": len(vehicles)})
}

// SampleCSVHandler handles GET /api/ejemplo_csv
func (s *Server) SampleCSVHandler(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/csv; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write([]byte(ingest.SampleClientsCSV()))
}

// ExportCSVHandler handles GET /api/exportar_csv
func (s *Server) ExportCSVHandler(w http.ResponseWriter, r *http.Request) {
    clients, err := s.Store.ListClients(r.Context())
    if err != nil {
        writeStoreError(w, err, r.URL.Path)
        return
    }
    w.Header().Set("Content-Type", "text/csv; charset=utf-8")
    w.Header().Set("Content-Disposition", `attachment; filename="clientes.csv"`)
    w.WriteHeader(http.StatusOK)
    _ = ingest.WriteClientsCSV(w, clients)
}
