package main

import (
    "flag"
    "log"
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "rutaopt/internal/api"
    "rutaopt/internal/config"
    "rutaopt/internal/metrics"
)

func main() {
    configPath := flag.String("config", "config.yaml", "path to YAML configuration")
    flag.Parse()

    cfg, err := config.Load(*configPath)
    if err != nil {
        log.Fatalf("load config: %v", err)
    }

    srv, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }
    defer func() { _ = srv.Store.Close() }()
    if srv.Notifier != nil {
        defer srv.Notifier.Close()
    }

    metrics.RegisterDefault()

    mux := http.NewServeMux()

    // Clients
    mux.HandleFunc("/api/clientes", srv.ClientsHandler)
    mux.HandleFunc("/api/clientes/", srv.ClientByIDHandler)

    // Vehicles
    mux.HandleFunc("/api/vehiculos", srv.VehiclesHandler)
    mux.HandleFunc("/api/vehiculos/", srv.VehicleByIDHandler)

    // Optimization
    mux.HandleFunc("/api/ejecutar_algoritmo", srv.RunHandler)
    mux.HandleFunc("/api/algoritmos", srv.AlgorithmsHandler)
    mux.HandleFunc("/api/resultados", srv.ResultsHandler)
    mux.HandleFunc("/api/resultados/", srv.ResultsHandler)
    mux.HandleFunc("/api/ultimo_resultado", srv.LastResultHandler)

    // Live progress (WebSocket)
    mux.HandleFunc("/ws/progreso", srv.ProgressHandler)

    // Dataset
    mux.HandleFunc("/api/cargar_csv", srv.CSVUploadHandler)
    mux.HandleFunc("/api/cargar_vehiculos", srv.VehiclesUploadHandler)
    mux.HandleFunc("/api/ejemplo_csv", srv.SampleCSVHandler)
    mux.HandleFunc("/api/exportar_csv", srv.ExportCSVHandler)

    // Map & statistics
    mux.HandleFunc("/api/obtener_datos_mapa", srv.MapDataHandler)
    mux.HandleFunc("/api/rutas_geojson", srv.RoutesGeoJSONHandler)
    mux.HandleFunc("/api/estadisticas", srv.StatsHandler)

    // Frontend & docs
    mux.HandleFunc("/", srv.StaticHandler)
    mux.HandleFunc("/mapa", srv.StaticHandler)
    mux.HandleFunc("/static/", srv.StaticHandler)
    mux.HandleFunc("/openapi.yaml", srv.OpenAPIHandler)
    mux.HandleFunc("/docs", srv.DocsHandler)
    mux.HandleFunc("/consola", srv.SwaggerHandler)

    // Health & metrics
    mux.HandleFunc("/healthz", srv.HealthHandler)
    mux.HandleFunc("/readyz", srv.ReadyHandler)
    mux.HandleFunc("/debug", srv.DebugHandler)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    handler := api.LogMiddleware(api.RateLimitMiddleware(cfg.RateRPS, cfg.RateBurst, mux))

    httpSrv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           handler,
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on %s", httpSrv.Addr)
    if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}
