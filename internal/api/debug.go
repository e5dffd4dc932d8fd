package api

import (
    "net/http"
    "time"

    "rutaopt/internal/buildinfo"
)

// DebugHandler reports build and effective configuration for troubleshooting.
// Secrets stay out: connection URLs are reported as booleans only.
func (s *Server) DebugHandler(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "port":                  s.Cfg.Port,
            "deposito":              s.Cfg.Depot.ID,
            "limite_tiempo_ruta":    s.Cfg.RouteTimeLimitMin,
            "minutos_por_km":        s.Cfg.MinutesPerKm,
            "tiempo_limite_busqueda": s.Cfg.SearchTimeLimitSec,
            "max_grupo_exacto":      s.Cfg.MaxExactGroup,
            "rate_rps":              s.Cfg.RateRPS,
            "rate_burst":            s.Cfg.RateBurst,
            "has_database_url":      s.Cfg.DatabaseURL != "",
            "has_redis_url":         s.Cfg.RedisURL != "",
            "has_webhook_url":       s.Cfg.WebhookURL != "",
        },
    }
    writeJSON(w, http.StatusOK, info)
}
