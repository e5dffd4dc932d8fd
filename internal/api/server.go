package api

import (
    "context"
    "log"
    "os"
    "strings"

    "rutaopt/internal/config"
    "rutaopt/internal/mapview"
    "rutaopt/internal/opt"
    "rutaopt/internal/store"
    "rutaopt/internal/webhooks"
)

type Server struct {
    Store    store.Store
    Broker   EventBroker
    Notifier *webhooks.Notifier // nil unless a webhook URL is configured
    Cfg      config.Config
}

// NewServer creates a Server. If DATABASE_URL is unset, uses the in-memory
// store; if REDIS_URL is unset, the in-process event broker.
func NewServer(cfg config.Config) (*Server, error) {
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        // Schema setup (dev helper)
        if os.Getenv("DB_MIGRATE") != "false" {
            if err := sp.Migrate(context.Background()); err != nil {
                log.Printf("migrate: %v", err)
            }
        }
        s = sp
    }

    var broker EventBroker
    if cfg.RedisURL != "" {
        if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
            broker = rb
        } else {
            log.Printf("redis broker unavailable, using in-memory: %v", err)
            broker = NewBroker()
        }
    } else {
        broker = NewBroker()
    }

    var notifier *webhooks.Notifier
    if cfg.WebhookURL != "" {
        notifier = webhooks.NewNotifier(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookMaxAttempts)
        notifier.Start()
    }

    return &Server{Store: s, Broker: broker, Notifier: notifier, Cfg: cfg}, nil
}

// notify forwards a run event to the configured webhook endpoint, if any.
func (s *Server) notify(eventType string, data any) {
    if s.Notifier != nil {
        s.Notifier.Emit(eventType, data)
    }
}

// params returns the engine parameters for one run, with the incumbent
// callback publishing progress events for the given algorithm topic.
func (s *Server) params(algorithm string) opt.Params {
    p := s.Cfg.Params()
    p.OnIncumbent = func(ev opt.IncumbentEvent) {
        s.Broker.Publish(algorithm, Event{
            Type: "incumbent",
            Data: map[string]any{
                "vehiculo_id": ev.VehicleID,
                "costo":       ev.Cost,
                "ruta":        ev.Path,
                "transcurrido": ev.Elapsed,
            },
        })
    }
    return p
}

func (s *Server) depot() mapview.Depot {
    return mapview.Depot{
        ID:   s.Cfg.Depot.ID,
        Name: s.Cfg.Depot.Name,
        Lat:  s.Cfg.Depot.Lat,
        Lon:  s.Cfg.Depot.Lon,
    }
}
