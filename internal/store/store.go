package store

import (
    "context"
    "errors"
    "time"

    "rutaopt/internal/model"
)

// StoredResult is an optimization run kept for later retrieval.
type StoredResult struct {
    ID        string                   `json:"id"`
    Algorithm string                   `json:"algoritmo"`
    CreatedAt time.Time                `json:"creado_en"`
    Result    model.OptimizationResult `json:"resultado"`
}

// Stats aggregates the current dataset for the statistics endpoint.
type Stats struct {
    TotalClients      int            `json:"total_clientes"`
    TotalVehicles     int            `json:"total_vehiculos"`
    AvailableVehicles int            `json:"vehiculos_disponibles"`
    TotalDemand       float64        `json:"demanda_total"`
    TotalCapacity     float64        `json:"capacidad_total"`
    ByPriority        map[int]int    `json:"clientes_por_prioridad"`
    ByDistrict        map[string]int `json:"clientes_por_distrito,omitempty"`
}

// Store is the persistence interface used by the API server.
type Store interface {
    // Clients
    PutClient(ctx context.Context, c model.Client) (model.Client, error)
    GetClient(ctx context.Context, id string) (model.Client, error)
    ListClients(ctx context.Context) ([]model.Client, error)
    DeleteClient(ctx context.Context, id string) error
    ReplaceClients(ctx context.Context, clients []model.Client) (int, error)

    // Vehicles
    PutVehicle(ctx context.Context, v model.Vehicle) (model.Vehicle, error)
    GetVehicle(ctx context.Context, id string) (model.Vehicle, error)
    ListVehicles(ctx context.Context) ([]model.Vehicle, error)
    SetVehicleAvailable(ctx context.Context, id string, available bool) (model.Vehicle, error)
    DeleteVehicle(ctx context.Context, id string) error

    // Optimization runs
    SaveResult(ctx context.Context, res model.OptimizationResult) (StoredResult, error)
    GetResult(ctx context.Context, id string) (StoredResult, error)
    LastResult(ctx context.Context, algorithm string) (StoredResult, error)
    ListResults(ctx context.Context, algorithm string, limit int) ([]StoredResult, error)

    // Aggregates
    Stats(ctx context.Context) (Stats, error)

    Close() error
}

var ErrNotFound = errors.New("not found")
