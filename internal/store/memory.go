package store

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "rutaopt/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu       sync.Mutex
    clients  map[string]model.Client
    vehicles map[string]model.Vehicle
    results  map[string]StoredResult
    order    []string // result ids in insertion order
    last     map[string]string // algorithm -> latest result id
}

func NewMemory() *Memory {
    return &Memory{
        clients:  map[string]model.Client{},
        vehicles: map[string]model.Vehicle{},
        results:  map[string]StoredResult{},
        last:     map[string]string{},
    }
}

func (m *Memory) PutClient(ctx context.Context, c model.Client) (model.Client, error) {
    if strings.TrimSpace(c.ID) == "" {
        c.ID = uuid.New().String()
    }
    if err := c.Validate(); err != nil {
        return model.Client{}, err
    }
    m.mu.Lock(); defer m.mu.Unlock()
    m.clients[c.ID] = c
    return c, nil
}

func (m *Memory) GetClient(ctx context.Context, id string) (model.Client, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    c, ok := m.clients[id]
    if !ok { return model.Client{}, ErrNotFound }
    return c, nil
}

func (m *Memory) ListClients(ctx context.Context) ([]model.Client, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := make([]model.Client, 0, len(m.clients))
    for _, c := range m.clients { out = append(out, c) }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (m *Memory) DeleteClient(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.clients[id]; !ok { return ErrNotFound }
    delete(m.clients, id)
    return nil
}

func (m *Memory) ReplaceClients(ctx context.Context, clients []model.Client) (int, error) {
    for _, c := range clients {
        if err := c.Validate(); err != nil { return 0, err }
    }
    m.mu.Lock(); defer m.mu.Unlock()
    m.clients = make(map[string]model.Client, len(clients))
    for _, c := range clients { m.clients[c.ID] = c }
    return len(m.clients), nil
}

func (m *Memory) PutVehicle(ctx context.Context, v model.Vehicle) (model.Vehicle, error) {
    if strings.TrimSpace(v.ID) == "" {
        v.ID = uuid.New().String()
    }
    if err := v.Validate(); err != nil {
        return model.Vehicle{}, err
    }
    m.mu.Lock(); defer m.mu.Unlock()
    m.vehicles[v.ID] = v
    return v, nil
}

func (m *Memory) GetVehicle(ctx context.Context, id string) (model.Vehicle, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    v, ok := m.vehicles[id]
    if !ok { return model.Vehicle{}, ErrNotFound }
    return v, nil
}

func (m *Memory) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := make([]model.Vehicle, 0, len(m.vehicles))
    for _, v := range m.vehicles { out = append(out, v) }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (m *Memory) SetVehicleAvailable(ctx context.Context, id string, available bool) (model.Vehicle, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    v, ok := m.vehicles[id]
    if !ok { return model.Vehicle{}, ErrNotFound }
    v.Available = available
    m.vehicles[id] = v
    return v, nil
}

func (m *Memory) DeleteVehicle(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.vehicles[id]; !ok { return ErrNotFound }
    delete(m.vehicles, id)
    return nil
}

func (m *Memory) SaveResult(ctx context.Context, res model.OptimizationResult) (StoredResult, error) {
    sr := StoredResult{
        ID:        uuid.New().String(),
        Algorithm: res.Algorithm,
        CreatedAt: time.Now().UTC(),
        Result:    res,
    }
    m.mu.Lock(); defer m.mu.Unlock()
    m.results[sr.ID] = sr
    m.order = append(m.order, sr.ID)
    m.last[sr.Algorithm] = sr.ID
    return sr, nil
}

func (m *Memory) GetResult(ctx context.Context, id string) (StoredResult, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    sr, ok := m.results[id]
    if !ok { return StoredResult{}, ErrNotFound }
    return sr, nil
}

func (m *Memory) LastResult(ctx context.Context, algorithm string) (StoredResult, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id, ok := m.last[algorithm]
    if !ok { return StoredResult{}, ErrNotFound }
    return m.results[id], nil
}

func (m *Memory) ListResults(ctx context.Context, algorithm string, limit int) ([]StoredResult, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if limit <= 0 { limit = 100 }
    out := []StoredResult{}
    // newest first
    for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
        sr := m.results[m.order[i]]
        if algorithm == "" || sr.Algorithm == algorithm { out = append(out, sr) }
    }
    return out, nil
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    st := Stats{
        TotalClients:  len(m.clients),
        TotalVehicles: len(m.vehicles),
        ByPriority:    map[int]int{},
        ByDistrict:    map[string]int{},
    }
    for _, c := range m.clients {
        st.TotalDemand += c.Demand
        st.ByPriority[c.Priority]++
        if c.District != "" { st.ByDistrict[c.District]++ }
    }
    for _, v := range m.vehicles {
        st.TotalCapacity += v.Capacity
        if v.Available { st.AvailableVehicles++ }
    }
    return st, nil
}

func (m *Memory) Close() error { return nil }
