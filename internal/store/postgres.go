package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "rutaopt/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

// Migrate creates the schema if it does not exist. Dev helper; production
// deployments run migrations out of band.
func (p *Postgres) Migrate(ctx context.Context) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS clients (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            district TEXT,
            lat DOUBLE PRECISION NOT NULL,
            lon DOUBLE PRECISION NOT NULL,
            priority INT NOT NULL,
            demand DOUBLE PRECISION NOT NULL,
            window_start TEXT NOT NULL,
            window_end TEXT NOT NULL
        )`,
        `CREATE TABLE IF NOT EXISTS vehicles (
            id TEXT PRIMARY KEY,
            plate TEXT NOT NULL,
            type TEXT,
            capacity DOUBLE PRECISION NOT NULL,
            available BOOLEAN NOT NULL DEFAULT TRUE
        )`,
        `CREATE TABLE IF NOT EXISTS optimization_results (
            id UUID PRIMARY KEY,
            algorithm TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            result JSONB NOT NULL
        )`,
        `CREATE INDEX IF NOT EXISTS idx_results_algo_created
            ON optimization_results (algorithm, created_at DESC)`,
    }
    for _, s := range stmts {
        if _, err := p.db.ExecContext(ctx, s); err != nil {
            return fmt.Errorf("migrate: %w", err)
        }
    }
    return nil
}

func (p *Postgres) PutClient(ctx context.Context, c model.Client) (model.Client, error) {
    if strings.TrimSpace(c.ID) == "" {
        c.ID = uuid.New().String()
    }
    if err := c.Validate(); err != nil {
        return model.Client{}, err
    }
    _, err := p.db.ExecContext(ctx, `INSERT INTO clients (id, name, district, lat, lon, priority, demand, window_start, window_end)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO UPDATE SET name=$2, district=$3, lat=$4, lon=$5, priority=$6, demand=$7, window_start=$8, window_end=$9`,
        c.ID, c.Name, nullIfEmpty(c.District), c.Lat, c.Lon, c.Priority, c.Demand, c.WindowStart, c.WindowEnd)
    if err != nil { return model.Client{}, err }
    return c, nil
}

func (p *Postgres) GetClient(ctx context.Context, id string) (model.Client, error) {
    row := p.db.QueryRowContext(ctx, `SELECT id, name, COALESCE(district,''), lat, lon, priority, demand, window_start, window_end FROM clients WHERE id=$1`, id)
    return scanClient(row)
}

func (p *Postgres) ListClients(ctx context.Context) ([]model.Client, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id, name, COALESCE(district,''), lat, lon, priority, demand, window_start, window_end FROM clients ORDER BY id`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []model.Client
    for rows.Next() {
        c, err := scanClient(rows)
        if err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

func (p *Postgres) DeleteClient(ctx context.Context, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) ReplaceClients(ctx context.Context, clients []model.Client) (int, error) {
    for _, c := range clients {
        if err := c.Validate(); err != nil { return 0, err }
    }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return 0, err }
    defer func(){ _ = tx.Rollback() }()

    if _, err := tx.ExecContext(ctx, `DELETE FROM clients`); err != nil { return 0, err }
    for _, c := range clients {
        _, err := tx.ExecContext(ctx, `INSERT INTO clients (id, name, district, lat, lon, priority, demand, window_start, window_end)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
            c.ID, c.Name, nullIfEmpty(c.District), c.Lat, c.Lon, c.Priority, c.Demand, c.WindowStart, c.WindowEnd)
        if err != nil { return 0, err }
    }
    if err := tx.Commit(); err != nil { return 0, err }
    return len(clients), nil
}

func (p *Postgres) PutVehicle(ctx context.Context, v model.Vehicle) (model.Vehicle, error) {
    if strings.TrimSpace(v.ID) == "" {
        v.ID = uuid.New().String()
    }
    if err := v.Validate(); err != nil {
        return model.Vehicle{}, err
    }
    _, err := p.db.ExecContext(ctx, `INSERT INTO vehicles (id, plate, type, capacity, available)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET plate=$2, type=$3, capacity=$4, available=$5`,
        v.ID, v.Plate, nullIfEmpty(v.Type), v.Capacity, v.Available)
    if err != nil { return model.Vehicle{}, err }
    return v, nil
}

func (p *Postgres) GetVehicle(ctx context.Context, id string) (model.Vehicle, error) {
    row := p.db.QueryRowContext(ctx, `SELECT id, plate, COALESCE(type,''), capacity, available FROM vehicles WHERE id=$1`, id)
    var v model.Vehicle
    err := row.Scan(&v.ID, &v.Plate, &v.Type, &v.Capacity, &v.Available)
    if errors.Is(err, sql.ErrNoRows) { return model.Vehicle{}, ErrNotFound }
    return v, err
}

func (p *Postgres) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id, plate, COALESCE(type,''), capacity, available FROM vehicles ORDER BY id`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []model.Vehicle
    for rows.Next() {
        var v model.Vehicle
        if err := rows.Scan(&v.ID, &v.Plate, &v.Type, &v.Capacity, &v.Available); err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    return out, rows.Err()
}

func (p *Postgres) SetVehicleAvailable(ctx context.Context, id string, available bool) (model.Vehicle, error) {
    res, err := p.db.ExecContext(ctx, `UPDATE vehicles SET available=$2 WHERE id=$1`, id, available)
    if err != nil { return model.Vehicle{}, err }
    if n, _ := res.RowsAffected(); n == 0 { return model.Vehicle{}, ErrNotFound }
    return p.GetVehicle(ctx, id)
}

func (p *Postgres) DeleteVehicle(ctx context.Context, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) SaveResult(ctx context.Context, res model.OptimizationResult) (StoredResult, error) {
    sr := StoredResult{
        ID:        uuid.New().String(),
        Algorithm: res.Algorithm,
        CreatedAt: time.Now().UTC(),
        Result:    res,
    }
    data, err := json.Marshal(res)
    if err != nil { return StoredResult{}, err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO optimization_results (id, algorithm, created_at, result) VALUES ($1,$2,$3,$4)`,
        sr.ID, sr.Algorithm, sr.CreatedAt, data)
    if err != nil { return StoredResult{}, err }
    return sr, nil
}

func (p *Postgres) GetResult(ctx context.Context, id string) (StoredResult, error) {
    row := p.db.QueryRowContext(ctx, `SELECT id::text, algorithm, created_at, result FROM optimization_results WHERE id=$1`, id)
    return scanResult(row)
}

func (p *Postgres) LastResult(ctx context.Context, algorithm string) (StoredResult, error) {
    row := p.db.QueryRowContext(ctx, `SELECT id::text, algorithm, created_at, result FROM optimization_results
        WHERE algorithm=$1 ORDER BY created_at DESC LIMIT 1`, algorithm)
    return scanResult(row)
}

func (p *Postgres) ListResults(ctx context.Context, algorithm string, limit int) ([]StoredResult, error) {
    if limit <= 0 { limit = 100 }
    q := `SELECT id::text, algorithm, created_at, result FROM optimization_results`
    args := []any{}
    if algorithm != "" {
        q += ` WHERE algorithm=$1`
        args = append(args, algorithm)
    }
    q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []StoredResult
    for rows.Next() {
        sr, err := scanResult(rows)
        if err != nil { return nil, err }
        out = append(out, sr)
    }
    return out, rows.Err()
}

func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
    st := Stats{ByPriority: map[int]int{}, ByDistrict: map[string]int{}}

    err := p.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(demand),0) FROM clients`).Scan(&st.TotalClients, &st.TotalDemand)
    if err != nil { return Stats{}, err }
    err = p.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE available), COALESCE(SUM(capacity),0) FROM vehicles`).
        Scan(&st.TotalVehicles, &st.AvailableVehicles, &st.TotalCapacity)
    if err != nil { return Stats{}, err }

    rows, err := p.db.QueryContext(ctx, `SELECT priority, COUNT(*) FROM clients GROUP BY priority`)
    if err != nil { return Stats{}, err }
    defer rows.Close()
    for rows.Next() {
        var pr, n int
        if err := rows.Scan(&pr, &n); err != nil { return Stats{}, err }
        st.ByPriority[pr] = n
    }
    if err := rows.Err(); err != nil { return Stats{}, err }

    drows, err := p.db.QueryContext(ctx, `SELECT district, COUNT(*) FROM clients WHERE district IS NOT NULL GROUP BY district`)
    if err != nil { return Stats{}, err }
    defer drows.Close()
    for drows.Next() {
        var d string
        var n int
        if err := drows.Scan(&d, &n); err != nil { return Stats{}, err }
        st.ByDistrict[d] = n
    }
    return st, drows.Err()
}

func (p *Postgres) Close() error { return p.db.Close() }

type rowScanner interface {
    Scan(dest ...any) error
}

func scanClient(row rowScanner) (model.Client, error) {
    var c model.Client
    err := row.Scan(&c.ID, &c.Name, &c.District, &c.Lat, &c.Lon, &c.Priority, &c.Demand, &c.WindowStart, &c.WindowEnd)
    if errors.Is(err, sql.ErrNoRows) { return model.Client{}, ErrNotFound }
    return c, err
}

func scanResult(row rowScanner) (StoredResult, error) {
    var sr StoredResult
    var data []byte
    err := row.Scan(&sr.ID, &sr.Algorithm, &sr.CreatedAt, &data)
    if errors.Is(err, sql.ErrNoRows) { return StoredResult{}, ErrNotFound }
    if err != nil { return StoredResult{}, err }
    if err := json.Unmarshal(data, &sr.Result); err != nil {
        return StoredResult{}, fmt.Errorf("decode stored result %s: %w", sr.ID, err)
    }
    return sr, nil
}

func nullIfEmpty(s string) any {
    if strings.TrimSpace(s) == "" { return nil }
    return s
}
