package model

// Client is a delivery stop with demand, priority and a soft time window.
// Field tags keep the wire format of the legacy system (Spanish snake_case).
type Client struct {
	ID          string  `json:"id"`
	Name        string  `json:"nombre"`
	District    string  `json:"distrito,omitempty"`
	Lat         float64 `json:"latitud"`
	Lon         float64 `json:"longitud"`
	Priority    int     `json:"prioridad"`
	Demand      float64 `json:"pedido"`
	WindowStart string  `json:"ventana_inicio"`
	WindowEnd   string  `json:"ventana_fin"`
}

// Vehicle is a capacity-constrained fleet unit. Only available vehicles
// participate in route assignment.
type Vehicle struct {
	ID        string  `json:"id"`
	Plate     string  `json:"placa"`
	Type      string  `json:"tipo,omitempty"`
	Capacity  float64 `json:"capacidad"`
	Available bool    `json:"disponible"`
}

// Route is one vehicle's ordered stop sequence with aggregate metrics.
// VisitOrder (DP strategy) and OptimizedPath (branch-and-bound) carry the
// node id sequence including the depot where the strategy produces one.
type Route struct {
	VehicleID     string   `json:"vehiculo_id"`
	Plate         string   `json:"placa"`
	Capacity      float64  `json:"capacidad"`
	Clients       []Client `json:"clientes"`
	TotalDistance float64  `json:"distancia_total"`
	TotalLoad     float64  `json:"carga_total"`
	EstimatedTime float64  `json:"tiempo_estimado"`
	VisitOrder    []string `json:"orden_visita,omitempty"`
	OptimizedPath []string `json:"ruta_optimizada,omitempty"`
}

// Metrics aggregates a full optimization run.
type Metrics struct {
	TotalDistance float64 `json:"distancia_total"`
	TotalTime     float64 `json:"tiempo_total"`
	ClientsServed int     `json:"clientes_atendidos"`
	VehiclesUsed  int     `json:"vehiculos_utilizados"`
	Efficiency    float64 `json:"eficiencia"`
	TotalClients  int     `json:"total_clientes,omitempty"`
}

// PriorityRoute is the DP strategy's per-priority-group solution before
// vehicle assignment.
type PriorityRoute struct {
	Priority      int      `json:"prioridad"`
	TotalDistance float64  `json:"distancia_total"`
	Clients       []Client `json:"clientes"`
	VisitOrder    []string `json:"orden_visita"`
}

// Assignment is the branch-and-bound strategy's capacity-only pre-partition
// of clients to one vehicle.
type Assignment struct {
	Vehicle Vehicle  `json:"vehiculo"`
	Clients []Client `json:"clientes"`
}

// OptimizationResult is the stable result shape shared by all strategies.
// A run either carries routes and metrics, or Error — never both.
type OptimizationResult struct {
	Algorithm     string  `json:"algoritmo"`
	ExecutionTime float64 `json:"tiempo_ejecucion"`
	Error         string  `json:"error,omitempty"`

	Routes  []Route  `json:"rutas,omitempty"`
	Metrics *Metrics `json:"metricas,omitempty"`

	// Strategy-specific diagnostics.
	MinDistances     map[string]float64            `json:"distancias_minimas,omitempty"`
	Predecessors     map[string]string             `json:"predecesores,omitempty"`
	PriorityRoutes   []PriorityRoute               `json:"rutas_por_prioridad,omitempty"`
	Assignments      []Assignment                  `json:"asignaciones,omitempty"`
	DistanceMatrix   map[string]map[string]float64 `json:"matriz_distancias,omitempty"`
	TimeLimitReached bool                          `json:"tiempo_limite_alcanzado,omitempty"`
}

// Failed reports whether the run ended in an error result.
func (r OptimizationResult) Failed() bool { return r.Error != "" }
