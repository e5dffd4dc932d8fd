package ingest

import (
	"fmt"
	"math/rand"

	"rutaopt/internal/model"
)

// districtCenters holds approximate centers of the main Lima districts.
// Generated points scatter ±0.01 degrees (about one kilometer) around them.
var districtCenters = map[string][2]float64{
	"Miraflores":            {-12.12, -77.03},
	"San Isidro":            {-12.10, -77.04},
	"Barranco":              {-12.14, -77.02},
	"Surco":                 {-12.16, -77.00},
	"San Borja":             {-12.08, -77.00},
	"La Molina":             {-12.08, -76.95},
	"San Miguel":            {-12.06, -77.08},
	"Magdalena":             {-12.08, -77.07},
	"Pueblo Libre":          {-12.07, -77.06},
	"Jesús María":           {-12.06, -77.05},
	"Lince":                 {-12.08, -77.05},
	"Breña":                 {-12.05, -77.05},
	"La Victoria":           {-12.07, -77.03},
	"San Luis":              {-12.09, -77.02},
	"El Agustino":           {-12.05, -77.02},
	"Ate":                   {-12.05, -76.95},
	"Comas":                 {-11.95, -77.05},
	"Los Olivos":            {-11.98, -77.07},
	"San Martín de Porres":  {-12.00, -77.05},
	"Independencia":         {-11.99, -77.03},
	"Rímac":                 {-12.03, -77.02},
	"Callao":                {-12.05, -77.15},
	"La Punta":              {-12.07, -77.17},
	"Bellavista":            {-12.06, -77.13},
	"Carmen de la Legua":    {-12.04, -77.12},
	"Ventanilla":            {-11.90, -77.20},
	"Ancón":                 {-11.75, -77.15},
	"Puente Piedra":         {-11.85, -77.10},
	"Carabayllo":            {-11.90, -77.05},
}

var districts = func() []string {
	out := make([]string, 0, len(districtCenters))
	for d := range districtCenters {
		out = append(out, d)
	}
	return out
}()

var placeNames = []string{
	"Supermercado Metro", "Plaza Vea", "Wong", "Tottus", "Vivanda",
	"Farmacia InkaFarma", "Farmacia Mifarma", "Farmacia Arcángel",
	"Centro Comercial Jockey Plaza", "Centro Comercial MegaPlaza",
	"Centro Comercial Real Plaza", "Restaurante La Mar", "Restaurante Central",
	"Restaurante Maido", "Hotel Sheraton", "Hotel Marriott",
	"Universidad Católica", "Universidad San Marcos", "Universidad de Lima",
	"Hospital Edgardo Rebagliati", "Clínica Anglo Americana", "Clínica Delgado",
	"Parque Kennedy", "Parque El Olivar", "Plaza Mayor de Lima",
	"Plaza San Martín", "Mercado Central", "Mercado de Surquillo",
	"Estadio Nacional", "Aeropuerto Jorge Chávez",
}

var nameSuffixes = []string{"Express", "Plus", "Premium", "Norte", "Sur", "Este", "Oeste", "Principal"}

// Generator produces synthetic Lima client datasets. A fixed seed yields a
// reproducible dataset.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Client generates one synthetic client with the given numeric id.
func (g *Generator) Client(id int) model.Client {
	district := districts[g.rng.Intn(len(districts))]
	center := districtCenters[district]
	lat := center[0] + g.rng.Float64()*0.02 - 0.01
	lon := center[1] + g.rng.Float64()*0.02 - 0.01

	priority := g.priority()
	start, end := g.window()

	return model.Client{
		ID:          fmt.Sprintf("%d", id),
		Name:        g.name(district),
		District:    district,
		Lat:         round4(lat),
		Lon:         round4(lon),
		Priority:    priority,
		Demand:      round2(g.demand(priority)),
		WindowStart: start,
		WindowEnd:   end,
	}
}

// Clients generates n clients with ids 1..n.
func (g *Generator) Clients(n int) []model.Client {
	out := make([]model.Client, n)
	for i := range out {
		out[i] = g.Client(i + 1)
	}
	return out
}

// priority draws from the observed delivery mix: 20% level 1, 30% level 2,
// 25% level 3, 15% level 4, 10% level 5.
func (g *Generator) priority() int {
	r := g.rng.Float64()
	switch {
	case r < 0.20:
		return 1
	case r < 0.50:
		return 2
	case r < 0.75:
		return 3
	case r < 0.90:
		return 4
	default:
		return 5
	}
}

// demand in kilograms; urgent deliveries tend to be the big ones.
func (g *Generator) demand(priority int) float64 {
	ranges := map[int][2]float64{
		1: {200, 500},
		2: {150, 400},
		3: {100, 300},
		4: {50, 200},
		5: {25, 150},
	}
	r := ranges[priority]
	return r[0] + g.rng.Float64()*(r[1]-r[0])
}

func (g *Generator) window() (string, string) {
	startHour := 6 + g.rng.Intn(15) // 06:00 .. 20:00
	durations := []int{2, 3, 4, 6, 8, 12}
	endHour := startHour + durations[g.rng.Intn(len(durations))]
	if endHour > 23 {
		endHour = 23
	}
	return fmt.Sprintf("%02d:00", startHour), fmt.Sprintf("%02d:00", endHour)
}

func (g *Generator) name(district string) string {
	base := placeNames[g.rng.Intn(len(placeNames))]
	switch g.rng.Intn(3) {
	case 0:
		return base + " - " + district
	case 1:
		return fmt.Sprintf("%s %d", base, 1+g.rng.Intn(5))
	default:
		return base + " " + nameSuffixes[g.rng.Intn(len(nameSuffixes))]
	}
}

// DatasetStats summarizes a generated dataset.
type DatasetStats struct {
	TotalClients  int         `json:"total_clientes"`
	TotalDemand   float64     `json:"pedido_total"`
	AverageDemand float64     `json:"pedido_promedio"`
	MaxDemand     float64     `json:"pedido_maximo"`
	MinDemand     float64     `json:"pedido_minimo"`
	ByPriority    map[int]int `json:"distribucion_prioridades"`
}

func Summarize(clients []model.Client) DatasetStats {
	st := DatasetStats{TotalClients: len(clients), ByPriority: map[int]int{}}
	if len(clients) == 0 {
		return st
	}
	st.MinDemand = clients[0].Demand
	for _, c := range clients {
		st.TotalDemand += c.Demand
		if c.Demand > st.MaxDemand {
			st.MaxDemand = c.Demand
		}
		if c.Demand < st.MinDemand {
			st.MinDemand = c.Demand
		}
		st.ByPriority[c.Priority]++
	}
	st.TotalDemand = round2(st.TotalDemand)
	st.AverageDemand = round2(st.TotalDemand / float64(len(clients)))
	return st
}

func round4(v float64) float64 { return float64(int64(v*10000+sign(v)*0.5)) / 10000 }
func round2(v float64) float64 { return float64(int64(v*100+sign(v)*0.5)) / 100 }

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
