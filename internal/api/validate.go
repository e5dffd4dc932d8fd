package api

import (
	"fmt"
	"time"

	"rutaopt/internal/opt"
)

// runRequest is the body of POST /api/ejecutar_algoritmo. Parameters are
// optional overrides of the configured engine limits.
type runRequest struct {
	Algorithm  string    `json:"algoritmo"`
	Parameters runParams `json:"parametros"`
}

type runParams struct {
	SearchTimeLimitSec float64 `json:"tiempo_limite_busqueda,omitempty"`
	RouteTimeLimitMin  float64 `json:"limite_tiempo_ruta,omitempty"`
	MinutesPerKm       float64 `json:"minutos_por_km,omitempty"`
	MaxExactGroup      int     `json:"max_grupo_exacto,omitempty"`
}

func validateRunRequest(req *runRequest) error {
	if req.Algorithm == "" {
		return fmt.Errorf("algoritmo required")
	}
	if _, err := opt.Label(req.Algorithm); err != nil {
		return err
	}
	p := req.Parameters
	if p.SearchTimeLimitSec < 0 {
		return fmt.Errorf("tiempo_limite_busqueda must be >= 0")
	}
	if p.RouteTimeLimitMin < 0 {
		return fmt.Errorf("limite_tiempo_ruta must be >= 0")
	}
	if p.MinutesPerKm < 0 {
		return fmt.Errorf("minutos_por_km must be >= 0")
	}
	if p.MaxExactGroup < 0 {
		return fmt.Errorf("max_grupo_exacto must be >= 0")
	}
	return nil
}

// apply overlays the non-zero request parameters onto the engine params.
func (r *runRequest) apply(p *opt.Params) {
	if r.Parameters.SearchTimeLimitSec > 0 {
		p.SearchTimeLimit = time.Duration(r.Parameters.SearchTimeLimitSec * float64(time.Second))
	}
	if r.Parameters.RouteTimeLimitMin > 0 {
		p.RouteTimeLimitMin = r.Parameters.RouteTimeLimitMin
	}
	if r.Parameters.MinutesPerKm > 0 {
		p.MinutesPerKm = r.Parameters.MinutesPerKm
	}
	if r.Parameters.MaxExactGroup > 0 {
		p.MaxExactGroup = r.Parameters.MaxExactGroup
	}
}

func algorithmLabel(name string) (string, error) { return opt.Label(name) }
