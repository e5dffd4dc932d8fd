// Package ingest reads client and fleet datasets from CSV and JSON.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rutaopt/internal/model"
)

// clientColumns are the required CSV columns, in export order. The distrito
// column is optional on input.
var clientColumns = []string{
	"id", "nombre", "latitud", "longitud", "prioridad",
	"ventana_inicio", "ventana_fin", "pedido",
}

// RowError describes one rejected CSV row.
type RowError struct {
	Line int    `json:"linea"`
	Err  string `json:"error"`
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Err) }

// ReadClientsCSV parses a client dataset. Malformed rows are collected as
// RowErrors rather than aborting the whole file; a missing required column
// fails immediately.
func ReadClientsCSV(r io.Reader) ([]model.Client, []RowError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, want := range clientColumns {
		if _, ok := col[want]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", want)
		}
	}
	districtIdx, hasDistrict := col["distrito"]

	var clients []model.Client
	var rowErrs []RowError
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}

		get := func(name string) string { return strings.TrimSpace(record[col[name]]) }
		c := model.Client{
			ID:          get("id"),
			Name:        get("nombre"),
			Priority:    atoiOr(get("prioridad"), -1),
			WindowStart: get("ventana_inicio"),
			WindowEnd:   get("ventana_fin"),
		}
		c.Lat, err = strconv.ParseFloat(get("latitud"), 64)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: "latitud: " + err.Error()})
			continue
		}
		c.Lon, err = strconv.ParseFloat(get("longitud"), 64)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: "longitud: " + err.Error()})
			continue
		}
		c.Demand, err = strconv.ParseFloat(get("pedido"), 64)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: "pedido: " + err.Error()})
			continue
		}
		if hasDistrict && districtIdx < len(record) {
			c.District = strings.TrimSpace(record[districtIdx])
		}

		if err := c.Validate(); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}
		clients = append(clients, c)
	}
	return clients, rowErrs, nil
}

// WriteClientsCSV exports clients in the same column order ReadClientsCSV
// expects, with distrito appended.
func WriteClientsCSV(w io.Writer, clients []model.Client) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, clientColumns...), "distrito")); err != nil {
		return err
	}
	for _, c := range clients {
		row := []string{
			c.ID, c.Name,
			strconv.FormatFloat(c.Lat, 'f', 4, 64),
			strconv.FormatFloat(c.Lon, 'f', 4, 64),
			strconv.Itoa(c.Priority),
			c.WindowStart, c.WindowEnd,
			strconv.FormatFloat(c.Demand, 'f', 2, 64),
			c.District,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// vehicleTypes are the accepted fleet vehicle types.
var vehicleTypes = map[string]bool{"Camión": true, "Furgón": true, "Camioneta": true, "Moto": true}

// ReadVehiclesJSON parses a fleet file: a JSON array of vehicles.
func ReadVehiclesJSON(r io.Reader) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	dec := json.NewDecoder(r)
	if err := dec.Decode(&vehicles); err != nil {
		return nil, fmt.Errorf("decode vehicles: %w", err)
	}
	for i := range vehicles {
		v := &vehicles[i]
		if v.ID == "" {
			v.ID = v.Plate
		}
		v.Available = true // fleet files list operable vehicles
		if v.Type != "" && !vehicleTypes[v.Type] {
			return nil, fmt.Errorf("vehicle %s: unknown type %q", v.Plate, v.Type)
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return vehicles, nil
}

// SampleClientsCSV returns a small well-formed dataset documenting the
// expected upload format.
func SampleClientsCSV() string {
	return `id,nombre,latitud,longitud,prioridad,ventana_inicio,ventana_fin,pedido
1,Cliente A,-12.0464,-77.0428,1,08:00,12:00,150.5
2,Cliente B,-12.0564,-77.0328,2,09:00,17:00,200.0
3,Cliente C,-12.0364,-77.0528,3,10:00,16:00,75.25
4,Cliente D,-12.0664,-77.0228,1,08:30,11:30,300.0
5,Cliente E,-12.0264,-77.0628,4,14:00,18:00,125.75
`
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
