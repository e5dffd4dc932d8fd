// Package main runs a demo client: it seeds a small dataset, subscribes to
// the optimization progress WebSocket and triggers a run.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func post(base, path string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return nil
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	algorithm := "backtracking"
	if len(os.Args) > 1 {
		algorithm = os.Args[1]
	}

	clients := [][]byte{
		[]byte(`{"id":"c1","nombre":"Bodega San Isidro","latitud":-12.0975,"longitud":-77.0364,"prioridad":1,"pedido":180,"ventana_inicio":"08:00","ventana_fin":"12:00"}`),
		[]byte(`{"id":"c2","nombre":"Mercado Surquillo","latitud":-12.1117,"longitud":-77.0176,"prioridad":3,"pedido":250,"ventana_inicio":"09:00","ventana_fin":"17:00"}`),
		[]byte(`{"id":"c3","nombre":"Farmacia Miraflores","latitud":-12.1211,"longitud":-77.0297,"prioridad":2,"pedido":90,"ventana_inicio":"10:00","ventana_fin":"14:00"}`),
	}
	for _, c := range clients {
		if err := post(base, "/api/clientes", c); err != nil {
			log.Fatal(err)
		}
	}
	vehicle := []byte(`{"id":"v1","placa":"ABC-123","tipo":"Camión","capacidad":600,"disponible":true}`)
	if err := post(base, "/api/vehiculos", vehicle); err != nil {
		log.Fatal(err)
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws/progreso",
		RawQuery: "algoritmo=" + url.QueryEscape(algorithm)}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev wsEvent
			if err := c.ReadJSON(&ev); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", ev.Type, string(ev.Data))
			if ev.Type == "finished" || ev.Type == "failed" {
				return
			}
		}
	}()

	body := []byte(fmt.Sprintf(`{"algoritmo":%q}`, algorithm))
	if err := post(base, "/api/ejecutar_algoritmo", body); err != nil {
		log.Printf("run: %v", err)
	}

	select {
	case <-time.After(10 * time.Second):
	case <-done:
	}
}
