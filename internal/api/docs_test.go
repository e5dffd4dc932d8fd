package api

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
)

func TestOpenAPIHandler(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.OpenAPIHandler(rr, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
    if rr.Code != 200 {
        t.Fatalf("openapi: got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "/api/ejecutar_algoritmo") {
        t.Fatalf("spec missing run endpoint:\n%s", body[:200])
    }
}

func TestDocsPagesServed(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.DocsHandler(rr, httptest.NewRequest(http.MethodGet, "/docs", nil))
    if rr.Code != 200 || !strings.Contains(rr.Body.String(), "redoc") {
        t.Fatalf("docs page: %d", rr.Code)
    }
    rr = httptest.NewRecorder()
    s.SwaggerHandler(rr, httptest.NewRequest(http.MethodGet, "/consola", nil))
    if rr.Code != 200 || !strings.Contains(rr.Body.String(), "SwaggerUIBundle") {
        t.Fatalf("swagger page: %d", rr.Code)
    }
}

func TestDebugHandlerHidesSecrets(t *testing.T) {
    s := newTestServer(t)
    s.Cfg.DatabaseURL = "postgres://user:secret@db/x"
    rr := httptest.NewRecorder()
    s.DebugHandler(rr, httptest.NewRequest(http.MethodGet, "/debug", nil))
    if rr.Code != 200 {
        t.Fatalf("debug: got %d", rr.Code)
    }
    if strings.Contains(rr.Body.String(), "secret") {
        t.Fatalf("debug leaked connection URL: %s", rr.Body.String())
    }
    var out struct {
        Config map[string]any `json:"config"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
        t.Fatalf("debug body: %v", err)
    }
    if out.Config["has_database_url"] != true {
        t.Fatalf("expected has_database_url true: %v", out.Config)
    }
    if out.Config["deposito"] != "deposito" {
        t.Fatalf("unexpected depot id: %v", out.Config["deposito"])
    }
}
