package store

import (
	"context"
	"errors"
	"testing"

	"rutaopt/internal/model"
)

func validClient(id string) model.Client {
	return model.Client{
		ID: id, Name: "Cliente " + id, District: "Miraflores",
		Lat: -12.12, Lon: -77.03, Priority: 2, Demand: 50,
		WindowStart: "08:00", WindowEnd: "18:00",
	}
}

func TestMemoryClientsCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c, err := m.PutClient(ctx, validClient("c1"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := m.GetClient(ctx, c.ID)
	if err != nil || got.Name != "Cliente c1" {
		t.Fatalf("get: %v %+v", err, got)
	}

	// Generated id when blank.
	anon := validClient("")
	created, err := m.PutClient(ctx, anon)
	if err != nil || created.ID == "" {
		t.Fatalf("put blank id: %v %+v", err, created)
	}

	list, _ := m.ListClients(ctx)
	if len(list) != 2 {
		t.Fatalf("list: want 2, got %d", len(list))
	}

	if err := m.DeleteClient(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.GetClient(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := m.DeleteClient(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestMemoryPutClientValidates(t *testing.T) {
	m := NewMemory()
	bad := validClient("c1")
	bad.Priority = 0
	if _, err := m.PutClient(context.Background(), bad); err == nil {
		t.Fatal("want validation error")
	}
}

func TestMemoryReplaceClients(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.PutClient(ctx, validClient("old"))

	n, err := m.ReplaceClients(ctx, []model.Client{validClient("a"), validClient("b")})
	if err != nil || n != 2 {
		t.Fatalf("replace: n=%d err=%v", n, err)
	}
	if _, err := m.GetClient(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old client should be gone, got %v", err)
	}
}

func TestMemoryVehicles(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v, err := m.PutVehicle(ctx, model.Vehicle{ID: "v1", Plate: "ABC-123", Capacity: 500, Available: true})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	v, err = m.SetVehicleAvailable(ctx, v.ID, false)
	if err != nil || v.Available {
		t.Fatalf("toggle: %v %+v", err, v)
	}
	if _, err := m.SetVehicleAvailable(ctx, "nope", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := m.PutVehicle(ctx, model.Vehicle{ID: "v2", Capacity: -1}); err == nil {
		t.Fatal("want validation error for negative capacity")
	}
}

func TestMemoryResults(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a, _ := m.SaveResult(ctx, model.OptimizationResult{Algorithm: "Bellman-Ford"})
	b, _ := m.SaveResult(ctx, model.OptimizationResult{Algorithm: "Bellman-Ford"})
	c, _ := m.SaveResult(ctx, model.OptimizationResult{Algorithm: "Backtracking con Poda"})

	last, err := m.LastResult(ctx, "Bellman-Ford")
	if err != nil || last.ID != b.ID {
		t.Fatalf("last: %v %+v", err, last)
	}

	all, _ := m.ListResults(ctx, "", 10)
	if len(all) != 3 || all[0].ID != c.ID || all[2].ID != a.ID {
		t.Fatalf("list order: %+v", all)
	}
	bf, _ := m.ListResults(ctx, "Bellman-Ford", 1)
	if len(bf) != 1 || bf[0].ID != b.ID {
		t.Fatalf("filtered list: %+v", bf)
	}

	if _, err := m.GetResult(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := m.LastResult(ctx, "alns"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c1 := validClient("c1")
	c2 := validClient("c2")
	c2.Priority = 1
	c2.District = "San Isidro"
	_, _ = m.PutClient(ctx, c1)
	_, _ = m.PutClient(ctx, c2)
	_, _ = m.PutVehicle(ctx, model.Vehicle{ID: "v1", Plate: "ABC-123", Capacity: 500, Available: true})
	_, _ = m.PutVehicle(ctx, model.Vehicle{ID: "v2", Plate: "DEF-456", Capacity: 300, Available: false})

	st, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalClients != 2 || st.TotalVehicles != 2 || st.AvailableVehicles != 1 {
		t.Fatalf("counts: %+v", st)
	}
	if st.TotalDemand != 100 || st.TotalCapacity != 800 {
		t.Fatalf("sums: %+v", st)
	}
	if st.ByPriority[1] != 1 || st.ByPriority[2] != 1 {
		t.Fatalf("priorities: %+v", st.ByPriority)
	}
	if st.ByDistrict["Miraflores"] != 1 || st.ByDistrict["San Isidro"] != 1 {
		t.Fatalf("districts: %+v", st.ByDistrict)
	}
}
