package ingest

import "testing"

func TestGeneratorReproducible(t *testing.T) {
	a := NewGenerator(42).Clients(50)
	b := NewGenerator(42).Clients(50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	c := NewGenerator(43).Clients(50)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical datasets")
	}
}

func TestGeneratorClientsValid(t *testing.T) {
	clients := NewGenerator(1).Clients(300)
	for _, c := range clients {
		if err := c.Validate(); err != nil {
			t.Fatalf("generated invalid client: %v", err)
		}
		center, ok := districtCenters[c.District]
		if !ok {
			t.Fatalf("unknown district %q", c.District)
		}
		if d := c.Lat - center[0]; d < -0.0101 || d > 0.0101 {
			t.Fatalf("client %s lat %v too far from %s center", c.ID, c.Lat, c.District)
		}
		if d := c.Lon - center[1]; d < -0.0101 || d > 0.0101 {
			t.Fatalf("client %s lon %v too far from %s center", c.ID, c.Lon, c.District)
		}
	}
}

func TestGeneratorDemandMatchesPriority(t *testing.T) {
	bounds := map[int][2]float64{
		1: {200, 500}, 2: {150, 400}, 3: {100, 300}, 4: {50, 200}, 5: {25, 150},
	}
	for _, c := range NewGenerator(2).Clients(500) {
		b := bounds[c.Priority]
		if c.Demand < b[0] || c.Demand > b[1] {
			t.Fatalf("priority %d demand %v outside [%v,%v]", c.Priority, c.Demand, b[0], b[1])
		}
	}
}

func TestGeneratorPriorityMix(t *testing.T) {
	clients := NewGenerator(3).Clients(2000)
	st := Summarize(clients)
	// 30% of clients should be priority 2, give or take.
	frac := float64(st.ByPriority[2]) / float64(st.TotalClients)
	if frac < 0.25 || frac > 0.35 {
		t.Fatalf("priority-2 fraction %v far from 0.30", frac)
	}
	if st.MinDemand < 25 || st.MaxDemand > 500 {
		t.Fatalf("demand range: %+v", st)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	if st.TotalClients != 0 || st.TotalDemand != 0 {
		t.Fatalf("empty stats: %+v", st)
	}
}
