package model

import (
	"errors"
	"testing"
)

func validClient() Client {
	return Client{
		ID:          "c1",
		Name:        "Cliente A",
		Lat:         -12.05,
		Lon:         -77.03,
		Priority:    1,
		Demand:      100,
		WindowStart: "08:00",
		WindowEnd:   "18:00",
	}
}

func TestClientValidate(t *testing.T) {
	if err := validClient().Validate(); err != nil {
		t.Fatalf("valid client rejected: %v", err)
	}

	cases := map[string]func(*Client){
		"empty id":       func(c *Client) { c.ID = "" },
		"lat high":       func(c *Client) { c.Lat = 91 },
		"lat low":        func(c *Client) { c.Lat = -91 },
		"lon high":       func(c *Client) { c.Lon = 181 },
		"priority zero":  func(c *Client) { c.Priority = 0 },
		"priority six":   func(c *Client) { c.Priority = 6 },
		"zero demand":    func(c *Client) { c.Demand = 0 },
		"bad window":     func(c *Client) { c.WindowStart = "25:00" },
		"window swapped": func(c *Client) { c.WindowStart = "18:00"; c.WindowEnd = "08:00" },
	}
	for name, mutate := range cases {
		c := validClient()
		mutate(&c)
		err := c.Validate()
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !errors.Is(err, ErrInvalidClient) {
			t.Errorf("%s: error %v not ErrInvalidClient", name, err)
		}
	}
}

func TestVehicleValidate(t *testing.T) {
	v := Vehicle{ID: "v1", Plate: "ABC-123", Capacity: 1000, Available: true}
	if err := v.Validate(); err != nil {
		t.Fatalf("valid vehicle rejected: %v", err)
	}

	v.Capacity = 0
	if err := v.Validate(); !errors.Is(err, ErrInvalidVehicle) {
		t.Fatalf("zero capacity: got %v", err)
	}

	v = Vehicle{Plate: "ABC-123", Capacity: 10}
	if err := v.Validate(); !errors.Is(err, ErrInvalidVehicle) {
		t.Fatalf("empty id: got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	mins, err := ParseClock("08:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mins != 510 {
		t.Fatalf("08:30 = %d minutes, want 510", mins)
	}

	for _, bad := range []string{"", "8", "8:60", "24:00", "aa:bb"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) should fail", bad)
		}
	}
}
