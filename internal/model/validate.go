package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidClient marks a malformed client record.
	ErrInvalidClient = errors.New("invalid client")
	// ErrInvalidVehicle marks a malformed vehicle record.
	ErrInvalidVehicle = errors.New("invalid vehicle")
)

// Validate checks coordinate ranges, priority, demand and the time window.
func (c Client) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidClient)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w %s: latitude %v out of range", ErrInvalidClient, c.ID, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w %s: longitude %v out of range", ErrInvalidClient, c.ID, c.Lon)
	}
	if c.Priority < 1 || c.Priority > 5 {
		return fmt.Errorf("%w %s: priority %d not in 1..5", ErrInvalidClient, c.ID, c.Priority)
	}
	if c.Demand <= 0 {
		return fmt.Errorf("%w %s: demand %v must be positive", ErrInvalidClient, c.ID, c.Demand)
	}
	start, err := ParseClock(c.WindowStart)
	if err != nil {
		return fmt.Errorf("%w %s: window start: %v", ErrInvalidClient, c.ID, err)
	}
	end, err := ParseClock(c.WindowEnd)
	if err != nil {
		return fmt.Errorf("%w %s: window end: %v", ErrInvalidClient, c.ID, err)
	}
	if start >= end {
		return fmt.Errorf("%w %s: window start %s not before end %s", ErrInvalidClient, c.ID, c.WindowStart, c.WindowEnd)
	}
	return nil
}

// Validate checks the capacity and identifier of a vehicle.
func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidVehicle)
	}
	if v.Capacity <= 0 {
		return fmt.Errorf("%w %s: capacity %v must be positive", ErrInvalidVehicle, v.ID, v.Capacity)
	}
	return nil
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("clock %q: hours must be 0..23", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock %q: minutes must be 0..59", s)
	}
	return hours*60 + minutes, nil
}
