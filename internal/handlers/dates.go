package handlers

import (
	"time"
)

const dateLayout = "2006-01-02"

// startOfDay parses a YYYY-MM-DD query value as midnight UTC. Empty input yields nil.
func startOfDay(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// endOfDay parses a YYYY-MM-DD query value as the last instant of that UTC day, so every
// entry dated on it is included.
func endOfDay(value string) (*time.Time, error) {
	t, err := startOfDay(value)
	if err != nil || t == nil {
		return t, err
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end, nil
}
