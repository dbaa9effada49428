package sim

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field names used in ConfigError and in the YAML run configuration.
const (
	FieldServers         = "servers"
	FieldSeats           = "seats"
	FieldClients         = "clients"
	FieldServiceTime     = "service_time"
	FieldArrivalDelayMin = "arrival_delay_min"
	FieldArrivalDelayMax = "arrival_delay_max"
)

// Defaults carried over from the classic barbershop exercise.
const (
	DefaultServiceTime     = 5000 * time.Millisecond
	DefaultArrivalDelayMin = 500 * time.Millisecond
	DefaultArrivalDelayMax = 2500 * time.Millisecond
	DefaultSeed            = 42
)

// Config groups the parameters of a single run. Servers, Seats and Clients
// are fixed for the lifetime of the run.
type Config struct {
	Servers int // M: number of servers (barbers), must be > 0
	Seats   int // N: number of seats, must be > 0
	Clients int // C: number of clients (customers), must be > 0

	ServiceTime     time.Duration // fixed duration of one service operation
	ArrivalDelayMin time.Duration // inclusive lower bound of the inter-arrival delay
	ArrivalDelayMax time.Duration // exclusive upper bound of the inter-arrival delay
	Seed            int64         // seed for the arrival RNG
}

// DefaultConfig returns a Config with the default timings and zero counts.
// Callers must fill in Servers, Seats and Clients.
func DefaultConfig() Config {
	return Config{
		ServiceTime:     DefaultServiceTime,
		ArrivalDelayMin: DefaultArrivalDelayMin,
		ArrivalDelayMax: DefaultArrivalDelayMax,
		Seed:            DefaultSeed,
	}
}

// Validate checks that all counts are positive and the timings are coherent.
// The returned error is always a *ConfigError.
func (c Config) Validate() error {
	counts := []struct {
		field string
		value int
	}{
		{FieldServers, c.Servers},
		{FieldSeats, c.Seats},
		{FieldClients, c.Clients},
	}
	for _, cnt := range counts {
		if cnt.value <= 0 {
			return &ConfigError{Field: cnt.field, Value: strconv.Itoa(cnt.value), Reason: "must be greater than zero"}
		}
	}
	if c.ServiceTime < 0 {
		return &ConfigError{Field: FieldServiceTime, Value: c.ServiceTime.String(), Reason: "must be non-negative"}
	}
	if c.ArrivalDelayMin < 0 {
		return &ConfigError{Field: FieldArrivalDelayMin, Value: c.ArrivalDelayMin.String(), Reason: "must be non-negative"}
	}
	if c.ArrivalDelayMax < c.ArrivalDelayMin {
		return &ConfigError{
			Field:  FieldArrivalDelayMax,
			Value:  c.ArrivalDelayMax.String(),
			Reason: fmt.Sprintf("must not be below %s (%s)", FieldArrivalDelayMin, c.ArrivalDelayMin),
		}
	}
	return nil
}

// ParseCount parses one line of count input. Trailing spaces and line endings
// are trimmed; anything else that is not a plain decimal number greater than
// zero is rejected with a *ConfigError.
func ParseCount(field, text string) (int, error) {
	s := strings.TrimRight(text, " \t\r\n")
	if s == "" {
		return 0, &ConfigError{Field: field, Reason: "must be a positive integer, got empty input"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &ConfigError{Field: field, Value: s, Reason: "must be a positive integer"}
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ConfigError{Field: field, Value: s, Reason: "out of range"}
	}
	if n == 0 {
		return 0, &ConfigError{Field: field, Value: s, Reason: "must be greater than zero"}
	}
	return n, nil
}
