package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
)

// DefaultLookupDelay simulates the latency of a flight data provider
const DefaultLookupDelay = 500 * time.Millisecond

// FlightLookup fills in route and aircraft data from an airline and flight
// number. It answers with fixed data.
type FlightLookup struct {
	delay time.Duration
}

// NewFlightLookup creates a new FlightLookup
func NewFlightLookup(delay time.Duration) *FlightLookup {
	return &FlightLookup{delay: delay}
}

// Lookup returns the flight data after the lookup delay, or an error when
// ctx ends first
func (f *FlightLookup) Lookup(ctx context.Context, airline, flightNumber string) (*model.FlightInfo, error) {
	if strings.TrimSpace(airline) == "" || strings.TrimSpace(flightNumber) == "" {
		return nil, goerr.New("airline and flight number are required",
			goerr.V("airline", airline),
			goerr.V("flightNumber", flightNumber),
			goerr.T(model.ErrTagInsufficientFlightData))
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "flight lookup cancelled")
	case <-timer.C:
	}

	ctxlog.From(ctx).Debug("Flight data looked up", "airline", airline, "flightNumber", flightNumber)

	return &model.FlightInfo{
		DepartureAirport: "BOG",
		ArrivingAirport:  "MDE",
		Registration:     "HK-4321",
		BaseIATA:         "BOG",
	}, nil
}

var _ interfaces.FlightLookup = (*FlightLookup)(nil)
