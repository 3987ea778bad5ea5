package tools

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attuneapp/attune/internal/flights"
	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
)

type fakeReservationStore struct {
	reservations []*store.Reservation
}

func (f *fakeReservationStore) Create(_ context.Context, r *store.Reservation) (*store.Reservation, error) {
	saved := *r
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	f.reservations = append(f.reservations, &saved)
	return &saved, nil
}

func (f *fakeReservationStore) List(_ context.Context, ownerID string) ([]*store.Reservation, error) {
	var out []*store.Reservation
	for _, r := range f.reservations {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestFlights(t *testing.T) (*Flights, *fakeReservationStore) {
	t.Helper()
	st := &fakeReservationStore{}
	f, err := NewFlights(flights.New(4), st, log.NewNop())
	if err != nil {
		t.Fatalf("NewFlights() error = %v", err)
	}
	return f, st
}

func TestSearchFlightsInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   SearchFlightsInput
		wantErr bool
	}{
		{name: "valid", input: SearchFlightsInput{Origin: "TPE", Destination: "NRT", DepartureDate: "2026-10-01"}},
		{name: "lowercase codes", input: SearchFlightsInput{Origin: "tpe", Destination: "nrt", DepartureDate: "2026-10-01"}},
		{name: "bad origin", input: SearchFlightsInput{Origin: "TPEI", Destination: "NRT", DepartureDate: "2026-10-01"}, wantErr: true},
		{name: "same route ends", input: SearchFlightsInput{Origin: "TPE", Destination: "tpe", DepartureDate: "2026-10-01"}, wantErr: true},
		{name: "bad date", input: SearchFlightsInput{Origin: "TPE", Destination: "NRT", DepartureDate: "Oct 1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlights_SearchIsAnonymous(t *testing.T) {
	f, _ := newTestFlights(t)

	result, err := f.SearchFlights(anonymousCtx(), SearchFlightsInput{
		Origin: "TPE", Destination: "NRT", DepartureDate: "2026-10-01",
	})
	if err != nil {
		t.Fatalf("SearchFlights() error = %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("status = %v, result %+v", result.Status, result)
	}
	if got := result.Data["count"]; got != 4 {
		t.Errorf("count = %v, want 4", got)
	}
	if result.NextTool != CreateReservationName {
		t.Errorf("NextTool = %q, want %q", result.NextTool, CreateReservationName)
	}
}

func TestFlights_BookingFlow(t *testing.T) {
	f, st := newTestFlights(t)

	search, err := f.SearchFlights(anonymousCtx(), SearchFlightsInput{
		Origin: "TPE", Destination: "NRT", DepartureDate: "2026-10-01",
	})
	if err != nil {
		t.Fatalf("SearchFlights() error = %v", err)
	}
	found, ok := search.Data["flights"].([]flights.Flight)
	if !ok || len(found) == 0 {
		t.Fatalf("no flights in search result: %+v", search.Data)
	}

	tctx := signedInCtx("user-1")
	booked, err := f.CreateReservation(tctx, CreateReservationInput{
		FlightNumber:  found[0].Number,
		DepartureDate: "2026-10-01",
		Passenger:     "Kim Lee",
	})
	if err != nil {
		t.Fatalf("CreateReservation() error = %v", err)
	}
	if booked.Status != StatusSuccess {
		t.Fatalf("status = %v, result %+v", booked.Status, booked)
	}
	if len(st.reservations) != 1 {
		t.Fatalf("store holds %d reservations, want 1", len(st.reservations))
	}
	if st.reservations[0].Seat == "" {
		t.Error("reservation has no seat assigned")
	}

	listed, err := f.ListReservations(tctx, ListReservationsInput{})
	if err != nil {
		t.Fatalf("ListReservations() error = %v", err)
	}
	if got := listed.Data["count"]; got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
}

func TestFlights_ReservationRequiresSignIn(t *testing.T) {
	f, st := newTestFlights(t)

	result, err := f.CreateReservation(anonymousCtx(), CreateReservationInput{
		FlightNumber: "AT123", DepartureDate: "2026-10-01", Passenger: "Kim",
	})
	if err != nil {
		t.Fatalf("CreateReservation() error = %v", err)
	}
	if result.Error == nil || result.Error.Code != ErrCodeUnauthenticated {
		t.Errorf("error = %+v, want code %s", result.Error, ErrCodeUnauthenticated)
	}
	if len(st.reservations) != 0 {
		t.Error("anonymous booking touched the store")
	}
}

func TestFlights_Status(t *testing.T) {
	f, _ := newTestFlights(t)

	result, err := f.GetFlightStatus(anonymousCtx(), GetFlightStatusInput{
		FlightNumber: "AT123", DepartureDate: "2026-10-01",
	})
	if err != nil {
		t.Fatalf("GetFlightStatus() error = %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("status = %v, result %+v", result.Status, result)
	}
	if result.Data["status"] == nil {
		t.Error("status payload missing")
	}
}
