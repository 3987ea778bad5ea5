package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/attuneapp/attune/internal/flights"
	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
)

// FlightService provides flight search and status data.
type FlightService interface {
	Search(origin, destination, date string) ([]flights.Flight, error)
	FlightStatus(number, date string) (*flights.Status, error)
	AssignSeat(number, date, passenger string) string
}

// ReservationStore is the persistence surface the booking tools need.
type ReservationStore interface {
	Create(ctx context.Context, r *store.Reservation) (*store.Reservation, error)
	List(ctx context.Context, ownerID string) ([]*store.Reservation, error)
}

// SearchFlightsInput defines input for the search_flights tool.
type SearchFlightsInput struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in SearchFlightsInput) Validate() error {
	if err := validateAirportCode(in.Origin, "origin"); err != nil {
		return err
	}
	if err := validateAirportCode(in.Destination, "destination"); err != nil {
		return err
	}
	if strings.EqualFold(in.Origin, in.Destination) {
		return fmt.Errorf("origin and destination must differ")
	}
	return validateFlightDate(in.DepartureDate)
}

// GetFlightStatusInput defines input for the get_flight_status tool.
type GetFlightStatusInput struct {
	FlightNumber  string `json:"flightNumber"`
	DepartureDate string `json:"departureDate"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in GetFlightStatusInput) Validate() error {
	if strings.TrimSpace(in.FlightNumber) == "" {
		return fmt.Errorf("flightNumber must not be empty")
	}
	return validateFlightDate(in.DepartureDate)
}

// CreateReservationInput defines input for the create_reservation tool.
type CreateReservationInput struct {
	FlightNumber  string `json:"flightNumber"`
	DepartureDate string `json:"departureDate"`
	Passenger     string `json:"passenger"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in CreateReservationInput) Validate() error {
	if strings.TrimSpace(in.FlightNumber) == "" {
		return fmt.Errorf("flightNumber must not be empty")
	}
	if strings.TrimSpace(in.Passenger) == "" {
		return fmt.Errorf("passenger must not be empty")
	}
	return validateFlightDate(in.DepartureDate)
}

// ListReservationsInput defines input for the list_reservations tool (none needed).
type ListReservationsInput struct{}

func validateAirportCode(code, field string) error {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return fmt.Errorf("%s must be a 3-letter airport code", field)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return fmt.Errorf("%s must be a 3-letter airport code", field)
		}
	}
	return nil
}

func validateFlightDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("departureDate must be YYYY-MM-DD")
	}
	return nil
}

// Flights holds dependencies for flight tools.
type Flights struct {
	svc          FlightService
	reservations ReservationStore
	logger       log.Logger
}

// NewFlights creates a Flights toolset.
func NewFlights(svc FlightService, reservations ReservationStore, logger log.Logger) (*Flights, error) {
	if svc == nil {
		return nil, fmt.Errorf("flight service is required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Flights{svc: svc, reservations: reservations, logger: logger}, nil
}

// RegisterFlights registers the flight tools with Genkit.
func RegisterFlights(g *genkit.Genkit, f *Flights) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if f == nil {
		return nil, fmt.Errorf("Flights is required")
	}

	search, err := Define(g, SearchFlightsName,
		"Search for flights between two airports on a date. "+
			"Origin and destination are 3-letter airport codes (e.g. TPE, NRT); "+
			"the date is YYYY-MM-DD. Use current_time first if the user said a "+
			"relative date like 'tomorrow'. Returns flight numbers, times, prices, "+
			"and seats left.",
		f.SearchFlights)
	if err != nil {
		return nil, err
	}

	status, err := Define(g, GetFlightStatusName,
		"Get the live status of a flight on a date: state, gate, terminal, "+
			"and delay if any. The date is YYYY-MM-DD.",
		f.GetFlightStatus)
	if err != nil {
		return nil, err
	}

	reserve, err := Define(g, CreateReservationName,
		"Book a seat on a flight for a passenger. "+
			"Use search_flights first to find a flight number, and confirm the "+
			"flight and passenger name with the user before booking. "+
			"Requires the user to be signed in.",
		f.CreateReservation)
	if err != nil {
		return nil, err
	}

	list, err := Define(g, ListReservationsName,
		"List the signed-in user's flight reservations, newest first. "+
			"Requires the user to be signed in.",
		f.ListReservations)
	if err != nil {
		return nil, err
	}

	return []ai.Tool{search, status, reserve, list}, nil
}

// SearchFlights finds flights on a route. Available to anonymous users.
func (f *Flights) SearchFlights(tctx *ai.ToolContext, in SearchFlightsInput) (Result, error) {
	found, err := f.svc.Search(in.Origin, in.Destination, in.DepartureDate)
	if err != nil {
		return Errf(ErrCodeValidation, "%s", err.Error()), nil
	}

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"flights": found,
			"count":   len(found),
		},
		NextTool: CreateReservationName,
	}, nil
}

// GetFlightStatus reports the state of one flight. Available to
// anonymous users.
func (f *Flights) GetFlightStatus(tctx *ai.ToolContext, in GetFlightStatusInput) (Result, error) {
	st, err := f.svc.FlightStatus(in.FlightNumber, in.DepartureDate)
	if err != nil {
		return Errf(ErrCodeValidation, "%s", err.Error()), nil
	}
	return OK(map[string]any{"status": st}), nil
}

// CreateReservation books a seat for the signed-in subject.
func (f *Flights) CreateReservation(tctx *ai.ToolContext, in CreateReservationInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	seat := f.svc.AssignSeat(in.FlightNumber, in.DepartureDate, in.Passenger)
	reservation, err := f.reservations.Create(tctx.Context, &store.Reservation{
		OwnerID:       subject,
		FlightNumber:  strings.ToUpper(strings.TrimSpace(in.FlightNumber)),
		DepartureDate: in.DepartureDate,
		Passenger:     strings.TrimSpace(in.Passenger),
		Seat:          seat,
	})
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("creating reservation: %w", err)
		}
		f.logger.Warn("creating reservation", "flight", in.FlightNumber, "error", err)
		return Errf(ErrCodeExecution, "could not create the reservation"), nil
	}

	f.logger.Debug("reservation created", "reservation_id", reservation.ID, "flight", reservation.FlightNumber)
	return Result{
		Status: StatusSuccess,
		Message: fmt.Sprintf("Booked %s on %s for %s, seat %s.",
			reservation.FlightNumber, reservation.DepartureDate, reservation.Passenger, reservation.Seat),
		Data: map[string]any{"reservation": reservation},
	}, nil
}

// ListReservations lists the subject's bookings.
func (f *Flights) ListReservations(tctx *ai.ToolContext, _ ListReservationsInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	reservations, err := f.reservations.List(tctx.Context, subject)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("listing reservations: %w", err)
		}
		f.logger.Warn("listing reservations", "error", err)
		return Errf(ErrCodeExecution, "could not list reservations"), nil
	}

	if reservations == nil {
		reservations = []*store.Reservation{}
	}
	return OK(map[string]any{
		"reservations": reservations,
		"count":        len(reservations),
	}), nil
}
