package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attuneapp/attune/internal/log"
)

// Reservation is a booked flight seat owned by one subject.
type Reservation struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       string    `json:"-"`
	FlightNumber  string    `json:"flightNumber"`
	DepartureDate string    `json:"departureDate"`
	Passenger     string    `json:"passenger"`
	Seat          string    `json:"seat"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReservationStore manages flight reservations backed by PostgreSQL.
type ReservationStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewReservationStore creates a ReservationStore.
func NewReservationStore(pool *pgxpool.Pool, logger log.Logger) (*ReservationStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &ReservationStore{pool: pool, logger: logger}, nil
}

// Create inserts a reservation and returns the stored row.
func (s *ReservationStore) Create(ctx context.Context, r *Reservation) (*Reservation, error) {
	if r == nil {
		return nil, fmt.Errorf("reservation is required")
	}
	if r.OwnerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}
	if r.FlightNumber == "" || r.DepartureDate == "" || r.Passenger == "" {
		return nil, fmt.Errorf("flight number, departure date and passenger are required")
	}

	saved := &Reservation{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO reservations (owner_id, flight_number, departure_date, passenger, seat)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, owner_id, flight_number, departure_date, passenger, seat, created_at`,
		r.OwnerID, r.FlightNumber, r.DepartureDate, r.Passenger, r.Seat,
	).Scan(&saved.ID, &saved.OwnerID, &saved.FlightNumber, &saved.DepartureDate,
		&saved.Passenger, &saved.Seat, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting reservation: %w", err)
	}
	return saved, nil
}

// List returns all reservations for the owner, newest first.
func (s *ReservationStore) List(ctx context.Context, ownerID string) ([]*Reservation, error) {
	if ownerID == "" {
		return []*Reservation{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, flight_number, departure_date, passenger, seat, created_at
		 FROM reservations
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	for rows.Next() {
		r := &Reservation{}
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.FlightNumber, &r.DepartureDate,
			&r.Passenger, &r.Seat, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservations: %w", err)
	}
	return reservations, nil
}
