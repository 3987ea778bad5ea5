// Package flights provides deterministic flight search and status data.
//
// There is no upstream booking system: schedules are derived from a hash
// of the route and date, so the same query always returns the same
// flights. That keeps guided booking flows reproducible across turns of
// a stateless conversation.
package flights

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Flight is one scheduled departure on a route.
type Flight struct {
	Number        string  `json:"flightNumber"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureDate string  `json:"departureDate"`
	Departs       string  `json:"departs"`
	Arrives       string  `json:"arrives"`
	Airline       string  `json:"airline"`
	PriceUSD      float64 `json:"priceUsd"`
	SeatsLeft     int     `json:"seatsLeft"`
}

// Status is the live state of one flight on one date.
type Status struct {
	Number        string `json:"flightNumber"`
	DepartureDate string `json:"departureDate"`
	State         string `json:"state"`
	Gate          string `json:"gate"`
	Terminal      string `json:"terminal"`
	DelayMinutes  int    `json:"delayMinutes,omitempty"`
}

var airlines = []string{"Meridian Air", "Pacific Crown", "Northwind", "Atlas Connect"}

var states = []string{"scheduled", "on-time", "delayed", "boarding", "departed", "landed"}

// Service generates flight data. The zero value is not usable; use New.
type Service struct {
	perRoute int
}

// New creates a flight service that returns up to perRoute flights per
// search. Values outside 1..10 fall back to 4.
func New(perRoute int) *Service {
	if perRoute < 1 || perRoute > 10 {
		perRoute = 4
	}
	return &Service{perRoute: perRoute}
}

// Search returns the flights for a route on a date. Origin and
// destination are IATA-style codes; matching is case-insensitive.
func (s *Service) Search(origin, destination, date string) ([]Flight, error) {
	origin = normalizeCode(origin)
	destination = normalizeCode(destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("origin and destination are required")
	}
	if origin == destination {
		return nil, fmt.Errorf("origin and destination must differ")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}

	seed := hash(origin + "|" + destination + "|" + date)
	flights := make([]Flight, 0, s.perRoute)
	for i := 0; i < s.perRoute; i++ {
		h := mix(seed, uint64(i))

		departMin := 6*60 + int(h%720)        // 06:00 .. 17:59
		duration := 75 + int((h>>16)%360)     // 1h15m .. 7h14m
		price := 89 + float64((h>>24)%740)    // 89 .. 828
		seats := 1 + int((h>>32)%40)          // always bookable
		airline := airlines[int(h>>40)%len(airlines)]

		flights = append(flights, Flight{
			Number:        flightNumber(origin, destination, i, h),
			Origin:        origin,
			Destination:   destination,
			DepartureDate: date,
			Departs:       clock(departMin),
			Arrives:       clock(departMin + duration),
			Airline:       airline,
			PriceUSD:      price + 0.99,
			SeatsLeft:     seats,
		})
	}
	return flights, nil
}

// FlightStatus reports the state of a flight on a date. Unknown flight
// numbers still get a deterministic answer: status lookups accept any
// flight, not only ones produced by Search.
func (s *Service) FlightStatus(number, date string) (*Status, error) {
	number = normalizeCode(number)
	if number == "" {
		return nil, fmt.Errorf("flight number is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}

	h := hash(number + "|" + date)
	st := &Status{
		Number:        number,
		DepartureDate: date,
		State:         states[int(h%uint64(len(states)))],
		Gate:          fmt.Sprintf("%c%d", 'A'+rune((h>>8)%5), 1+(h>>16)%28),
		Terminal:      fmt.Sprintf("%d", 1+(h>>24)%3),
	}
	if st.State == "delayed" {
		st.DelayMinutes = 15 + int((h>>32)%150)
	}
	return st, nil
}

// AssignSeat picks a deterministic seat for a passenger on a flight.
func (s *Service) AssignSeat(number, date, passenger string) string {
	h := hash(normalizeCode(number) + "|" + date + "|" + strings.ToLower(passenger))
	return fmt.Sprintf("%d%c", 5+(h%28), 'A'+rune((h>>16)%6))
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func flightNumber(origin, destination string, i int, h uint64) string {
	prefix := "AT"
	if len(origin) >= 1 && len(destination) >= 1 {
		prefix = origin[:1] + destination[:1]
	}
	return fmt.Sprintf("%s%d", prefix, 100+int(h%800)+i)
}

func clock(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func hash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func mix(seed, i uint64) uint64 {
	x := seed + i*0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	return x
}
