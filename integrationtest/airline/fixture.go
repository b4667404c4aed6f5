// Package airline provides an end-to-end customer-service scenario: an
// in-memory airline backend exposed as tools, driven through the full
// reasoning loop.
package airline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/registry"
	"github.com/gyre-ai/gyre/schema"
)

// SystemPrompt is the agent's role description for all airline scenarios.
const SystemPrompt = `You are a customer service agent for Gyre Airlines.
Help the customer with their booking. Always look up the customer and their
booking before making changes, and confirm what you did in your final answer.
If the customer asks for something you cannot do, escalate to a human agent.`

type Customer struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Tier       string   `json:"tier"` // bronze, silver, gold
	BookingIDs []string `json:"booking_ids"`
}

type Flight struct {
	Number        string  `json:"number"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time"`
	SeatsLeft     int     `json:"seats_left"`
	Price         float64 `json:"price"`
}

type Booking struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customer_id"`
	FlightNumber string `json:"flight_number"`
	Status       string `json:"status"` // confirmed, cancelled
}

// Fixture is the in-memory airline backend. All tools close over it; its
// mutex makes them safe for parallel dispatch.
type Fixture struct {
	mu        sync.Mutex
	customers map[string]*Customer
	flights   map[string]*Flight
	bookings  map[string]*Booking
}

// NewFixture seeds the standard test data set: customer C001 with booking
// B001 on flight GY100, plus two later flights on the same route.
func NewFixture() *Fixture {
	return &Fixture{
		customers: map[string]*Customer{
			"C001": {ID: "C001", Name: "John Smith", Tier: "gold", BookingIDs: []string{"B001"}},
			"C002": {ID: "C002", Name: "Maria Garcia", Tier: "bronze", BookingIDs: []string{"B002"}},
		},
		flights: map[string]*Flight{
			"GY100": {Number: "GY100", Origin: "JFK", Destination: "LAX", DepartureTime: "09:00", SeatsLeft: 0, Price: 320},
			"GY105": {Number: "GY105", Origin: "JFK", Destination: "LAX", DepartureTime: "14:30", SeatsLeft: 12, Price: 350},
			"GY110": {Number: "GY110", Origin: "JFK", Destination: "LAX", DepartureTime: "18:45", SeatsLeft: 4, Price: 290},
		},
		bookings: map[string]*Booking{
			"B001": {ID: "B001", CustomerID: "C001", FlightNumber: "GY100", Status: "confirmed"},
			"B002": {ID: "B002", CustomerID: "C002", FlightNumber: "GY110", Status: "confirmed"},
		},
	}
}

type customerLookupArgs struct {
	CustomerID string `json:"customer_id" description:"Customer identifier, e.g. C001"`
}

type bookingLookupArgs struct {
	BookingID string `json:"booking_id" description:"Booking identifier, e.g. B001"`
}

type flightSearchArgs struct {
	Origin      string `json:"origin" description:"Origin airport code"`
	Destination string `json:"destination" description:"Destination airport code"`
}

type rescheduleArgs struct {
	BookingID    string `json:"booking_id" description:"Booking to move"`
	FlightNumber string `json:"flight_number" description:"Flight to move the booking to"`
}

type cancelArgs struct {
	BookingID string `json:"booking_id" description:"Booking to cancel"`
	Reason    string `json:"reason,omitempty" description:"Customer's stated reason"`
}

type escalateArgs struct {
	Summary string `json:"summary" description:"One-line summary of the unresolved request"`
}

// decode round-trips the validated argument map into a typed struct.
func decode[T any](args map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CustomerInfoTool looks up a customer record by ID.
func (f *Fixture) CustomerInfoTool() *gyre.Tool {
	return gyre.NewTool(
		"get_customer_info",
		"Look up a customer record, including their booking IDs.",
		schema.For[customerLookupArgs](),
		func(ctx context.Context, args map[string]any) (string, error) {
			in, err := decode[customerLookupArgs](args)
			if err != nil {
				return "", err
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			customer, ok := f.customers[in.CustomerID]
			if !ok {
				return "", fmt.Errorf("customer %s not found", in.CustomerID)
			}
			return toJSON(customer)
		},
	).WithErrorHandler(observation)
}

// BookingInfoTool looks up a booking record by ID.
func (f *Fixture) BookingInfoTool() *gyre.Tool {
	return gyre.NewTool(
		"get_booking_info",
		"Look up a booking record by booking ID.",
		schema.For[bookingLookupArgs](),
		func(ctx context.Context, args map[string]any) (string, error) {
			in, err := decode[bookingLookupArgs](args)
			if err != nil {
				return "", err
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			booking, ok := f.bookings[in.BookingID]
			if !ok {
				return "", fmt.Errorf("booking %s not found", in.BookingID)
			}
			return toJSON(booking)
		},
	).WithErrorHandler(observation)
}

// FlightSearchTool lists flights on a route, ordered by departure time.
func (f *Fixture) FlightSearchTool() *gyre.Tool {
	return gyre.NewTool(
		"search_flights",
		"List today's flights between two airports, ordered by departure time.",
		schema.For[flightSearchArgs](),
		func(ctx context.Context, args map[string]any) (string, error) {
			in, err := decode[flightSearchArgs](args)
			if err != nil {
				return "", err
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			var matches []*Flight
			for _, flight := range f.flights {
				if flight.Origin == in.Origin && flight.Destination == in.Destination {
					matches = append(matches, flight)
				}
			}
			sort.Slice(matches, func(i, j int) bool {
				return matches[i].DepartureTime < matches[j].DepartureTime
			})
			if len(matches) == 0 {
				return fmt.Sprintf("No flights found from %s to %s.", in.Origin, in.Destination), nil
			}
			return toJSON(matches)
		},
	).WithErrorHandler(observation)
}

// RescheduleTool moves a booking to a different flight. Business failures
// (unknown booking, full flight) come back as observations, not run
// failures.
func (f *Fixture) RescheduleTool() *gyre.Tool {
	return gyre.NewTool(
		"reschedule_booking",
		"Move a confirmed booking to a different flight on the same route.",
		schema.For[rescheduleArgs](),
		func(ctx context.Context, args map[string]any) (string, error) {
			in, err := decode[rescheduleArgs](args)
			if err != nil {
				return "", err
			}
			f.mu.Lock()
			defer f.mu.Unlock()

			booking, ok := f.bookings[in.BookingID]
			if !ok {
				return "", fmt.Errorf("booking %s not found", in.BookingID)
			}
			if booking.Status != "confirmed" {
				return "", fmt.Errorf("booking %s is %s and cannot be rescheduled",
					in.BookingID, booking.Status)
			}
			target, ok := f.flights[in.FlightNumber]
			if !ok {
				return "", fmt.Errorf("flight %s not found", in.FlightNumber)
			}
			if target.SeatsLeft < 1 {
				return "", fmt.Errorf("flight %s has no seats left", in.FlightNumber)
			}

			if previous, ok := f.flights[booking.FlightNumber]; ok {
				previous.SeatsLeft++
			}
			target.SeatsLeft--
			booking.FlightNumber = target.Number

			return fmt.Sprintf("Booking %s moved to flight %s departing %s.",
				booking.ID, target.Number, target.DepartureTime), nil
		},
	).WithErrorHandler(observation)
}

// CancelTool cancels a confirmed booking.
func (f *Fixture) CancelTool() *gyre.Tool {
	return gyre.NewTool(
		"cancel_booking",
		"Cancel a confirmed booking and release its seat.",
		schema.For[cancelArgs](),
		func(ctx context.Context, args map[string]any) (string, error) {
			in, err := decode[cancelArgs](args)
			if err != nil {
				return "", err
			}
			f.mu.Lock()
			defer f.mu.Unlock()

			booking, ok := f.bookings[in.BookingID]
			if !ok {
				return "", fmt.Errorf("booking %s not found", in.BookingID)
			}
			if booking.Status == "cancelled" {
				return "", fmt.Errorf("booking %s is already cancelled", in.BookingID)
			}
			booking.Status = "cancelled"
			if flight, ok := f.flights[booking.FlightNumber]; ok {
				flight.SeatsLeft++
			}
			return fmt.Sprintf("Booking %s cancelled. A refund will be issued within 5 business days.",
				booking.ID), nil
		},
	).WithErrorHandler(observation)
}

// EscalateTool hands the conversation to a human agent. Its output is the
// final answer: the loop ends without another model round.
func (f *Fixture) EscalateTool() *gyre.Tool {
	return gyre.NewTool(
		"escalate_to_human",
		"Hand the conversation to a human agent when the request cannot be resolved.",
		schema.For[escalateArgs](),
		func(ctx context.Context, args map[string]any) (string, error) {
			in, err := decode[escalateArgs](args)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(
				"Your request has been escalated to a human agent (ref: %q). "+
					"You will be contacted within 24 hours.", in.Summary), nil
		},
	).WithReturnDirect(true).WithErrorHandler(observation)
}

// NewRegistry assembles the full airline tool set.
func (f *Fixture) NewRegistry() *registry.Registry {
	r := registry.New()
	r.MustRegister(f.CustomerInfoTool())
	r.MustRegister(f.BookingInfoTool())
	r.MustRegister(f.FlightSearchTool())
	r.MustRegister(f.RescheduleTool())
	r.MustRegister(f.CancelTool())
	r.MustRegister(f.EscalateTool())
	return r
}

// Booking returns a snapshot of a booking, for test assertions.
func (f *Fixture) Booking(id string) (Booking, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return Booking{}, false
	}
	return *booking, true
}

// Flight returns a snapshot of a flight, for test assertions.
func (f *Fixture) Flight(number string) (Flight, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flight, ok := f.flights[number]
	if !ok {
		return Flight{}, false
	}
	return *flight, true
}

// observation formats a business failure as a model-readable observation.
func observation(err error) string {
	return "Error: " + strings.TrimSpace(err.Error())
}
