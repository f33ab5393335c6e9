// Package booking turns a seat selection into an order and hands it to the
// payment gateway.
package booking

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"

	"datve-cli/model"
)

// BookedAtLayout is the date-time format the backend expects for ngay_dat_ve.
const BookedAtLayout = time.DateTime

var (
	ErrNoDraft        = errors.New("no booking information")
	ErrNoShowtime     = errors.New("booking has no showtime")
	ErrNoTickets      = errors.New("no tickets selected")
	ErrSeatMismatch   = errors.New("seat count does not match ticket count")
	ErrDuplicateSeat  = errors.New("seat selected twice")
	ErrNegativeCount  = errors.New("counts cannot be negative")
	ErrUnknownProduct = errors.New("unknown ticket type or food item")
)

// Draft is the in-memory selection carried from seat picking to
// confirmation. It is never persisted.
type Draft struct {
	MovieId    model.ID
	TheaterId  model.ID
	RoomId     model.ID
	ShowtimeId model.ID
	// ShowtimeLabel is the start time as shown to the user ("19:30").
	ShowtimeLabel string
	Date          time.Time
	TicketCounts  map[model.ID]int
	Seats         []model.Seat
	FoodCounts    map[model.ID]int
	Total         decimal.Decimal
}

func (d *Draft) TicketCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, n := range d.TicketCounts {
		total += n
	}
	return total
}

// Validate checks the draft invariants: a showtime, at least one ticket and
// exactly one seat per ticket.
func (d *Draft) Validate() error {
	if d == nil {
		return ErrNoDraft
	}
	if d.ShowtimeId.IsZero() {
		return ErrNoShowtime
	}
	for _, n := range d.TicketCounts {
		if n < 0 {
			return ErrNegativeCount
		}
	}
	for _, n := range d.FoodCounts {
		if n < 0 {
			return ErrNegativeCount
		}
	}
	count := d.TicketCount()
	if count == 0 {
		return ErrNoTickets
	}
	if count != len(d.Seats) {
		return fmt.Errorf("%w: %d tickets, %d seats", ErrSeatMismatch, count, len(d.Seats))
	}
	seen := make(map[model.ID]bool, len(d.Seats))
	for _, seat := range d.Seats {
		if seen[seat.Id] {
			return fmt.Errorf("%w: %s", ErrDuplicateSeat, seat.Label)
		}
		seen[seat.Id] = true
	}
	return nil
}

// Quote prices a selection from the catalog.
func Quote(types []model.TicketType, food []model.FoodItem, tickets, foodCounts map[model.ID]int) (decimal.Decimal, error) {
	ticketPrices := make(map[model.ID]decimal.Decimal, len(types))
	for _, t := range types {
		ticketPrices[t.Id] = t.Price
	}
	foodPrices := make(map[model.ID]decimal.Decimal, len(food))
	for _, f := range food {
		foodPrices[f.Id] = f.Price
	}

	total := decimal.Zero
	for id, n := range tickets {
		if n == 0 {
			continue
		}
		price, ok := ticketPrices[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: ticket type %s", ErrUnknownProduct, id)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(n))))
	}
	for id, n := range foodCounts {
		if n == 0 {
			continue
		}
		price, ok := foodPrices[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: food item %s", ErrUnknownProduct, id)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(n))))
	}
	return total, nil
}

// BuildRequest serializes a validated draft for POST /ve. Food is only sent
// when at least one item has a positive count.
func BuildRequest(d *Draft, user *model.User) (model.BookingRequest, error) {
	if err := d.Validate(); err != nil {
		return model.BookingRequest{}, err
	}
	if user == nil || user.Id.IsZero() {
		return model.BookingRequest{}, errors.New("user is required")
	}

	seats := make([]string, 0, len(d.Seats))
	for _, seat := range d.Seats {
		seats = append(seats, seat.Id.String())
	}

	req := model.BookingRequest{
		UserId:     user.Id,
		ShowtimeId: d.ShowtimeId,
		Total:      d.Total.Round(2).StringFixed(2),
		BookedAt:   d.Date.Format(BookedAtLayout),
		TicketList: countList(d.TicketCounts),
		SeatList:   strings.Join(seats, ","),
		FoodList:   countList(d.FoodCounts),
	}
	return req, nil
}

// countList renders positive counts as "id:count,..." in id order.
func countList(counts map[model.ID]int) string {
	ids := maps.Keys(counts)
	slices.SortFunc(ids, model.CompareIDs)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := counts[id]; n > 0 {
			parts = append(parts, id.String()+":"+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, ",")
}
