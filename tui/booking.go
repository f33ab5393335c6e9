package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	xmaps "golang.org/x/exp/maps"

	"datve-cli/booking"
	"datve-cli/format"
	"datve-cli/guard"
	"datve-cli/model"
	"datve-cli/notify"
	"datve-cli/service"
	"datve-cli/store"
)

type productsMsg struct {
	showtimeId model.ID
	types      []model.TicketType
	food       []model.FoodItem
	seats      []model.Seat
	err        error
}

type holdTickMsg struct {
	gen       int
	remaining int
}

type holdExpiredMsg struct {
	gen int
}

// partMsg delivers one section of the confirmation screen.
type partMsg[T any] struct {
	gen   int
	value T
	err   error
}

type submitMsg struct {
	result booking.Result
	err    error
}

type part[T any] struct {
	loaded bool
	value  T
	err    error
}

func (p *part[T]) set(value T, err error) {
	p.loaded = true
	p.value = value
	p.err = err
}

// confirmDetails are fetched independently; a failed section shows as not
// found and never blocks the others.
type confirmDetails struct {
	movie   part[model.Movie]
	theater part[model.Theater]
	room    part[model.Room]
	types   part[[]model.TicketType]
	food    part[[]model.FoodItem]
}

type productKind int

const (
	productTicket productKind = iota
	productFood
)

type productItem struct {
	kind  productKind
	id    model.ID
	name  string
	price decimal.Decimal
	count int
}

func (i productItem) Title() string {
	return fmt.Sprintf("%s  ×%d", i.name, i.count)
}
func (i productItem) Description() string {
	kind := "Ticket"
	if i.kind == productFood {
		kind = "Snack"
	}
	return kind + " • " + format.Currency(i.price)
}
func (i productItem) FilterValue() string { return i.name }

func (m appModel) openBooking(id model.ID) (appModel, tea.Cmd) {
	if m.showtime.Id != id {
		cmd := m.showNotice(notify.Warning("Pick a showtime from a movie first."))
		next, navCmd := m.navigate(guard.Redirect{Path: guard.PathHome}, false)
		return next, tea.Batch(cmd, navCmd)
	}
	if m.draft != nil && m.draft.ShowtimeId == id {
		m.ticketCounts = maps.Clone(m.draft.TicketCounts)
		m.foodCounts = maps.Clone(m.draft.FoodCounts)
		m.picked = append([]model.Seat(nil), m.draft.Seats...)
	} else {
		m.ticketCounts = make(map[model.ID]int)
		m.foodCounts = make(map[model.ID]int)
		m.picked = nil
	}
	cmd := m.startLoading("Loading seats and prices")
	return m, tea.Batch(m.fetchProductsCmd(m.showtime), cmd)
}

func (m appModel) fetchProductsCmd(showtime model.Showtime) tea.Cmd {
	ctx := m.requestCtx()
	ttl := m.cfg.CatalogTTL
	return func() tea.Msg {
		msg := productsMsg{showtimeId: showtime.Id}
		msg.types, msg.err = cachedCatalog(ctx, ttl, store.LoadTicketTypeCache, store.SaveTicketTypeCache, m.client.TicketTypes)
		if msg.err != nil {
			return msg
		}
		food, err := cachedCatalog(ctx, ttl, store.LoadFoodCache, store.SaveFoodCache, m.client.FoodItems)
		if err != nil {
			m.log.WarnContext(ctx, "food menu unavailable", "error", err)
		}
		msg.food = food
		msg.seats, msg.err = m.client.SeatsByRoom(ctx, showtime.RoomId)
		return msg
	}
}

func (m appModel) openConfirmation() (appModel, tea.Cmd) {
	m.stopHold()
	m.submitting = false
	m.state = stateConfirm
	if m.draft == nil {
		return m, m.showNotice(notify.Error("No booking information."))
	}

	gen := m.holdGen
	b := m.bus
	m.hold = booking.NewCountdown(booking.HoldSeconds,
		func(remaining int) { b.post(holdTickMsg{gen: gen, remaining: remaining}) },
		func() { b.post(holdExpiredMsg{gen: gen}) },
	)
	m.hold.Start(context.Background())
	m.remaining = booking.HoldSeconds
	m.details = confirmDetails{}

	ctx := m.requestCtx()
	d := *m.draft
	ttl := m.cfg.CatalogTTL
	return m, tea.Batch(
		func() tea.Msg {
			v, err := m.client.Movie(ctx, d.MovieId)
			return partMsg[model.Movie]{gen: gen, value: v, err: err}
		},
		func() tea.Msg {
			if d.TheaterId.IsZero() {
				return partMsg[model.Theater]{gen: gen, err: errors.New("no theater")}
			}
			v, err := m.client.Theater(ctx, d.TheaterId)
			return partMsg[model.Theater]{gen: gen, value: v, err: err}
		},
		func() tea.Msg {
			v, err := m.client.Room(ctx, d.RoomId)
			return partMsg[model.Room]{gen: gen, value: v, err: err}
		},
		func() tea.Msg {
			v, err := cachedCatalog(ctx, ttl, store.LoadTicketTypeCache, store.SaveTicketTypeCache, m.client.TicketTypes)
			return partMsg[[]model.TicketType]{gen: gen, value: v, err: err}
		},
		func() tea.Msg {
			v, err := cachedCatalog(ctx, ttl, store.LoadFoodCache, store.SaveFoodCache, m.client.FoodItems)
			return partMsg[[]model.FoodItem]{gen: gen, value: v, err: err}
		},
	)
}

// stopHold cancels the seat hold countdown. Ticks already in flight carry an
// older generation and are dropped.
func (m *appModel) stopHold() {
	if m.hold != nil {
		m.hold.Cancel()
		m.hold = nil
	}
	m.holdGen++
}

func (m appModel) updateBooking(msg tea.Msg) (appModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case productsMsg:
		if msg.showtimeId != m.showtime.Id {
			return m, nil, true
		}
		if msg.err != nil {
			return m, errWithReturnCmd(fmt.Errorf("load booking options: %s", service.ErrorMessage(msg.err)), stateShowtimes), true
		}
		m.ticketTypes = msg.types
		m.foodItems = msg.food
		m.seats = msg.seats
		m.dropUnavailablePicks()
		m.refreshProducts()
		m.state = stateSelectProducts
		return m, nil, true

	case holdTickMsg:
		if msg.gen == m.holdGen {
			m.remaining = msg.remaining
		}
		return m, nil, true

	case holdExpiredMsg:
		if msg.gen != m.holdGen {
			return m, nil, true
		}
		m.hold = nil
		m.draft = nil
		cmd := m.showNotice(notify.Warning("Seat hold expired. Please book again."))
		next, navCmd := m.navigate(guard.Redirect{Path: guard.PathHome}, false)
		return next, tea.Batch(cmd, navCmd), true

	case partMsg[model.Movie]:
		if msg.gen == m.holdGen {
			m.details.movie.set(msg.value, msg.err)
		}
		return m, nil, true
	case partMsg[model.Theater]:
		if msg.gen == m.holdGen {
			m.details.theater.set(msg.value, msg.err)
		}
		return m, nil, true
	case partMsg[model.Room]:
		if msg.gen == m.holdGen {
			m.details.room.set(msg.value, msg.err)
		}
		return m, nil, true
	case partMsg[[]model.TicketType]:
		if msg.gen == m.holdGen {
			m.details.types.set(msg.value, msg.err)
		}
		return m, nil, true
	case partMsg[[]model.FoodItem]:
		if msg.gen == m.holdGen {
			m.details.food.set(msg.value, msg.err)
		}
		return m, nil, true

	case submitMsg:
		m.submitting = false
		if !msg.result.OrderId.IsZero() {
			m.stopHold()
			m.draft = nil
			next, cmd := m.navigate(guard.Redirect{Path: guard.PathMyTickets}, false)
			return next, cmd, true
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handleBookingKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch m.state {
	case stateSelectProducts:
		switch msg.String() {
		case "right", "+", "=", "l":
			return m.changeCount(1)
		case "left", "-", "h":
			return m.changeCount(-1)
		case "enter":
			if m.ticketTotal() == 0 {
				return m, m.showNotice(notify.Warning("Pick at least one ticket.")), true
			}
			for len(m.picked) > m.ticketTotal() {
				m.picked = m.picked[:len(m.picked)-1]
			}
			m.seatCursor = m.firstAvailableSeat()
			m.state = stateSelectSeats
			return m, nil, true
		}

	case stateSelectSeats:
		layout := buildSeatLayout(m.seats)
		switch msg.String() {
		case "up", "k":
			m.seatCursor = layout.move(m.seatCursor, -1, 0)
			return m, nil, true
		case "down", "j":
			m.seatCursor = layout.move(m.seatCursor, 1, 0)
			return m, nil, true
		case "left", "h":
			m.seatCursor = layout.move(m.seatCursor, 0, -1)
			return m, nil, true
		case "right", "l":
			m.seatCursor = layout.move(m.seatCursor, 0, 1)
			return m, nil, true
		case " ", "x":
			return m.toggleSeat()
		case "n":
			m.showSeatNumbers = !m.showSeatNumbers
			return m, nil, true
		case "enter":
			return m.confirmSeats()
		}

	case stateConfirm:
		if msg.Type != tea.KeyEnter {
			return m, nil, false
		}
		if m.draft == nil {
			next, cmd := m.navigate(guard.Redirect{Path: guard.PathHome}, false)
			return next, cmd, true
		}
		if m.submitting {
			return m, nil, true
		}
		m.submitting = true
		return m, m.submitCmd(), true
	}
	return m, nil, false
}

func (m appModel) submitCmd() tea.Cmd {
	ctx := m.requestCtx()
	draft := *m.draft
	user := m.currentUser()
	return func() tea.Msg {
		result, err := m.flow.Submit(ctx, &draft, user)
		return submitMsg{result: result, err: err}
	}
}

func (m appModel) changeCount(delta int) (appModel, tea.Cmd, bool) {
	item, ok := m.productList.SelectedItem().(productItem)
	if !ok {
		return m, nil, true
	}
	counts := m.ticketCounts
	if item.kind == productFood {
		counts = m.foodCounts
	}
	next := counts[item.id] + delta
	if next < 0 {
		return m, nil, true
	}
	if item.kind == productTicket && delta > 0 && m.ticketTotal() >= m.availableSeats() {
		return m, m.showNotice(notify.Warning("No more seats available for this showtime.")), true
	}
	if next == 0 {
		delete(counts, item.id)
	} else {
		counts[item.id] = next
	}
	item.count = next
	cmd := m.productList.SetItem(m.productList.Index(), item)
	return m, cmd, true
}

func (m *appModel) refreshProducts() {
	items := make([]list.Item, 0, len(m.ticketTypes)+len(m.foodItems))
	for _, t := range m.ticketTypes {
		items = append(items, productItem{kind: productTicket, id: t.Id, name: t.Name, price: t.Price, count: m.ticketCounts[t.Id]})
	}
	for _, f := range m.foodItems {
		items = append(items, productItem{kind: productFood, id: f.Id, name: f.Name, price: f.Price, count: m.foodCounts[f.Id]})
	}
	m.productList.SetItems(items)
	m.productList.Select(0)
}

func (m appModel) quoteLine() string {
	total, err := booking.Quote(m.ticketTypes, m.foodItems, m.ticketCounts, m.foodCounts)
	if err != nil {
		return hint(err.Error())
	}
	return lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Tickets: %d • Total: %s", m.ticketTotal(), format.Currency(total)))
}

func (m appModel) ticketTotal() int {
	total := 0
	for _, n := range m.ticketCounts {
		total += n
	}
	return total
}

func (m appModel) availableSeats() int {
	n := 0
	for _, seat := range m.seats {
		if seat.Available() {
			n++
		}
	}
	return n
}

func (m appModel) firstAvailableSeat() int {
	layout := buildSeatLayout(m.seats)
	for _, row := range layout.cells {
		for _, idx := range row {
			if m.seats[idx].Available() {
				return idx
			}
		}
	}
	return 0
}

func (m *appModel) dropUnavailablePicks() {
	available := make(map[model.ID]bool, len(m.seats))
	for _, seat := range m.seats {
		if seat.Available() {
			available[seat.Id] = true
		}
	}
	kept := m.picked[:0]
	for _, seat := range m.picked {
		if available[seat.Id] {
			kept = append(kept, seat)
		}
	}
	m.picked = kept
}

func (m appModel) toggleSeat() (appModel, tea.Cmd, bool) {
	if m.seatCursor < 0 || m.seatCursor >= len(m.seats) {
		return m, nil, true
	}
	seat := m.seats[m.seatCursor]
	for i, p := range m.picked {
		if p.Id == seat.Id {
			m.picked = append(m.picked[:i:i], m.picked[i+1:]...)
			return m, nil, true
		}
	}
	if !seat.Available() {
		return m, m.showNotice(notify.Warning(fmt.Sprintf("Seat %s is already taken.", seat.Label))), true
	}
	if len(m.picked) >= m.ticketTotal() {
		return m, m.showNotice(notify.Warning(fmt.Sprintf("You already picked %d seats.", m.ticketTotal()))), true
	}
	m.picked = append(m.picked, seat)
	return m, nil, true
}

func (m appModel) confirmSeats() (appModel, tea.Cmd, bool) {
	want := m.ticketTotal()
	if len(m.picked) != want {
		return m, m.showNotice(notify.Warning(fmt.Sprintf("Pick %d seats, one per ticket.", want))), true
	}
	total, err := booking.Quote(m.ticketTypes, m.foodItems, m.ticketCounts, m.foodCounts)
	if err != nil {
		return m, m.showNotice(notify.Error(err.Error())), true
	}
	theaterId := m.showtime.TheaterId
	if theaterId.IsZero() && m.showtime.Theater != nil {
		theaterId = m.showtime.Theater.Id
	}
	m.draft = &booking.Draft{
		MovieId:       m.movie.Id,
		TheaterId:     theaterId,
		RoomId:        m.showtime.RoomId,
		ShowtimeId:    m.showtime.Id,
		ShowtimeLabel: m.showtime.TimeLabel(),
		Date:          time.Now(),
		TicketCounts:  maps.Clone(m.ticketCounts),
		Seats:         append([]model.Seat(nil), m.picked...),
		FoodCounts:    maps.Clone(m.foodCounts),
		Total:         total,
	}
	next, cmd := m.navigate(guard.Redirect{Path: guard.PathConfirmation}, true)
	return next, cmd, true
}

func (m appModel) confirmView() string {
	if m.draft == nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Render("No booking information.") +
			"\n\n" + hint("Press enter to go back to the home screen.")
	}
	d := m.draft

	label := lipgloss.NewStyle().Faint(true).Width(10)
	row := func(name, value string) string {
		return label.Render(name) + value
	}

	timer := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	if m.remaining <= 30 {
		timer = timer.Foreground(lipgloss.Color("1"))
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Confirm booking") + "   " + timer.Render("Seats held for "+booking.FormatRemaining(m.remaining)),
		"",
		row("Movie", partText(m.details.movie, "Movie not found", func(v model.Movie) string { return v.Title })),
		row("Theater", partText(m.details.theater, "Theater not found", func(v model.Theater) string {
			if v.Address == "" {
				return v.Name
			}
			return v.Name + " • " + v.Address
		})),
		row("Room", partText(m.details.room, "Room not found", func(v model.Room) string { return v.Name })),
		row("Showtime", strings.TrimSpace(d.ShowtimeLabel+" "+format.DateTime(m.showtime.Date))),
		row("Seats", seatList(d.Seats)),
		"",
	}
	lines = append(lines, m.lineItems()...)
	lines = append(lines, "", row("Total", lipgloss.NewStyle().Bold(true).Render(format.Currency(d.Total))))
	if m.submitting {
		lines = append(lines, "", m.spinner.View()+" Booking...")
	}

	return lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(strings.Join(lines, "\n"))
}

func (m appModel) lineItems() []string {
	d := m.draft
	var lines []string
	names := map[model.ID]string{}
	prices := map[model.ID]decimal.Decimal{}
	if m.details.types.err == nil {
		for _, t := range m.details.types.value {
			names["t"+t.Id], prices["t"+t.Id] = t.Name, t.Price
		}
	}
	if m.details.food.err == nil {
		for _, f := range m.details.food.value {
			names["f"+f.Id], prices["f"+f.Id] = f.Name, f.Price
		}
	}
	add := func(prefix model.ID, counts map[model.ID]int, fallback string) {
		for _, id := range sortedIDs(counts) {
			n := counts[id]
			if n <= 0 {
				continue
			}
			name, ok := names[prefix+id]
			if !ok {
				name = fallback + " " + id.String()
			}
			line := fmt.Sprintf("  %s × %d", name, n)
			if price, ok := prices[prefix+id]; ok {
				line += "  " + format.Currency(price.Mul(decimal.NewFromInt(int64(n))))
			}
			lines = append(lines, line)
		}
	}
	lines = append(lines, "Tickets")
	add("t", d.TicketCounts, "Ticket type")
	if len(d.FoodCounts) > 0 {
		lines = append(lines, "Snacks")
		add("f", d.FoodCounts, "Item")
	}
	return lines
}

func partText[T any](p part[T], missing string, render func(T) string) string {
	switch {
	case !p.loaded:
		return hint("loading...")
	case p.err != nil:
		return hint(missing)
	default:
		return render(p.value)
	}
}

func seatList(seats []model.Seat) string {
	labels := make([]string, 0, len(seats))
	for _, seat := range seats {
		labels = append(labels, seat.Label)
	}
	return strings.Join(labels, ", ")
}

func sortedIDs(counts map[model.ID]int) []model.ID {
	ids := xmaps.Keys(counts)
	slices.SortFunc(ids, model.CompareIDs)
	return ids
}
