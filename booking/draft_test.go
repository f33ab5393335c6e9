package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datve-cli/model"
)

func sampleDraft() *Draft {
	return &Draft{
		MovieId:      "1",
		TheaterId:    "2",
		RoomId:       "3",
		ShowtimeId:   "44",
		Date:         time.Date(2024, 5, 10, 19, 30, 0, 0, time.UTC),
		TicketCounts: map[model.ID]int{"adult": 2, "child": 1},
		Seats:        []model.Seat{{Id: "101", Label: "A1"}, {Id: "102", Label: "A2"}, {Id: "103", Label: "A3"}},
		FoodCounts:   map[model.ID]int{"9": 0, "5": 2},
		Total:        decimal.RequireFromString("245000.456"),
	}
}

func TestValidate(t *testing.T) {
	var missing *Draft
	assert.ErrorIs(t, missing.Validate(), ErrNoDraft)

	d := sampleDraft()
	require.NoError(t, d.Validate())

	d.Seats = d.Seats[:2]
	assert.ErrorIs(t, d.Validate(), ErrSeatMismatch)

	d = sampleDraft()
	d.Seats[2].Id = "101"
	assert.ErrorIs(t, d.Validate(), ErrDuplicateSeat)

	d = sampleDraft()
	d.ShowtimeId = ""
	assert.ErrorIs(t, d.Validate(), ErrNoShowtime)

	d = sampleDraft()
	d.TicketCounts = map[model.ID]int{}
	d.Seats = nil
	assert.ErrorIs(t, d.Validate(), ErrNoTickets)
}

func TestBuildRequest_SeatCountMatchesTickets(t *testing.T) {
	req, err := BuildRequest(sampleDraft(), &model.User{Id: "7"})
	require.NoError(t, err)

	total := 0
	for _, part := range strings.Split(req.TicketList, ",") {
		_, count, ok := strings.Cut(part, ":")
		require.True(t, ok)
		total += int(decimal.RequireFromString(count).IntPart())
	}
	assert.Equal(t, 3, total)
	assert.Len(t, strings.Split(req.SeatList, ","), total)

	assert.Equal(t, model.ID("7"), req.UserId)
	assert.Equal(t, model.ID("44"), req.ShowtimeId)
	assert.Equal(t, "245000.46", req.Total)
	assert.Equal(t, "2024-05-10 19:30:00", req.BookedAt)
	assert.Equal(t, "adult:2,child:1", req.TicketList)
	assert.Equal(t, "101,102,103", req.SeatList)
	assert.Equal(t, "5:2", req.FoodList)
}

func TestBuildRequest_OmitsFoodWithoutPositiveCounts(t *testing.T) {
	d := sampleDraft()
	d.FoodCounts = map[model.ID]int{"5": 0}
	req, err := BuildRequest(d, &model.User{Id: "7"})
	require.NoError(t, err)
	assert.Empty(t, req.FoodList)
}

func TestBuildRequest_RequiresUser(t *testing.T) {
	_, err := BuildRequest(sampleDraft(), nil)
	assert.Error(t, err)
}

func TestCountList_NumericOrder(t *testing.T) {
	assert.Equal(t, "2:1,10:3", countList(map[model.ID]int{"10": 3, "2": 1}))
}

func TestQuote(t *testing.T) {
	types := []model.TicketType{
		{Id: "1", Price: decimal.NewFromInt(90000)},
		{Id: "2", Price: decimal.NewFromInt(65000)},
	}
	food := []model.FoodItem{{Id: "5", Price: decimal.RequireFromString("45000.50")}}

	total, err := Quote(types, food, map[model.ID]int{"1": 2, "2": 1}, map[model.ID]int{"5": 2})
	require.NoError(t, err)
	assert.Equal(t, "335001", total.String())

	_, err = Quote(types, food, map[model.ID]int{"3": 1}, nil)
	assert.ErrorIs(t, err, ErrUnknownProduct)

	total, err = Quote(types, food, map[model.ID]int{"3": 0}, nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
