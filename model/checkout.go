package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Seat struct {
	Id     ID     `json:"ma_ghe"`
	Label  string `json:"so_ghe"`
	RoomId ID     `json:"ma_phong"`
	Type   string `json:"loai_ghe,omitempty"`
	Status string `json:"trang_thai,omitempty"`
}

// Row is the leading letter group of the label ("A" for "A12").
func (s Seat) Row() string {
	label := strings.TrimSpace(s.Label)
	end := 0
	for end < len(label) && (label[end] < '0' || label[end] > '9') {
		end++
	}
	if end == 0 {
		return "?"
	}
	return strings.ToUpper(label[:end])
}

// Available reports whether the seat can be picked. The backend marks sold
// seats with a non-empty status other than the "available" variants.
func (s Seat) Available() bool {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "", "0", "available", "trong", "trống", "con trong", "còn trống":
		return true
	default:
		return false
	}
}

type TicketType struct {
	Id    ID              `json:"ma_loai_ve"`
	Name  string          `json:"ten_loai_ve"`
	Price decimal.Decimal `json:"gia_ve"`
}

type FoodItem struct {
	Id    ID              `json:"ma_dv_an_uong"`
	Name  string          `json:"ten_dv_an_uong"`
	Price decimal.Decimal `json:"gia"`
	Image string          `json:"anh_dv,omitempty"`
}
