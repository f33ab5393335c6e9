package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TicketStatus is owned by the backend; the client may only request the
// pending-payment -> cancelled transition.
type TicketStatus string

const (
	TicketPendingPayment TicketStatus = "Đang chờ thanh toán"
	TicketPaid           TicketStatus = "Đã thanh toán"
	TicketCancelled      TicketStatus = "Đã hủy"
)

func (s TicketStatus) Label() string {
	switch s {
	case TicketPendingPayment:
		return "pending payment"
	case TicketPaid:
		return "paid"
	case TicketCancelled:
		return "cancelled"
	default:
		return string(s)
	}
}

type Ticket struct {
	Id        ID              `json:"ma_ve"`
	UserId    ID              `json:"ma_nguoi_dung,omitempty"`
	Total     decimal.Decimal `json:"tong_gia_tien"`
	Status    TicketStatus    `json:"trang_thai"`
	BookedAt  string          `json:"ngay_dat_ve,omitempty"`
	Showtime  *Showtime       `json:"suat_chieu,omitempty"`
	Customer  *User           `json:"nguoi_dung,omitempty"`
	Seats     []BookedSeat    `json:"ve_dats,omitempty"`
	FoodItems string          `json:"bap_nuoc,omitempty"`
}

type BookedSeat struct {
	SeatId ID    `json:"ma_ghe"`
	Seat   *Seat `json:"ghe_ngoi,omitempty"`
}

// Cancellable reports whether the client may request cancellation.
func (t Ticket) Cancellable() bool {
	return t.Status == TicketPendingPayment
}

func (t Ticket) MovieTitle() string {
	if t.Showtime != nil && t.Showtime.Movie != nil {
		return t.Showtime.Movie.Title
	}
	return ""
}

// SeatLabels prefers the seat label and falls back to the seat id.
func (t Ticket) SeatLabels() []string {
	labels := make([]string, 0, len(t.Seats))
	for _, booked := range t.Seats {
		if booked.Seat != nil && booked.Seat.Label != "" {
			labels = append(labels, booked.Seat.Label)
			continue
		}
		labels = append(labels, booked.SeatId.String())
	}
	return labels
}

// BookingRequest is the POST /ve payload.
type BookingRequest struct {
	UserId     ID     `json:"ma_nguoi_dung"`
	ShowtimeId ID     `json:"ma_sc"`
	Total      string `json:"tong_tien"`
	BookedAt   string `json:"ngay_dat_ve"`
	TicketList string `json:"loai_ve"`
	SeatList   string `json:"ghe"`
	FoodList   string `json:"bap_nuoc,omitempty"`
}

// BookingResponse carries a success flag even on HTTP 200.
type BookingResponse struct {
	Success bool   `json:"success"`
	OrderId ID     `json:"ma_ve"`
	Message string `json:"message,omitempty"`
}

// PaymentRequest sends the amount as a bare JSON number.
type PaymentRequest struct {
	Amount  json.Number `json:"amount"`
	OrderId ID          `json:"orderId"`
}

type PaymentResponse struct {
	PayURL string `json:"payUrl"`
	Error  string `json:"error,omitempty"`
}
