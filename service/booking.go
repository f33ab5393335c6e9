package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"datve-cli/model"
)

// CreateBooking posts the order. The backend may answer 200 with
// success=false; that is returned as a response, not an error.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (model.BookingResponse, error) {
	if req.UserId.IsZero() || req.ShowtimeId.IsZero() {
		return model.BookingResponse{}, errors.New("user id and showtime id are required")
	}
	var resp model.BookingResponse
	if err := c.do(ctx, http.MethodPost, "/ve", req, &resp, requestOptions{}); err != nil {
		return model.BookingResponse{}, err
	}
	return resp, nil
}

// CreatePayment asks the backend for a payment gateway URL for an order.
func (c *Client) CreatePayment(ctx context.Context, req model.PaymentRequest) (model.PaymentResponse, error) {
	if req.OrderId.IsZero() {
		return model.PaymentResponse{}, errors.New("order id is required")
	}
	var resp model.PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/create-payment", req, &resp, requestOptions{}); err != nil {
		return model.PaymentResponse{}, err
	}
	if resp.PayURL == "" {
		if resp.Error != "" {
			return resp, errors.New(resp.Error)
		}
		return resp, errors.New("payment response missing payUrl")
	}
	return resp, nil
}

func (c *Client) UserTickets(ctx context.Context, userID model.ID) ([]model.Ticket, error) {
	if userID.IsZero() {
		return nil, errors.New("user id is required")
	}
	var tickets []model.Ticket
	if err := c.getJSON(ctx, fmt.Sprintf("/user/%s/tickets", url.PathEscape(userID.String())), &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) CancelTicket(ctx context.Context, ticketID model.ID) error {
	if ticketID.IsZero() {
		return errors.New("ticket id is required")
	}
	path := fmt.Sprintf("/tickets/%s/cancel", url.PathEscape(ticketID.String()))
	return c.do(ctx, http.MethodPut, path, nil, nil, requestOptions{})
}
