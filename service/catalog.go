package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"datve-cli/model"
)

func (c *Client) Movies(ctx context.Context) ([]model.Movie, error) {
	var movies []model.Movie
	if err := c.getJSON(ctx, "/phim", &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Client) Movie(ctx context.Context, id model.ID) (model.Movie, error) {
	if id.IsZero() {
		return model.Movie{}, errors.New("movie id is required")
	}
	var movie model.Movie
	if err := c.getJSON(ctx, "/phim/"+url.PathEscape(id.String()), &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

func (c *Client) ShowtimesByMovie(ctx context.Context, movieID model.ID) ([]model.Showtime, error) {
	if movieID.IsZero() {
		return nil, errors.New("movie id is required")
	}
	var showtimes []model.Showtime
	if err := c.getJSON(ctx, "/suatchieu/phim/"+url.PathEscape(movieID.String()), &showtimes); err != nil {
		return nil, err
	}
	return showtimes, nil
}

func (c *Client) Theater(ctx context.Context, id model.ID) (model.Theater, error) {
	if id.IsZero() {
		return model.Theater{}, errors.New("theater id is required")
	}
	var theater model.Theater
	if err := c.getJSON(ctx, "/rap/"+url.PathEscape(id.String()), &theater); err != nil {
		return model.Theater{}, err
	}
	return theater, nil
}

func (c *Client) Room(ctx context.Context, id model.ID) (model.Room, error) {
	if id.IsZero() {
		return model.Room{}, errors.New("room id is required")
	}
	var room model.Room
	if err := c.getJSON(ctx, "/phong/"+url.PathEscape(id.String()), &room); err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (c *Client) SeatsByRoom(ctx context.Context, roomID model.ID) ([]model.Seat, error) {
	if roomID.IsZero() {
		return nil, errors.New("room id is required")
	}
	var seats []model.Seat
	if err := c.getJSON(ctx, fmt.Sprintf("/phong/dsghe/%s", url.PathEscape(roomID.String())), &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (c *Client) TicketTypes(ctx context.Context) ([]model.TicketType, error) {
	var types []model.TicketType
	if err := c.getJSON(ctx, "/loaive", &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (c *Client) FoodItems(ctx context.Context) ([]model.FoodItem, error) {
	var items []model.FoodItem
	if err := c.getJSON(ctx, "/dichvuanuong", &items); err != nil {
		return nil, err
	}
	return items, nil
}
