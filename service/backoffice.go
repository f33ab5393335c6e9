package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"datve-cli/model"
)

// Column is one displayed field of a back-office table.
type Column struct {
	Title string
	Key   string
}

// Resource describes a back-office collection on the API.
type Resource struct {
	Name    string
	Title   string
	Path    string
	IDKey   string
	Columns []Column
}

var resources = map[string]Resource{
	"users": {
		Name: "users", Title: "Accounts", Path: "/users", IDKey: "ma_nguoi_dung",
		Columns: []Column{{"ID", "ma_nguoi_dung"}, {"Name", "ho_ten"}, {"Email", "email"}, {"Phone", "sdt"}, {"Role", "ma_vai_tro"}},
	},
	"staff": {
		Name: "staff", Title: "Staff", Path: "/nhan-vien", IDKey: "ma_nguoi_dung",
		Columns: []Column{{"ID", "ma_nguoi_dung"}, {"Name", "ho_ten"}, {"Email", "email"}, {"Theater", "ma_rap"}},
	},
	"movies": {
		Name: "movies", Title: "Movies", Path: "/phim", IDKey: "ma_phim",
		Columns: []Column{{"ID", "ma_phim"}, {"Title", "ten_phim"}, {"Minutes", "thoi_luong"}, {"Release", "ngay_khoi_chieu"}, {"Rating", "do_tuoi"}},
	},
	"theaters": {
		Name: "theaters", Title: "Theaters", Path: "/rap", IDKey: "ma_rap",
		Columns: []Column{{"ID", "ma_rap"}, {"Name", "ten_rap"}, {"Address", "dia_chi"}},
	},
	"rooms": {
		Name: "rooms", Title: "Rooms", Path: "/phong", IDKey: "ma_phong",
		Columns: []Column{{"ID", "ma_phong"}, {"Name", "ten_phong"}, {"Theater", "ma_rap"}},
	},
	"seats": {
		Name: "seats", Title: "Seats", Path: "/ghe", IDKey: "ma_ghe",
		Columns: []Column{{"ID", "ma_ghe"}, {"Seat", "so_ghe"}, {"Room", "ma_phong"}, {"Type", "loai_ghe"}},
	},
	"showtimes": {
		Name: "showtimes", Title: "Showtimes", Path: "/suatchieu", IDKey: "ma_sc",
		Columns: []Column{{"ID", "ma_sc"}, {"Movie", "ma_phim"}, {"Room", "ma_phong"}, {"Date", "ngay_chieu"}, {"Start", "thoi_gian_bat_dau"}},
	},
	"promotions": {
		Name: "promotions", Title: "Promotions", Path: "/khuyen-mai", IDKey: "ma_km",
		Columns: []Column{{"ID", "ma_km"}, {"Name", "ten_km"}, {"Discount", "gia_tri"}, {"From", "ngay_bat_dau"}, {"To", "ngay_ket_thuc"}},
	},
	"ticket-types": {
		Name: "ticket-types", Title: "Ticket types", Path: "/loaive", IDKey: "ma_loai_ve",
		Columns: []Column{{"ID", "ma_loai_ve"}, {"Name", "ten_loai_ve"}, {"Price", "gia_ve"}},
	},
	"food": {
		Name: "food", Title: "Food & drinks", Path: "/dichvuanuong", IDKey: "ma_dv_an_uong",
		Columns: []Column{{"ID", "ma_dv_an_uong"}, {"Name", "ten_dv_an_uong"}, {"Price", "gia"}},
	},
	"tickets": {
		Name: "tickets", Title: "Tickets", Path: "/ve", IDKey: "ma_ve",
		Columns: []Column{{"ID", "ma_ve"}, {"User", "ma_nguoi_dung"}, {"Showtime", "ma_sc"}, {"Total", "tong_gia_tien"}, {"Status", "trang_thai"}},
	},
}

func LookupResource(name string) (Resource, error) {
	res, ok := resources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Resource{}, fmt.Errorf("unknown resource %q", name)
	}
	return res, nil
}

func ResourceNames() []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Client) ListResource(ctx context.Context, name string) ([]model.Record, error) {
	res, err := LookupResource(name)
	if err != nil {
		return nil, err
	}
	var records []model.Record
	if err := c.getJSON(ctx, res.Path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) CreateResource(ctx context.Context, name string, record model.Record) (model.Record, error) {
	res, err := LookupResource(name)
	if err != nil {
		return nil, err
	}
	var created model.Record
	if err := c.do(ctx, http.MethodPost, res.Path, record, &created, requestOptions{}); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdateResource(ctx context.Context, name string, id model.ID, record model.Record) (model.Record, error) {
	res, err := LookupResource(name)
	if err != nil {
		return nil, err
	}
	if id.IsZero() {
		return nil, errors.New("id is required")
	}
	var updated model.Record
	if err := c.do(ctx, http.MethodPut, res.Path+"/"+url.PathEscape(id.String()), record, &updated, requestOptions{}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Client) DeleteResource(ctx context.Context, name string, id model.ID) error {
	res, err := LookupResource(name)
	if err != nil {
		return err
	}
	if id.IsZero() {
		return errors.New("id is required")
	}
	return c.do(ctx, http.MethodDelete, res.Path+"/"+url.PathEscape(id.String()), nil, nil, requestOptions{})
}

// ticketPath picks the role-scoped ticket collection.
func ticketPath(role model.Role) string {
	switch role {
	case model.RoleManager:
		return "/manager/ve"
	case model.RoleStaff:
		return "/staff/ve"
	default:
		return "/ve"
	}
}

// RoleTickets lists tickets visible to role.
func (c *Client) RoleTickets(ctx context.Context, role model.Role) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := c.getJSON(ctx, ticketPath(role), &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) UpdateTicketStatus(ctx context.Context, role model.Role, ticketID model.ID, status model.TicketStatus) error {
	if ticketID.IsZero() {
		return errors.New("ticket id is required")
	}
	if status == "" {
		return errors.New("status is required")
	}
	body := map[string]model.TicketStatus{"trang_thai": status}
	return c.do(ctx, http.MethodPut, ticketPath(role)+"/"+url.PathEscape(ticketID.String()), body, nil, requestOptions{})
}

// Statistics returns the dashboard summary for role. Admins read the global
// dashboard, managers their theater overview.
func (c *Client) Statistics(ctx context.Context, role model.Role) (model.Statistics, error) {
	path := "/dashboard/statistics"
	if role == model.RoleManager {
		path = "/thong-ke/tong-quan"
	}
	var stats model.Statistics
	if err := c.getJSON(ctx, path, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
