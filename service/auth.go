package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"datve-cli/model"
)

// Login exchanges credentials for a token and the signed-in user. A 401 here
// means bad credentials, so central recovery is skipped.
func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.AuthResponse{}, errors.New("email and password are required")
	}
	var resp model.AuthResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp, requestOptions{skipRecovery: true}); err != nil {
		return model.AuthResponse{}, err
	}
	if resp.Token == "" || resp.User == nil {
		return model.AuthResponse{}, errors.New("login response missing token or user")
	}
	return resp, nil
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return model.AuthResponse{}, errors.New("email and password are required")
	}
	if req.Password != req.PasswordConfirmation {
		return model.AuthResponse{}, errors.New("password confirmation does not match")
	}
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &resp, requestOptions{skipRecovery: true}); err != nil {
		return model.AuthResponse{}, err
	}
	if resp.Token == "" {
		return model.AuthResponse{}, errors.New("register response missing token")
	}
	return resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, requestOptions{skipRecovery: true})
}

// CurrentUser fetches the user that owns the attached token.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user, requestOptions{skipRecovery: true}); err != nil {
		return nil, err
	}
	if user.Id.IsZero() {
		return nil, errors.New("user response missing id")
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID model.ID, update model.ProfileUpdate) (*model.User, error) {
	if userID.IsZero() {
		return nil, errors.New("user id is required")
	}
	var user model.User
	path := fmt.Sprintf("/user/%s", userID)
	if err := c.do(ctx, http.MethodPut, path, update, &user, requestOptions{}); err != nil {
		return nil, err
	}
	if user.Id.IsZero() {
		user.Id = userID
	}
	return &user, nil
}
