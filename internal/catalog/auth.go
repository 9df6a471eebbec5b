package catalog

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for an access/refresh token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	var tokens AuthTokens
	payload := loginRequest{Email: email, Password: password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, payload, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// RefreshToken exchanges a refresh token for a fresh credential pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	var tokens AuthTokens
	payload := refreshRequest{RefreshToken: refreshToken}
	if err := c.do(ctx, "refresh_token", http.MethodPost, "/auth/refresh-token", nil, payload, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Profile fetches the user bound to the current bearer credential.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, "profile", http.MethodGet, "/auth/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
