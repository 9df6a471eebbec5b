package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const defaultAvatar = "https://picsum.photos/800"

// ListUsers fetches all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, "list_users", http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a single user by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	path := fmt.Sprintf("/users/%d", id)
	if err := c.do(ctx, "get_user", http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser registers a new user with the remote service.
func (c *Client) CreateUser(ctx context.Context, input NewUser) (*User, error) {
	if strings.TrimSpace(input.Avatar) == "" {
		input.Avatar = defaultAvatar
	}
	var user User
	if err := c.do(ctx, "create_user", http.MethodPost, "/users", nil, input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether any remote user already holds the given email.
func (c *Client) EmailExists(ctx context.Context, email string) (bool, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, user := range users {
		if strings.ToLower(user.Email) == needle {
			return true, nil
		}
	}
	return false, nil
}
