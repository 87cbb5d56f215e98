package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ldi/taskake/pkg/models"
)

// GetCurrentUser fetches the user the token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "fetch current user", http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers fetches the members of the client's organization.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var list models.UserList
	path := "/organizations/" + url.PathEscape(c.orgID) + "/users"
	if err := c.do(ctx, "fetch users", http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	if list.Users == nil {
		return []models.User{}, nil
	}
	return list.Users, nil
}
