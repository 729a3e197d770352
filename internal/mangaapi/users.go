package mangaapi

import (
	"context"
	"net/http"
)

// CreateAccount registers a new user.
func (c *Client) CreateAccount(ctx context.Context, email, password string) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users",
		body:     createUserRequest{Email: email, Password: password},
		appToken: true,
		expect:   http.StatusCreated,
	}, nil)
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/jwt/login",
		basic:    &basicAuth{user: email, password: password},
		appToken: true,
	}, &creds)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

// FetchProfile returns the user the token belongs to.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/jwt/me", bearer: token}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RefreshToken trades a still-valid token for a new one.
func (c *Client) RefreshToken(ctx context.Context, token string) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/jwt/refresh",
		bearer:   token,
		appToken: true,
	}, &creds)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}
