package client

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Client) Register(ctx context.Context, input RegisterInput, rememberMe bool) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: input, anonymous: true}, &pair)
	if err != nil {
		return TokenPair{}, err
	}
	return pair, c.tokens.SetTokens(ctx, pair.Token, pair.RefreshToken, rememberMe)
}

// Login accepts a username or an email address.
func (c *Client) Login(ctx context.Context, username, password string, rememberMe bool) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      map[string]string{"username": username, "password": password},
		anonymous: true,
	}, &pair)
	if err != nil {
		return TokenPair{}, err
	}
	return pair, c.tokens.SetTokens(ctx, pair.Token, pair.RefreshToken, rememberMe)
}

// Logout tells the server and clears local tokens whatever the server says.
// A server failure is returned only alongside a successful local clear.
func (c *Client) Logout(ctx context.Context) error {
	serverErr := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
	if clearErr := c.tokens.Clear(ctx); clearErr != nil {
		return errors.Join(clearErr, serverErr)
	}
	if serverErr != nil {
		c.log.Warnf("logout: server call failed, local session cleared: %v", serverErr)
	}
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &p)
	return p, err
}

func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var resp struct {
		Available bool `json:"available"`
	}
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/check-username",
		body:      map[string]string{"username": username},
		anonymous: true,
	}, &resp)
	return resp.Available, err
}

// FindAccount returns the masked username registered with email.
func (c *Client) FindAccount(ctx context.Context, email string) (string, error) {
	var resp struct {
		Username string `json:"username"`
	}
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/find-account",
		body:      map[string]string{"email": email},
		anonymous: true,
	}, &resp)
	return resp.Username, err
}

// ChangePassword stores the new token pair in the same places the old one
// was kept.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	remembered, err := c.tokens.Remembered(ctx)
	if err != nil {
		return err
	}

	var pair TokenPair
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/password",
		body:   map[string]string{"currentPassword": currentPassword, "newPassword": newPassword},
	}, &pair)
	if err != nil {
		return err
	}
	return c.tokens.SetTokens(ctx, pair.Token, pair.RefreshToken, remembered)
}

func (c *Client) Providers(ctx context.Context) ([]string, error) {
	var resp struct {
		Providers []string `json:"providers"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/providers", anonymous: true}, &resp)
	return resp.Providers, err
}
