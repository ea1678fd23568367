package portalapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
)

// Login redeems ticket credentials for the given device fingerprint.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/captive-portal/login/",
		in:     req,
		out:    &resp,
	}); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.SessionID == "" {
		return nil, portalerr.New(portalerr.Server, "login response is missing tokens").WithStatus(http.StatusOK)
	}
	return &resp, nil
}

// CheckStatus reports whether the session is still active on the server.
// A 404 means the server no longer knows the session and maps to Auth.
func (c *Client) CheckStatus(ctx context.Context, sessionID, token string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/captive-portal/check-status/?session_id=" + url.QueryEscape(sessionID),
		token:    token,
		out:      &resp,
		notFound: portalerr.Auth,
	}); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context, sessionID, token string) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/captive-portal/logout/",
		token:    token,
		in:       logoutRequest{SessionID: sessionID},
		notFound: portalerr.Auth,
	})
}

// RefreshToken exchanges a refresh token for a new access token. The second
// return value is a rotated refresh token, or empty when not rotated.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	var resp refreshResponse
	if err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/token/refresh/",
		in:     refreshRequest{Refresh: refreshToken},
		out:    &resp,
	}); err != nil {
		return "", "", err
	}
	if resp.Access == "" {
		return "", "", portalerr.New(portalerr.Server, "refresh response is missing access token").WithStatus(http.StatusOK)
	}
	return resp.Access, resp.Refresh, nil
}
