// Package httpapi implements the backend port against the remote dashboard
// REST API through the authenticated request wrapper.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/itchub/edu-dashboard/authfetch"
	"github.com/itchub/edu-dashboard/backend"
	"github.com/itchub/edu-dashboard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API endpoint paths, relative to the configured base URL
const (
	RouteLogin      = "/users/login/"
	RouteLogout     = "/users/logout/"
	RouteMe         = "/users/me/"
	RouteUsers      = "/users/users/"
	RouteStatistics = "/users/statistics/"
)

func routeUser(id string) string {
	return fmt.Sprintf("%s%s/", RouteUsers, url.PathEscape(id))
}

func routeChangePassword(id string) string {
	return routeUser(id) + "change-password/"
}

var _ backend.Backend = (*Client)(nil)

// Client is the HTTP-backed implementation of backend.Backend
type Client struct {
	fetch *authfetch.Client
	log   zerolog.Logger
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

func New(fetch *authfetch.Client, options ...Option) (*Client, error) {
	if fetch == nil {
		return nil, errors.New("[httpapi.New] authfetch client is required")
	}
	client := &Client{fetch: fetch, log: log.Logger}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

type loginRequest struct {
	UsernameOrPhone string `json:"username_or_phone"`
	Password        string `json:"password"`
}

type loginResponse struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    users.Payload `json:"user"`
}

func (c *Client) Login(ctx context.Context, identifier, password string) (*backend.LoginResponse, error) {
	body, err := jsonBody(loginRequest{UsernameOrPhone: identifier, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] encode body")
	}

	resp, err := c.fetch.Do(ctx, RouteLogin, authfetch.Options{Method: http.MethodPost, Body: body})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] request")
	}

	var payload loginResponse
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return &backend.LoginResponse{
		Access:  payload.Access,
		Refresh: payload.Refresh,
		User:    payload.User.Normalize(),
	}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.fetch.Do(ctx, RouteLogout, authfetch.Options{Method: http.MethodPost})
	if err != nil {
		return errors.Wrap(err, "[Client.Logout] request")
	}
	drain(resp)
	return nil
}

func (c *Client) Me(ctx context.Context) (*users.User, error) {
	resp, err := c.fetch.Do(ctx, RouteMe, authfetch.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Me] request")
	}

	var payload users.Payload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

type listResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []users.Payload `json:"results"`
}

func (c *Client) ListUsers(ctx context.Context, limit, offset int) (*backend.UserPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	resp, err := c.fetch.Do(ctx, RouteUsers+"?"+query.Encode(), authfetch.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ListUsers] request")
	}

	var payload listResponse
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	page := &backend.UserPage{
		Count:   payload.Count,
		Results: users.NormalizeAll(payload.Results),
	}
	if payload.Next != nil {
		page.Next = *payload.Next
	}
	if payload.Previous != nil {
		page.Previous = *payload.Previous
	}
	return page, nil
}

func (c *Client) CreateUser(ctx context.Context, newUser backend.NewUser) (*users.User, error) {
	fields := map[string]string{
		"username":     newUser.Username,
		"surname":      newUser.Surname,
		"lastname":     newUser.Lastname,
		"uuid":         newUser.MemberID,
		"phone_number": newUser.PhoneNumber,
		"tg_username":  newUser.TgUsername,
		"level":        string(newUser.Level),
		"course":       newUser.Course,
		"direction":    newUser.Direction,
		"password":     newUser.Password,
	}
	body, contentType, err := multipartBody(fields, newUser.Photo)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CreateUser] build form")
	}

	resp, err := c.fetch.Do(ctx, RouteUsers, authfetch.Options{
		Method:      http.MethodPost,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CreateUser] request")
	}

	var payload users.Payload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch backend.UserPatch) (*users.User, error) {
	opts := authfetch.Options{Method: http.MethodPatch}

	if patch.Photo != nil {
		// A file upload needs the multipart form, plain field edits stay JSON
		body, contentType, err := multipartBody(partialFields(patch.Partial), patch.Photo)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.UpdateUser] build form")
		}
		opts.Body, opts.ContentType = body, contentType
	} else {
		body, err := jsonBody(patch.Partial)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.UpdateUser] encode body")
		}
		opts.Body = body
	}

	resp, err := c.fetch.Do(ctx, routeUser(id), opts)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateUser] request")
	}

	var payload users.Payload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.fetch.Do(ctx, routeUser(id), authfetch.Options{Method: http.MethodDelete})
	if err != nil {
		return errors.Wrap(err, "[Client.DeleteUser] request")
	}
	return checkStatus(resp)
}

type changePasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c *Client) ChangePassword(ctx context.Context, id, newPassword, confirmPassword string) error {
	body, err := jsonBody(changePasswordRequest{NewPassword: newPassword, ConfirmPassword: confirmPassword})
	if err != nil {
		return errors.Wrap(err, "[Client.ChangePassword] encode body")
	}

	resp, err := c.fetch.Do(ctx, routeChangePassword(id), authfetch.Options{Method: http.MethodPost, Body: body})
	if err != nil {
		return errors.Wrap(err, "[Client.ChangePassword] request")
	}
	return checkStatus(resp)
}

func (c *Client) Statistics(ctx context.Context) (*backend.Statistics, error) {
	resp, err := c.fetch.Do(ctx, RouteStatistics, authfetch.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Statistics] request")
	}

	var stats backend.Statistics
	if err := decodeJSON(resp, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// decodeJSON consumes the response: non-2xx bodies become an *APIError with
// the parsed message, 2xx bodies are decoded into v
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return backend.ParseAPIError(resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "[httpapi.decodeJSON] decode response")
	}
	return nil
}

// checkStatus consumes a response where no body is expected on success
func checkStatus(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return backend.ParseAPIError(resp.StatusCode, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
