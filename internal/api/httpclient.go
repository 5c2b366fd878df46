package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jortega/fuelwatch/internal/logging"
	"github.com/jortega/fuelwatch/internal/models"
)

// HTTPClient implements Client over net/http against a configured base URL.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     logging.Logger
}

// NewHTTPClient builds a client for the API rooted at baseURL
// (e.g. "http://localhost:8000/api/v1"). A zero timeout means no timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// errorBody is the structured error field servers attach to failure statuses.
type errorBody struct {
	Detail string `json:"detail"`
}

// call performs a single HTTP round trip. endpoint is a path relative to the
// base URL. A non-empty token is attached as a bearer header. On 2xx the
// body is decoded into out (skipped for 204/empty bodies, so no-content
// successes never attempt a JSON parse); on other statuses a *Error is
// returned with the body's detail field when parseable.
func (c *HTTPClient) call(ctx context.Context, method, endpoint string, body io.Reader, contentType, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug(ctx, "api call", "method", method, "endpoint", endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, endpoint, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Detail: http.StatusText(resp.StatusCode)}
		var eb errorBody
		if err := json.Unmarshal(respBody, &eb); err == nil && eb.Detail != "" {
			apiErr.Detail = eb.Detail
		}
		c.log.Debug(ctx, "api error", "method", method, "endpoint", endpoint, "status", apiErr.Status, "detail", apiErr.Detail)
		return apiErr
	}

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 || out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, endpoint, err)
	}
	return nil
}

// tokenResponse is the body of POST /token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// userPayload mirrors the profile fields the server may return; the optional
// ones get their defaults applied in models.NewUserProfile.
type userPayload struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	Avatar      string `json:"avatar"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (p userPayload) toProfile() models.UserProfile {
	return models.NewUserProfile(p.ID, p.Username, p.Email, p.FullName, p.Role, p.Avatar, p.IsSuperuser)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tr tokenResponse
	err := c.call(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", "", &tr)
	if err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token in response")
	}
	return tr.AccessToken, nil
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (models.UserProfile, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("marshal register request: %w", err)
	}

	var p userPayload
	err = c.call(ctx, http.MethodPost, "/users", bytes.NewReader(data), "application/json", "", &p)
	if err != nil {
		return models.UserProfile{}, err
	}
	return p.toProfile(), nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (models.UserProfile, error) {
	var p userPayload
	err := c.call(ctx, http.MethodGet, "/users/me", nil, "", token, &p)
	if err != nil {
		return models.UserProfile{}, err
	}
	return p.toProfile(), nil
}

func (c *HTTPClient) Stations(ctx context.Context, token string, filters StationFilters) ([]models.Station, error) {
	endpoint := "/stations"
	if q := filters.Values().Encode(); q != "" {
		endpoint += "?" + q
	}

	var stations []models.Station
	err := c.call(ctx, http.MethodGet, endpoint, nil, "", token, &stations)
	if err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "stations fetched", "count", len(stations))
	return stations, nil
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
