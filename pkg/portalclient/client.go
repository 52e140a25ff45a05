// Package portalclient is a Go client for the portal API. It keeps the
// session cookies in a jar and owns an authstate.Store that is refetched
// whenever a call changes who the caller is.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/baechuer/eprocure-portal/internal/authstate"
	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/transport/http/dto"
)

const apiPrefix = "/api/v1"

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("portal api: status %d", e.Status)
	}
	return fmt.Sprintf("portal api: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *authstate.Store
	events     chan authstate.Event
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is replaced when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, defaultRole domain.Role, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// One pending event is enough: the store refetches after taking it.
		events: make(chan authstate.Event, 1),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	c.store = authstate.New(c, defaultRole)
	return c, nil
}

func (c *Client) Store() *authstate.Store { return c.store }

// Run drives the auth state store until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	return c.store.Run(ctx, c.events)
}

// Guard applies the route decision to the latest known auth state.
func (c *Client) Guard(p, rawQuery string) authz.Decision {
	return c.store.Guard(c.store.Snapshot(), p, rawQuery)
}

func (c *Client) emit(t authstate.EventType) {
	ev := authstate.Event{Type: t, At: c.now()}
	select {
	case c.events <- ev:
	default:
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (dto.SessionView, error) {
	var out dto.SessionView
	err := c.do(ctx, http.MethodPost, "/auth/signup", dto.SignUpRequest{Email: email, Password: password}, &out)
	if err != nil {
		return dto.SessionView{}, err
	}
	c.emit(authstate.EventSignedIn)
	return out, nil
}

// SignIn returns the session view; Redirect is where the caller should go next.
func (c *Client) SignIn(ctx context.Context, email, password, redirect string) (dto.SessionView, error) {
	var out dto.SessionView
	req := dto.LoginRequest{Email: email, Password: password, Redirect: redirect}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return dto.SessionView{}, err
	}
	c.emit(authstate.EventSignedIn)
	return out, nil
}

// SignOut always emits signed_out: the server clears cookies even on error.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.emit(authstate.EventSignedOut)
	return err
}

func (c *Client) RefreshSession(ctx context.Context) (dto.SessionView, error) {
	var out dto.SessionView
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, &out); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			c.emit(authstate.EventSignedOut)
		}
		return dto.SessionView{}, err
	}
	c.emit(authstate.EventTokenRefreshed)
	return out, nil
}

func (c *Client) CompleteSignup(ctx context.Context, req dto.CompleteSignupRequest) (dto.ProfileView, error) {
	var out dto.ProfileView
	if err := c.do(ctx, http.MethodPost, "/profile", req, &out); err != nil {
		return dto.ProfileView{}, err
	}
	c.emit(authstate.EventUserUpdated)
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (dto.ProfileView, error) {
	var out dto.ProfileView
	if err := c.do(ctx, http.MethodPatch, "/profile/me", req, &out); err != nil {
		return dto.ProfileView{}, err
	}
	c.emit(authstate.EventUserUpdated)
	return out, nil
}

// FetchIdentity implements authstate.Fetcher. A 401 means signed out.
func (c *Client) FetchIdentity(ctx context.Context) (*domain.Identity, error) {
	var out dto.SessionView
	err := c.do(ctx, http.MethodGet, "/auth/session", nil, &out)
	if IsStatus(err, http.StatusUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Identity{
		ID:        out.User.ID,
		Email:     out.User.Email,
		RoleClaim: domain.Role(out.User.RoleClaim),
	}, nil
}

// FetchProfile implements authstate.Fetcher. A 404 means no profile yet.
func (c *Client) FetchProfile(ctx context.Context, _ string) (*domain.Profile, error) {
	var out dto.ProfileView
	err := c.do(ctx, http.MethodGet, "/profile/me", nil, &out)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		ID:         out.ID,
		FullName:   out.FullName,
		Phone:      out.Phone,
		Country:    out.Country,
		Role:       out.Role,
		SupplierID: out.SupplierID,
		CreatedAt:  out.CreatedAt,
		UpdatedAt:  out.UpdatedAt,
	}, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, p string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+p, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.RequestID = env.Error.RequestID
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
