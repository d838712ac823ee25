// Package auth talks to the external login/registration API and keeps the
// resulting session token on disk.
package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"

	defaultLoginMessage    = "Invalid credentials"
	defaultRegisterMessage = "Registration failed"

	maxResponseBytes = 1 << 20
)

// Error is a failed auth call, attached to the form field it should be shown
// next to.
type Error struct {
	Field   string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Client calls the auth API. Calls fire once; there are no retries. A circuit
// breaker stops hammering a server that keeps failing.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client, e.g. for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithBreakerSettings overrides the circuit breaker configuration.
func WithBreakerSettings(s gobreaker.Settings) ClientOption {
	return func(c *Client) { c.breaker = gobreaker.NewCircuitBreaker(s) }
}

func NewClient(baseURL string, timeout time.Duration, log logrus.FieldLogger, opts ...ClientOption) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "auth",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("auth circuit breaker state changed")
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type response struct {
	status int
	body   []byte
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if err := ValidateLogin(email, password); err != nil {
		return "", err
	}
	res, err := c.post(ctx, loginPath, loginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return "", failure("email", defaultLoginMessage, res, err)
	}
	if res.status < 200 || res.status > 299 {
		return "", failure("email", defaultLoginMessage, res, nil)
	}
	var lr loginResponse
	if err := sonic.Unmarshal(res.body, &lr); err != nil || strings.TrimSpace(lr.Token) == "" {
		return "", &Error{Field: "email", Message: defaultLoginMessage, Status: res.status, Err: err}
	}
	return lr.Token, nil
}

// Register creates an account. Any 2xx status is success.
func (c *Client) Register(ctx context.Context, r Registration) error {
	if err := ValidateRegistration(r); err != nil {
		return err
	}
	r.Username = strings.TrimSpace(r.Username)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	res, err := c.post(ctx, registerPath, r)
	if err != nil {
		return failure("username", defaultRegisterMessage, res, err)
	}
	if res.status < 200 || res.status > 299 {
		return failure("username", defaultRegisterMessage, res, nil)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*response, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	reqID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{"path": path, "request_id": reqID})
	start := time.Now()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", reqID)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		res := &response{status: resp.StatusCode, body: b}
		// Rejected credentials are an answer, not an outage.
		if resp.StatusCode >= 500 {
			return res, fmt.Errorf("auth server: %s", resp.Status)
		}
		return res, nil
	})
	res, _ := out.(*response)
	entry := log.WithField("elapsed", time.Since(start).String())
	if res != nil {
		entry = entry.WithField("status", res.status)
	}
	if err != nil {
		entry.WithError(err).Warn("auth request failed")
		return res, err
	}
	entry.Debug("auth request done")
	return res, nil
}

// failure builds an Error from the {message} body when there is one.
func failure(field, def string, res *response, cause error) *Error {
	e := &Error{Field: field, Message: def, Err: cause}
	if res == nil {
		return e
	}
	e.Status = res.status
	var body errorResponse
	if err := sonic.Unmarshal(res.body, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		e.Message = strings.TrimSpace(body.Message)
	}
	return e
}
