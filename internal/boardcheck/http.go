package boardcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/bingo/internal/domain/model"
	"github.com/okian/bingo/pkg/logger"
)

// Circuit breaker settings for the check client.
const (
	breakerConsecutiveFailures = 5
	breakerOpenTimeout         = 5 * time.Second
	breakerHalfOpenRequests    = 1
)

// ErrShortPool is returned when the server answers insufficient_pool.
var ErrShortPool = errors.New("insufficient pool")

// HTTPClient wraps http.Client with the service base URL. Requests go
// through a circuit breaker so a failing server is not hammered by every
// worker.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker
}

// apiError mirrors the server's error body.
type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

type sessionInfo struct {
	ID        string   `json:"id"`
	Exhausted []string `json:"exhausted"`
	Boards    []string `json:"boards"`
}

type boardRequest struct {
	Mix model.Mix `json:"mix"`
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "bingo-api",
			MaxRequests: breakerHalfOpenRequests,
			Timeout:     breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Get().Warn(context.Background(), "circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			},
			// A short pool is a valid answer, not a server failure.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrShortPool)
			},
		}),
	}
}

// do sends a request through the breaker.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, ok ...int) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, method, path, body, out, ok...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return err
}

// send performs one request and decodes a JSON response into out when the
// status is one of ok.
func (c *HTTPClient) send(ctx context.Context, method, path string, body, out any, ok ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	for _, code := range ok {
		if resp.StatusCode == code {
			if out == nil || len(data) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			return nil
		}
	}

	var apiErr apiError
	_ = json.Unmarshal(data, &apiErr)
	if resp.StatusCode == http.StatusUnprocessableEntity && apiErr.Code == "insufficient_pool" {
		return fmt.Errorf("%w: %s", ErrShortPool, apiErr.Message)
	}
	return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Message)
}

func (c *HTTPClient) health(ctx context.Context) error {
	var status map[string]string
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &status, http.StatusOK); err != nil {
		return err
	}
	if status["status"] != "ok" {
		return fmt.Errorf("unexpected health status %q", status["status"])
	}
	return nil
}

func (c *HTTPClient) catalog(ctx context.Context) (*model.Catalog, error) {
	var cat model.Catalog
	if err := c.do(ctx, http.MethodGet, "/catalog", nil, &cat, http.StatusOK); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *HTTPClient) createSession(ctx context.Context) (sessionInfo, error) {
	var info sessionInfo
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &info, http.StatusCreated)
	return info, err
}

func (c *HTTPClient) session(ctx context.Context, id string) (sessionInfo, error) {
	var info sessionInfo
	err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, &info, http.StatusOK)
	return info, err
}

func (c *HTTPClient) deleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil, http.StatusNoContent)
}

func (c *HTTPClient) sessionBoard(ctx context.Context, id string, mix model.Mix) (model.Board, error) {
	var b model.Board
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/boards", boardRequest{Mix: mix}, &b, http.StatusCreated)
	return b, err
}

func (c *HTTPClient) board(ctx context.Context, mix model.Mix) (model.Board, error) {
	var b model.Board
	err := c.do(ctx, http.MethodPost, "/boards", boardRequest{Mix: mix}, &b, http.StatusCreated)
	return b, err
}
