// Package feed pulls competitor accounts and posts from an HTTP JSON feed.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client implements content.Source.
type Client struct {
	base  string
	token string
	http  *http.Client
	exec  failsafe.Executor[[]byte]
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("feed returned %d: %s", e.Code, e.Body)
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay * 20
	}

	retry := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return retryable(err) }).
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithJitterFactor(0.1).
		WithMaxRetries(cfg.MaxRetries).
		ReturnLastFailure().
		Build()

	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http:  &http.Client{Timeout: cfg.Timeout},
		exec:  failsafe.With[[]byte](retry),
	}
}

// retryable: network errors, 5xx and 429.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) FetchAccount(ctx context.Context, username string) (*content.Account, error) {
	body, err := c.get(ctx, "/accounts/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}
	var a content.Account
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", username, err)
	}
	if a.Username == "" {
		a.Username = username
	}
	return &a, nil
}

func (c *Client) FetchPosts(ctx context.Context, username string, since time.Time) ([]*content.Post, error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	body, err := c.get(ctx, "/accounts/"+url.PathEscape(username)+"/posts", q)
	if err != nil {
		return nil, err
	}
	var out struct {
		Posts []*content.Post `json:"posts"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode posts of %s: %w", username, err)
	}
	for _, p := range out.Posts {
		if p.AccountUsername == "" {
			p.AccountUsername = username
		}
	}
	return out.Posts, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	body, err := c.exec.WithContext(ctx).Get(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		return b, nil
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", path, content.ErrNotFound)
		}
		return nil, err
	}
	return body, nil
}
