// Package github provides a resilient GitHub GraphQL v4 client for timeline ingestion
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/logger"
)

const (
	graphqlURLDefault = "https://api.github.com/graphql"
	defaultTimeout    = 30 * time.Second
	defaultUA         = "prtimeline"
	defaultMaxRetry   = 5
	defaultRetryBase  = 500 * time.Millisecond
	maxResponseBytes  = 32 << 20
)

// Options configures the Client
type Options struct {
	URL       string
	UserAgent string
	Timeout   time.Duration

	// Comma separated tokens passed in from CLI or config.
	// GraphQL rejects anonymous calls so at least one is needed against api.github.com
	TokensCSV string

	// Retry config for transient and rate limited responses.
	// Zero MaxRetries means the default, negative disables retries
	MaxRetries int
	RetryBase  time.Duration

	// TimelineItems caps the timeline items fetched per pull request
	TimelineItems int
}

// Client is a minimal GitHub GraphQL client with token rotation and retries
type Client struct {
	http   *http.Client
	opts   Options
	tokens []string
	cur    atomic.Int32
	log    logger.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.URL == "" {
		o.URL = graphqlURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.TimelineItems <= 0 || o.TimelineItems > maxConnectionSize {
		o.TimelineItems = maxConnectionSize
	}
	var toks []string
	for t := range strings.SplitSeq(o.TokensCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			toks = append(toks, t)
		}
	}
	return &Client{
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		tokens: toks,
		log:    *logger.Named("github"),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// getToken returns the next token in a round robin rotation
func (c *Client) getToken() string {
	n := int(c.cur.Add(1))
	if len(c.tokens) == 0 {
		return ""
	}
	return c.tokens[n%len(c.tokens)]
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type gqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    []any  `json:"path"`
}

// Query posts a GraphQL document and decodes the data member into out.
// Transport failures, 5xx and rate limits are retried with backoff; GraphQL errors are not
func (c *Client) Query(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "github encode %s", op)
	}

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if tok := c.getToken(); tok != "" {
			req.Header.Set("Authorization", "bearer "+tok)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil || !c.shouldRetry(attempts) {
				return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s failed", op)
			}
			back := c.backoff(attempts)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Msg("github transport error retrying")
			if err := c.wait(ctx, op, back); err != nil {
				return err
			}
			attempts++
			continue
		}

		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.log.Debug().
			Str("op", op).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Time("rate_reset", reset).
			Int("retry_after_s", retryAfter).
			Msg("github http response")

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusForbidden, http.StatusTooManyRequests:
			// a 403 is only a rate limit when GitHub says so; otherwise it is a scope or token problem
			if resp.StatusCode == http.StatusForbidden && rem != 0 && retryAfter <= 0 {
				return statusError(op, resp)
			}
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return perr.Newf(perr.ErrorCodeTooManyRequests, "github %s rate limited", op)
			}
			wait := computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			c.log.Warn().Dur("sleep", wait).Msg("github rate limited backing off")
			if err := c.wait(ctx, op, wait); err != nil {
				return err
			}
			attempts++
			continue
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return perr.Newf(perr.ErrorCodeUnavailable, "github %s transient server error %d", op, resp.StatusCode)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transient error retrying")
			if err := c.wait(ctx, op, back); err != nil {
				return err
			}
			attempts++
			continue
		default:
			return statusError(op, resp)
		}

		var env gqlResponse
		err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("op", op).Msg("github close body failed")
		}
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeFetchFailed, "github %s: decode response", op)
		}

		if len(env.Errors) > 0 {
			if rateLimited(env.Errors) && c.shouldRetry(attempts) {
				wait := computeWait(rem, reset, retryAfter, c.now())
				if wait <= 0 {
					wait = c.backoff(attempts)
				}
				c.log.Warn().Dur("sleep", wait).Msg("github graphql rate limited backing off")
				if err := c.wait(ctx, op, wait); err != nil {
					return err
				}
				attempts++
				continue
			}
			return perr.Newf(perr.ErrorCodeFetchFailed, "github %s: %s", op, joinErrors(env.Errors))
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return perr.FetchFailedf("github %s: response without data", op)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeFetchFailed, "github %s: decode data", op)
		}
		return nil
	}
}

// wait blocks for d unless ctx ends first
func (c *Client) wait(ctx context.Context, op string, d time.Duration) error {
	if err := c.sleep(ctx, d); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s: canceled while backing off", op)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusError reads a small tail of the body for diagnostics and closes it
func statusError(op string, resp *http.Response) error {
	tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	_ = resp.Body.Close()
	return &StatusError{
		Status: resp.StatusCode,
		Body:   string(tail),
		Err:    perr.Newf(perr.ErrorCodeFetchFailed, "github %s unexpected status %d", op, resp.StatusCode),
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	const ceiling = 30 * time.Second
	// simple exponential with cap
	d := c.opts.RetryBase << uint(min(attempt, 16))
	if d > ceiling || d <= 0 {
		return ceiling
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}
