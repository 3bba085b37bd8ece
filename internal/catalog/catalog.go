// Package catalog syncs the remote AI-artist catalog into the store.
//
// Fetches are cache-busted, throttled, and retried on transient failure. A
// successful fetch whose payload has a recognized shape replaces the cached
// copy under the aiBlocklist key; any failure leaves the last known good copy
// in place, so matching keeps working from local lists and the cached catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/retry"
)

const maxPayloadBytes = 32 << 20

// ErrUnrecognizedPayload means the catalog answered with JSON of no known shape.
var ErrUnrecognizedPayload = errors.New("catalog payload has no recognized shape")

// ErrRefreshInProgress is returned when a refresh is already running.
var ErrRefreshInProgress = errors.New("catalog refresh already in progress")

// Store is the slice of the key-value store the catalog needs.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]any) error
}

// Options configure a Catalog.
type Options struct {
	URL         string
	Timeout     time.Duration
	MinFetchGap time.Duration
	Retry       retry.Policy
	Client      *http.Client
}

// Result describes one successful refresh.
type Result struct {
	Count   int
	Shape   string
	Bytes   int
	Changed bool
}

// Status is a point-in-time view for status surfaces.
type Status struct {
	URL         string    `json:"url"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Count       int       `json:"count"`
}

// RefreshFunc is called after every refresh attempt that ran. err is nil on
// success.
type RefreshFunc func(ctx context.Context, res Result, err error)

// Catalog fetches the remote list and caches it in the store.
type Catalog struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	store   Store
	logger  *slog.Logger

	refreshing atomic.Bool
	onRefresh  RefreshFunc

	mu     sync.Mutex
	status Status
}

// New constructs a catalog client.
func New(opts Options, store Store, logger *slog.Logger) *Catalog {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.MinFetchGap > 0 {
		limit = rate.Every(opts.MinFetchGap)
	}
	policy := opts.Retry
	if policy.Validate() != nil {
		policy = retry.DefaultPolicy()
	}
	return &Catalog{
		url:     opts.URL,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "catalog"),
		status:  Status{URL: opts.URL},
	}
}

// OnRefresh registers a callback for refresh results. It must be set before
// the first refresh.
func (c *Catalog) OnRefresh(fn RefreshFunc) { c.onRefresh = fn }

// Fetch downloads the raw catalog payload. Each request carries a fresh t=
// query parameter so intermediate caches never serve a stale copy.
func (c *Catalog) Fetch(ctx context.Context) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog throttle: %w", err)
	}
	var payload []byte
	err := c.policy.Do(ctx, func(attempt int) error {
		body, err := c.fetchOnce(ctx)
		if err != nil {
			c.logger.Debug("catalog fetch attempt failed",
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
			return err
		}
		payload = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Catalog) fetchOnce(ctx context.Context) ([]byte, error) {
	target, err := cacheBusted(c.url, time.Now())
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build catalog request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("catalog status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	return body, nil
}

func cacheBusted(raw string, now time.Time) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("catalog url must be http or https: %q", raw)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Refresh fetches the catalog and persists it when its shape is recognized.
// On failure the cached copy is kept and the error is returned.
func (c *Catalog) Refresh(ctx context.Context) (Result, error) {
	if !c.refreshing.CompareAndSwap(false, true) {
		return Result{}, ErrRefreshInProgress
	}
	defer c.refreshing.Store(false)

	c.mu.Lock()
	c.status.LastAttempt = time.Now()
	c.mu.Unlock()

	res, err := c.refresh(ctx)
	if err != nil {
		c.mu.Lock()
		c.status.LastError = err.Error()
		c.mu.Unlock()
		logging.WarnWithContext(c.logger, "catalog refresh failed; keeping cached list", "catalog_refresh_failed",
			logging.String("url", c.url),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access or catalog.url"),
			logging.String(logging.FieldImpact, "remote artists stay at the last known list"),
		)
		if c.onRefresh != nil && ctx.Err() == nil {
			c.onRefresh(ctx, Result{}, err)
		}
		return Result{}, err
	}

	c.mu.Lock()
	c.status.LastSuccess = time.Now()
	c.status.LastError = ""
	c.status.Count = res.Count
	c.mu.Unlock()

	c.logger.Info("catalog refreshed",
		logging.Int("artists", res.Count),
		logging.String("shape", res.Shape),
		logging.Int("bytes", res.Bytes),
		logging.Bool("changed", res.Changed),
		logging.String(logging.FieldEventType, "catalog_refreshed"),
	)
	if c.onRefresh != nil {
		c.onRefresh(ctx, res, nil)
	}
	return res, nil
}

func (c *Catalog) refresh(ctx context.Context) (Result, error) {
	payload, err := c.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}
	shape := blocklist.RemoteShape(payload)
	if shape == "" {
		return Result{}, ErrUnrecognizedPayload
	}
	res := Result{
		Count: len(blocklist.ParseRemote(payload)),
		Shape: shape,
		Bytes: len(payload),
	}

	current, err := c.store.Get(ctx, blocklist.KeyRemote)
	if err != nil {
		return Result{}, fmt.Errorf("read cached catalog: %w", err)
	}
	if cached, ok := current[blocklist.KeyRemote]; ok && jsonEqual(cached, payload) {
		return res, nil
	}
	if err := c.store.Set(ctx, map[string]any{blocklist.KeyRemote: json.RawMessage(payload)}); err != nil {
		return Result{}, fmt.Errorf("cache catalog: %w", err)
	}
	res.Changed = true
	return res, nil
}

// Count returns the number of artists in the cached catalog.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	values, err := c.store.Get(ctx, blocklist.KeyRemote)
	if err != nil {
		return 0, fmt.Errorf("read cached catalog: %w", err)
	}
	return len(blocklist.ParseRemote(values[blocklist.KeyRemote])), nil
}

// Status returns the refresh history.
func (c *Catalog) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func jsonEqual(a, b []byte) bool {
	var x, y any
	if json.Unmarshal(a, &x) != nil || json.Unmarshal(b, &y) != nil {
		return false
	}
	ax, _ := json.Marshal(x)
	by, _ := json.Marshal(y)
	return string(ax) == string(by)
}
