package twitter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/ports"
)

const (
	DefaultStreamURL   = "https://stream.twitter.com/1.1/statuses/filter.json"
	DefaultTokenURL    = "https://api.twitter.com/oauth2/token"
	DefaultIdleTimeout = 90 * time.Second
)

var (
	errIdle         = errors.New("stream idle")
	errDisconnected = errors.New("stream disconnected by server")
)

// Config configures the filtered stream client.
type Config struct {
	StreamURL      string
	TokenURL       string
	ConsumerKey    string
	ConsumerSecret string
	// BearerToken skips the client credentials exchange when set.
	BearerToken string
	IdleTimeout time.Duration
	// MaxRetries bounds consecutive failed connection attempts. Zero means
	// unlimited.
	MaxRetries int

	HTTPClient       *http.Client
	RetryBackOff     backoff.BackOff
	RateLimitBackOff backoff.BackOff
}

func (c *Config) setDefaults() {
	if c.StreamURL == "" {
		c.StreamURL = DefaultStreamURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.HTTPClient == nil {
		// No client timeout: the response body is a long-lived stream.
		c.HTTPClient = &http.Client{}
	}
	if c.RetryBackOff == nil {
		c.RetryBackOff = newBackOff(5*time.Second, 320*time.Second)
	}
	if c.RateLimitBackOff == nil {
		c.RateLimitBackOff = newBackOff(time.Minute, 16*time.Minute)
	}
}

func newBackOff(initial, max time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Source implements ports.StreamSource over the statuses/filter endpoint.
type Source struct {
	cfg      Config
	onSignal ports.SignalHandler

	client *http.Client
	bbox   domain.BBox

	mu     sync.Mutex
	body   io.ReadCloser
	reader *bufio.Reader

	timedOut atomic.Bool
	lastErr  error
	failures int
}

// New creates a Source. onSignal may be nil.
func New(cfg Config, onSignal ports.SignalHandler) *Source {
	cfg.setDefaults()
	return &Source{cfg: cfg, onSignal: onSignal}
}

// Open authenticates and connects to the stream filtered by bbox. A
// rejected connection that is not an authentication failure is reported
// as a signal and retried by Next.
func (s *Source) Open(ctx context.Context, bbox domain.BBox) error {
	if err := bbox.Validate(); err != nil {
		return err
	}
	s.bbox = bbox

	ts, err := s.tokenSource(ctx)
	if err != nil {
		return err
	}
	if _, err := ts.Token(); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	s.client = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient), ts)

	if err := s.connect(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *statusError
		if errors.As(err, &se) && se.unauthorized() {
			return fmt.Errorf("connect: %w", err)
		}
		s.fail(ctx, err)
	}
	return nil
}

func (s *Source) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if s.cfg.BearerToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.cfg.BearerToken, TokenType: "Bearer"}), nil
	}
	if s.cfg.ConsumerKey == "" || s.cfg.ConsumerSecret == "" {
		return nil, errors.New("twitter credentials missing: set a bearer token or consumer key and secret")
	}
	cc := clientcredentials.Config{
		ClientID:     s.cfg.ConsumerKey,
		ClientSecret: s.cfg.ConsumerSecret,
		TokenURL:     s.cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return cc.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient)), nil
}

// Next returns the next status payload. Keep-alives are skipped and control
// messages are delivered to the signal handler. Dropped connections are
// re-established with backoff until MaxRetries consecutive failures.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, s.closeBody)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.reader == nil {
			if err := s.reconnect(ctx); err != nil {
				return nil, err
			}
			continue
		}

		line, err := s.readLine()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if s.timedOut.Swap(false) {
				err = fmt.Errorf("%w: no data for %s", errIdle, s.cfg.IdleTimeout)
				s.lost(ctx, err, domain.Signal{Kind: domain.SignalTimeout, Message: fmt.Sprintf("no data for %s", s.cfg.IdleTimeout)})
			} else {
				s.lost(ctx, fmt.Errorf("read stream: %w", err), domain.Signal{Kind: domain.SignalDisconnect, Message: err.Error()})
			}
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if sig, ok := parseControl(line); ok {
			if sig.Kind == domain.SignalDisconnect {
				s.lost(ctx, fmt.Errorf("%w: %s", errDisconnected, sig.Message), sig)
			} else {
				s.emit(ctx, sig)
			}
			continue
		}

		s.failures = 0
		s.cfg.RetryBackOff.Reset()
		s.cfg.RateLimitBackOff.Reset()
		return line, nil
	}
}

// Close releases the current connection.
func (s *Source) Close() error {
	s.drop()
	return nil
}

func (s *Source) readLine() ([]byte, error) {
	if s.cfg.IdleTimeout > 0 {
		t := time.AfterFunc(s.cfg.IdleTimeout, func() {
			s.timedOut.Store(true)
			s.closeBody()
		})
		defer t.Stop()
	}
	return s.reader.ReadBytes('\n')
}

func (s *Source) connect(ctx context.Context) error {
	form := url.Values{"locations": {s.bbox.String()}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.StreamURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return &statusError{code: resp.StatusCode, message: strings.TrimSpace(string(msg))}
	}

	s.mu.Lock()
	s.body = resp.Body
	s.mu.Unlock()
	s.reader = bufio.NewReader(resp.Body)
	s.lastErr = nil
	slog.Info("stream connected", "url", s.cfg.StreamURL, "locations", s.bbox.String())
	return nil
}

// reconnect connects again, waiting first if the previous attempt failed.
func (s *Source) reconnect(ctx context.Context) error {
	for {
		if s.lastErr != nil {
			if s.cfg.MaxRetries > 0 && s.failures > s.cfg.MaxRetries {
				return fmt.Errorf("giving up after %d failed attempts: %w", s.failures, s.lastErr)
			}
			wait := s.backOffFor(s.lastErr).NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("retries exhausted: %w", s.lastErr)
			}
			slog.Debug("waiting before reconnect", "wait", wait, "attempt", s.failures)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := s.connect(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.fail(ctx, err)
	}
}

// lost drops an established connection. It counts as a failed attempt so
// the next reconnect backs off and MaxRetries bounds a stream that keeps
// accepting and then dropping.
func (s *Source) lost(ctx context.Context, err error, sig domain.Signal) {
	s.drop()
	s.lastErr = err
	s.failures++
	s.emit(ctx, sig)
}

func (s *Source) fail(ctx context.Context, err error) {
	s.lastErr = err
	s.failures++
	s.emit(ctx, signalFor(err))
}

func (s *Source) backOffFor(err error) backoff.BackOff {
	var se *statusError
	if errors.As(err, &se) && se.rateLimited() {
		return s.cfg.RateLimitBackOff
	}
	return s.cfg.RetryBackOff
}

func (s *Source) emit(ctx context.Context, sig domain.Signal) {
	if sig.At.IsZero() {
		sig.At = time.Now()
	}
	if s.onSignal != nil {
		s.onSignal(ctx, sig)
	}
}

func (s *Source) closeBody() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.body != nil {
		_ = s.body.Close()
	}
}

func (s *Source) drop() {
	s.mu.Lock()
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	s.mu.Unlock()
	s.reader = nil
}

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("stream rejected: HTTP %d", e.code)
	}
	return fmt.Sprintf("stream rejected: HTTP %d: %s", e.code, e.message)
}

// 420 is the legacy "Enhance Your Calm" status.
func (e *statusError) rateLimited() bool {
	return e.code == 420 || e.code == http.StatusTooManyRequests
}

func (e *statusError) unauthorized() bool {
	return e.code == http.StatusUnauthorized || e.code == http.StatusForbidden
}

func signalFor(err error) domain.Signal {
	var se *statusError
	if errors.As(err, &se) {
		kind := domain.SignalError
		if se.rateLimited() {
			kind = domain.SignalRateLimit
		}
		return domain.Signal{Kind: kind, StatusCode: se.code, Message: se.message}
	}
	return domain.Signal{Kind: domain.SignalError, Message: err.Error()}
}

type controlMessage struct {
	Limit *struct {
		Track int `json:"track"`
	} `json:"limit"`
	Disconnect *struct {
		Code   int    `json:"code"`
		Reason string `json:"reason"`
	} `json:"disconnect"`
	Warning *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"warning"`
}

// parseControl recognises limit, disconnect and warning notices.
func parseControl(line []byte) (domain.Signal, bool) {
	var m controlMessage
	if err := json.Unmarshal(line, &m); err != nil {
		return domain.Signal{}, false
	}
	switch {
	case m.Limit != nil:
		return domain.Signal{Kind: domain.SignalRateLimit, Track: m.Limit.Track}, true
	case m.Disconnect != nil:
		return domain.Signal{Kind: domain.SignalDisconnect, StatusCode: m.Disconnect.Code, Message: m.Disconnect.Reason}, true
	case m.Warning != nil:
		return domain.Signal{Kind: domain.SignalWarning, Message: strings.TrimSpace(m.Warning.Code + " " + m.Warning.Message)}, true
	}
	return domain.Signal{}, false
}
