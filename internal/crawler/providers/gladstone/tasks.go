package gladstone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// Tasks is the token-bearing task creator. The token is acquired once per
// pipeline run (Prepare), injected into every request, and refreshed at most
// once when a request comes back 401 — stale tokens are expected when a run
// straddles the token lifetime.
type Tasks struct {
	source TokenSource
	logger *slog.Logger

	mu        sync.Mutex
	token     string
	refreshed bool
}

// NewTasks creates a Tasks around a token source.
func NewTasks(source TokenSource, logger *slog.Logger) *Tasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tasks{source: source, logger: logger}
}

// Prepare implements crawler.Preparer: the one-shot synchronous token
// acquisition before fan-out.
func (t *Tasks) Prepare(ctx context.Context) error {
	token, err := t.source(ctx)
	if err != nil {
		return fmt.Errorf("acquire authorization token: %w", err)
	}
	t.mu.Lock()
	t.token = token
	t.refreshed = false
	t.mu.Unlock()
	return nil
}

func (t *Tasks) currentToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// refreshOnce re-acquires the token. Concurrent 401s share one refresh per
// run; later callers just pick up the replacement token.
func (t *Tasks) refreshOnce(ctx context.Context, staleToken string) error {
	t.mu.Lock()
	if t.token != staleToken {
		// Another task already refreshed.
		t.mu.Unlock()
		return nil
	}
	if t.refreshed {
		t.mu.Unlock()
		return errors.New("token already refreshed once this run")
	}
	t.refreshed = true
	t.mu.Unlock()

	t.logger.Warn("Authorization token rejected, refreshing")
	token, err := t.source(ctx)
	if err != nil {
		return fmt.Errorf("refresh authorization token: %w", err)
	}
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
	return nil
}

// CreateTasks implements crawler.TaskCreator.
func (t *Tasks) CreateTasks(client *crawler.Client, venue catalogue.Venue, fetchDate time.Time, requests crawler.RequestStrategy, parser crawler.ResponseParser) []crawler.Task {
	details := requests.GenerateRequestDetails(venue, fetchDate, t.currentToken())
	tasks := make([]crawler.Task, 0, len(details))
	for _, detail := range details {
		detail := detail
		tasks = append(tasks, func(ctx context.Context) ([]crawler.Slot, error) {
			detail.Token = t.currentToken()
			raw, err := client.Do(ctx, detail)
			if isUnauthorized(err) {
				if refreshErr := t.refreshOnce(ctx, detail.Token); refreshErr != nil {
					return nil, fmt.Errorf("%w (refresh failed: %v)", err, refreshErr)
				}
				detail.Token = t.currentToken()
				raw, err = client.Do(ctx, detail)
			}
			if err != nil {
				return nil, err
			}
			if !raw.IsJSON() {
				return nil, fmt.Errorf("%s: response content-type %q is not JSON",
					detail.URL, raw.Headers.Get("Content-Type"))
			}
			return parser.Parse(raw)
		})
	}
	return tasks
}

func isUnauthorized(err error) bool {
	var statusErr *crawler.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized
}
