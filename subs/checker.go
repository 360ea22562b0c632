package subs

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/aitagbot/core/logger"
	"github.com/m3rciful/aitagbot/search"
)

// Storage is the slice of the store the checker needs.
type Storage interface {
	All(ctx context.Context) ([]Subscription, error)
	MarkChecked(ctx context.Context, id, lastWorkID int64) error
}

// Searcher fetches the newest works for a keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string, offset, limit int) (search.Page, error)
}

// NotifyFunc delivers fresh works to the subscribed chat. The items are
// sorted newest first, as returned by the upstream.
type NotifyFunc func(ctx context.Context, sub Subscription, fresh []search.ResultItem) error

// Options tunes the checker. Zero values select the defaults.
type Options struct {
	// Interval between sweeps over all subscriptions.
	Interval time.Duration
	// PageSize is how many newest works one check fetches.
	PageSize int
}

func (o Options) normalize() Options {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Minute
	}
	if o.PageSize <= 0 || o.PageSize > 10 {
		o.PageSize = 10
	}
	return o
}

// Checker periodically re-runs every subscribed keyword and notifies users
// when works newer than the stored cursor appear.
type Checker struct {
	store  Storage
	search Searcher
	notify NotifyFunc
	opts   Options
}

// NewChecker assembles a checker. notify must be safe for sequential calls
// from the checker's goroutine.
func NewChecker(store Storage, search Searcher, notify NotifyFunc, opts Options) *Checker {
	return &Checker{store: store, search: search, notify: notify, opts: opts.normalize()}
}

// Run sweeps once immediately, then on every interval tick until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.Sweep(ctx)

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep checks every subscription once. Failures are logged per subscription
// and never abort the rest of the sweep.
func (c *Checker) Sweep(ctx context.Context) {
	start := time.Now()
	all, err := c.store.All(ctx)
	if err != nil {
		logger.Error(ctx, "subs", "sweep",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
		return
	}

	var notified, failed int
	for _, sub := range all {
		if ctx.Err() != nil {
			return
		}
		sent, err := c.checkOne(ctx, sub)
		if err != nil {
			failed++
			logger.Warn(ctx, "subs", "check",
				slog.String("status", "fail"),
				slog.Int64("sub_id", sub.ID),
				slog.String("keyword", logger.SanitizeLimit(sub.Keyword, 64)),
				slog.String("err_code", search.ErrCode(err)),
				slog.Any("err", err),
			)
			continue
		}
		if sent {
			notified++
		}
	}

	logger.Info(ctx, "subs", "sweep",
		slog.String("status", "ok"),
		slog.Int("checked", len(all)),
		slog.Int("notified", notified),
		slog.Int("failed", failed),
		slog.Duration("duration", logger.Took(start)),
	)
}

// checkOne fetches the newest page for one subscription and reports whether a
// notification went out. A zero cursor only records the baseline, so a brand
// new subscription never replays the existing works. When notify fails the
// cursor stays put and the next sweep retries the same works.
func (c *Checker) checkOne(ctx context.Context, sub Subscription) (bool, error) {
	page, err := c.search.Search(ctx, sub.Keyword, 0, c.opts.PageSize)
	if err != nil {
		return false, err
	}
	if len(page.Items) == 0 {
		return false, c.store.MarkChecked(ctx, sub.ID, sub.LastWorkID)
	}

	newest := sub.LastWorkID
	var fresh []search.ResultItem
	for _, item := range page.Items {
		if item.ID > sub.LastWorkID {
			fresh = append(fresh, item)
		}
		if item.ID > newest {
			newest = item.ID
		}
	}

	if sub.LastWorkID == 0 || len(fresh) == 0 {
		return false, c.store.MarkChecked(ctx, sub.ID, newest)
	}

	if err := c.notify(ctx, sub, fresh); err != nil {
		return false, err
	}
	if err := c.store.MarkChecked(ctx, sub.ID, newest); err != nil {
		return true, err
	}

	logger.Debug(ctx, "subs", "notify",
		slog.Int64("sub_id", sub.ID),
		slog.String("keyword", logger.SanitizeLimit(sub.Keyword, 64)),
		slog.Int("fresh", len(fresh)),
		slog.Int64("cursor", newest),
	)
	return true, nil
}
