package pager

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/aitagbot/core/logger"
	"github.com/m3rciful/aitagbot/search"
)

// Searcher is the slice of the search client the engine needs.
type Searcher interface {
	Search(ctx context.Context, keyword string, offset, limit int) (search.Page, error)
}

// Direction is a single navigation step.
type Direction int

const (
	DirPrev Direction = -1
	DirNext Direction = 1
)

// NavEvent is one decoded button press. From is the offset the pressing user
// was looking at; it anchors the compare-and-swap in Store.Advance so that
// two simultaneous presses of the same button advance the view exactly once.
type NavEvent struct {
	Dir  Direction
	From int
}

// View is everything the renderer needs for one result message.
type View struct {
	Query     Query
	Page      search.Page
	HasPrev   bool
	HasNext   bool
	PageNum   int
	PageCount int
}

// Empty reports whether the view has no results to show.
func (v View) Empty() bool {
	return len(v.Page.Items) == 0
}

// Engine drives pagination sessions: new searches, page navigation and
// redisplay. Every page shown to a user comes from a fresh upstream fetch;
// the store only remembers where in the result set each message sits.
type Engine struct {
	search Searcher
	store  *Store
	limit  int
}

// NewEngine wires a search backend and session store for pages of limit items.
func NewEngine(search Searcher, store *Store, limit int) *Engine {
	if limit <= 0 {
		limit = 1
	}
	return &Engine{search: search, store: store, limit: limit}
}

// Limit reports the page size the engine paginates with.
func (e *Engine) Limit() int { return e.limit }

// Search runs a fresh query and binds its session to key. Blank keywords are
// rejected with ErrEmptyQuery before any network call. On upstream failure no
// session is created, so a later retry starts clean at offset zero.
func (e *Engine) Search(ctx context.Context, key MessageKey, q Query) (View, error) {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Keyword == "" {
		return View{}, ErrEmptyQuery
	}

	start := time.Now()
	page, err := e.search.Search(ctx, q.Keyword, 0, e.limit)
	if err != nil {
		logger.Warn(ctx, "pager", "query",
			slog.String("status", "fail"),
			slog.String("keyword", logger.SanitizeLimit(q.Keyword, 64)),
			slog.String("err_code", search.ErrCode(err)),
			slog.Any("err", err),
		)
		return View{}, err
	}

	sess := e.store.Create(key, q, page)
	logger.Info(ctx, "pager", "query",
		slog.String("status", "ok"),
		slog.String("keyword", logger.SanitizeLimit(q.Keyword, 64)),
		slog.Int("total", sess.Total),
		slog.Int("results", len(page.Items)),
		slog.Duration("duration", logger.Took(start)),
	)
	return e.buildView(sess.Query, page), nil
}

// Navigate applies one page step to the session bound to key.
//
// The flow is lookup, clamp, fetch, commit. The fetch happens before the
// commit and without any session lock held, so a slow upstream never blocks
// other chats; the commit then re-validates the observed offset against the
// freshest total. When the press raced another one or arrived from an already
// replaced view, the session is left as the winner wrote it and the caller
// gets that state to redisplay. On upstream failure the session is untouched.
func (e *Engine) Navigate(ctx context.Context, key MessageKey, ev NavEvent) (View, error) {
	sess, err := e.store.Get(key)
	if err != nil {
		return View{}, err
	}

	if ev.From != sess.Offset {
		logger.Debug(ctx, "pager", "navigate.stale",
			slog.Int("offset", sess.Offset),
			slog.String("reason", "view outdated"),
		)
		return e.redisplay(ctx, key, sess)
	}

	var delta int
	switch ev.Dir {
	case DirPrev:
		delta = -e.limit
	case DirNext:
		delta = e.limit
	}
	target := clampOffset(sess.Offset+delta, sess.Total, e.limit)
	if target == sess.Offset {
		return e.redisplay(ctx, key, sess)
	}

	start := time.Now()
	page, err := e.search.Search(ctx, sess.Query.Keyword, target, e.limit)
	if err != nil {
		logger.Warn(ctx, "pager", "navigate",
			slog.String("status", "fail"),
			slog.String("keyword", logger.SanitizeLimit(sess.Query.Keyword, 64)),
			slog.Int("offset", target),
			slog.String("err_code", search.ErrCode(err)),
			slog.Any("err", err),
		)
		return View{}, err
	}

	committed, advanced, err := e.store.Advance(key, sess.Offset, delta, page.Total)
	if err != nil {
		return View{}, err
	}
	if !advanced && committed.Offset != page.Offset {
		logger.Debug(ctx, "pager", "navigate.race",
			slog.Int("offset", committed.Offset),
		)
		return e.redisplay(ctx, key, committed)
	}

	logger.Info(ctx, "pager", "navigate",
		slog.String("status", "ok"),
		slog.String("keyword", logger.SanitizeLimit(sess.Query.Keyword, 64)),
		slog.Int("offset", committed.Offset),
		slog.Int("total", committed.Total),
		slog.Int("results", len(page.Items)),
		slog.Duration("duration", logger.Took(start)),
	)
	return e.buildView(committed.Query, page), nil
}

// Refresh redraws the current page of the session bound to key without
// moving it. Used when a press decodes to a no-op.
func (e *Engine) Refresh(ctx context.Context, key MessageKey) (View, error) {
	sess, err := e.store.Get(key)
	if err != nil {
		return View{}, err
	}
	return e.redisplay(ctx, key, sess)
}

// redisplay refetches the page the session currently points at and commits
// the fresh total. If the refetch reveals the result set shrank under the
// stored offset, the commit clamps the session and the page is fetched once
// more at the corrected position.
func (e *Engine) redisplay(ctx context.Context, key MessageKey, sess Session) (View, error) {
	page, err := e.search.Search(ctx, sess.Query.Keyword, sess.Offset, e.limit)
	if err != nil {
		return View{}, err
	}
	committed, _, err := e.store.Advance(key, sess.Offset, 0, page.Total)
	if err != nil {
		return View{}, err
	}
	if committed.Offset != page.Offset {
		page, err = e.search.Search(ctx, sess.Query.Keyword, committed.Offset, e.limit)
		if err != nil {
			return View{}, err
		}
	}
	return e.buildView(committed.Query, page), nil
}

func (e *Engine) buildView(q Query, page search.Page) View {
	end := page.Offset + len(page.Items)

	hasNext := false
	if page.Total >= end && (page.Total > 0 || end == 0) {
		hasNext = end < page.Total
	} else {
		// Total missing or contradicted by the items themselves: assume a
		// full page hides more behind it.
		hasNext = len(page.Items) == e.limit
	}

	pageNum := page.Offset/e.limit + 1
	pageCount := (page.Total + e.limit - 1) / e.limit
	if pageCount < pageNum {
		pageCount = pageNum
	}
	if pageCount < 1 {
		pageCount = 1
	}

	return View{
		Query:     q,
		Page:      page,
		HasPrev:   page.Offset > 0,
		HasNext:   hasNext,
		PageNum:   pageNum,
		PageCount: pageCount,
	}
}
