package pager

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/aitagbot/search"
)

// fakeSearch serves deterministic pages out of a result set of total items
// with ids 1..total. Every call is recorded so tests can assert fetch counts.
type fakeSearch struct {
	mu      sync.Mutex
	total   int
	fail    error
	offsets []int
	pageFn  func(offset, limit int) (search.Page, error)
}

func (f *fakeSearch) Search(_ context.Context, _ string, offset, limit int) (search.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return search.Page{}, f.fail
	}
	f.offsets = append(f.offsets, offset)
	if f.pageFn != nil {
		return f.pageFn(offset, limit)
	}
	n := f.total - offset
	if n < 0 {
		n = 0
	}
	if n > limit {
		n = limit
	}
	items := make([]search.ResultItem, n)
	for i := range items {
		id := int64(offset + i + 1)
		items[i] = search.ResultItem{ID: id, Title: "work " + strconv.FormatInt(id, 10)}
	}
	return search.Page{Items: items, Offset: offset, Total: f.total}, nil
}

func (f *fakeSearch) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeSearch) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsets...)
}

func newTestEngine(total int) (*Engine, *fakeSearch, *Store, *time.Time) {
	fs := &fakeSearch{total: total}
	store, now := testStore(5, 10*time.Minute)
	return NewEngine(fs, store, 5), fs, store, now
}

func firstID(v View) int64 {
	if len(v.Page.Items) == 0 {
		return 0
	}
	return v.Page.Items[0].ID
}

func TestEngineSearchStartsAtOffsetZero(t *testing.T) {
	eng, fs, store, _ := newTestEngine(12)
	key := MessageKey{ChatID: 1, MessageID: 10}

	view, err := eng.Search(context.Background(), key, Query{Keyword: " 原神 ", ChatID: 1, UserID: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if view.Page.Offset != 0 || len(view.Page.Items) != 5 {
		t.Fatalf("offset/items = %d/%d", view.Page.Offset, len(view.Page.Items))
	}
	if view.Query.Keyword != "原神" {
		t.Fatalf("keyword not trimmed: %q", view.Query.Keyword)
	}
	if view.HasPrev || !view.HasNext {
		t.Fatalf("prev/next = %v/%v", view.HasPrev, view.HasNext)
	}
	if view.PageNum != 1 || view.PageCount != 3 {
		t.Fatalf("page %d/%d", view.PageNum, view.PageCount)
	}
	if got := fs.calls(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("fetches = %v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("sessions = %d", store.Len())
	}
}

func TestEngineEmptyKeywordRejectedBeforeFetch(t *testing.T) {
	eng, fs, store, _ := newTestEngine(12)
	key := MessageKey{ChatID: 1, MessageID: 10}

	_, err := eng.Search(context.Background(), key, Query{Keyword: "   "})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if got := fs.calls(); len(got) != 0 {
		t.Fatalf("fetches = %v, validation must precede network", got)
	}
	if store.Len() != 0 {
		t.Fatalf("sessions = %d", store.Len())
	}
}

func TestEngineSearchFailureCreatesNoSession(t *testing.T) {
	eng, fs, store, _ := newTestEngine(12)
	key := MessageKey{ChatID: 1, MessageID: 10}

	fs.setFail(search.ErrUnavailable)
	if _, err := eng.Search(context.Background(), key, Query{Keyword: "k"}); !errors.Is(err, search.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("sessions = %d, failed search must not create one", store.Len())
	}
	if _, err := eng.Navigate(context.Background(), key, NavEvent{Dir: DirNext, From: 0}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A retry after recovery starts clean at the first page.
	fs.setFail(nil)
	view, err := eng.Search(context.Background(), key, Query{Keyword: "k"})
	if err != nil {
		t.Fatalf("retry search: %v", err)
	}
	if view.Page.Offset != 0 {
		t.Fatalf("offset = %d", view.Page.Offset)
	}
}

func TestEngineWalkTotal12Limit5(t *testing.T) {
	eng, _, _, _ := newTestEngine(12)
	key := MessageKey{ChatID: 3, MessageID: 30}
	ctx := context.Background()

	view, err := eng.Search(ctx, key, Query{Keyword: "原神"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if firstID(view) != 1 || view.PageNum != 1 {
		t.Fatalf("page 1 first id = %d num = %d", firstID(view), view.PageNum)
	}

	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if view.Page.Offset != 5 || firstID(view) != 6 || !view.HasPrev || !view.HasNext {
		t.Fatalf("page 2 = %+v", view)
	}

	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 5})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if view.Page.Offset != 10 || len(view.Page.Items) != 2 || view.HasNext {
		t.Fatalf("last page = %+v", view)
	}
	if view.PageNum != 3 || view.PageCount != 3 {
		t.Fatalf("page %d/%d", view.PageNum, view.PageCount)
	}

	// Next past the end is a clamped no-op that redisplays the last page.
	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 10})
	if err != nil {
		t.Fatalf("next past end: %v", err)
	}
	if view.Page.Offset != 10 || view.HasNext {
		t.Fatalf("expected unchanged last page, got %+v", view)
	}

	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirPrev, From: 10})
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	if view.Page.Offset != 5 || firstID(view) != 6 {
		t.Fatalf("round trip broke: offset %d first id %d", view.Page.Offset, firstID(view))
	}

	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirPrev, From: 5})
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	// Prev at the first page is a clamped no-op.
	if view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirPrev, From: 0}); err != nil {
		t.Fatalf("prev at start: %v", err)
	}
	if view.Page.Offset != 0 || view.HasPrev {
		t.Fatalf("expected unchanged first page, got offset %d", view.Page.Offset)
	}
}

func TestEngineConcurrentNextAdvancesOnce(t *testing.T) {
	eng, fs, _, _ := newTestEngine(12)
	key := MessageKey{ChatID: 4, MessageID: 40}
	ctx := context.Background()

	if _, err := eng.Search(ctx, key, Query{Keyword: "k"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	const presses = 4
	var wg sync.WaitGroup
	views := make(chan View, presses)
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0})
			if err != nil {
				t.Errorf("navigate: %v", err)
				return
			}
			views <- view
		}()
	}
	wg.Wait()
	close(views)

	// Every press resolves to the same committed page; the session moved by
	// exactly one step.
	for view := range views {
		if view.Page.Offset != 5 {
			t.Fatalf("view offset = %d, expected all presses to land on 5", view.Page.Offset)
		}
	}
	final, err := eng.Refresh(ctx, key)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if final.Page.Offset != 5 || final.PageNum != 2 {
		t.Fatalf("final offset = %d page = %d, session double-advanced", final.Page.Offset, final.PageNum)
	}
	for _, off := range fs.calls()[1:] {
		if off != 5 {
			t.Fatalf("fetch at %d, racing presses must all target the same page", off)
		}
	}
}

func TestEngineNavigateFailureKeepsSession(t *testing.T) {
	eng, fs, _, _ := newTestEngine(12)
	key := MessageKey{ChatID: 5, MessageID: 50}
	ctx := context.Background()

	if _, err := eng.Search(ctx, key, Query{Keyword: "k"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	fs.setFail(search.ErrUnavailable)
	if _, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0}); !errors.Is(err, search.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	fs.setFail(nil)
	view, err := eng.Refresh(ctx, key)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if view.Page.Offset != 0 {
		t.Fatalf("offset = %d, failed navigation must not move the session", view.Page.Offset)
	}
	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0})
	if err != nil {
		t.Fatalf("navigate after recovery: %v", err)
	}
	if view.Page.Offset != 5 {
		t.Fatalf("offset = %d", view.Page.Offset)
	}
}

func TestEngineExpiredSessionThenFreshSearch(t *testing.T) {
	eng, _, _, now := newTestEngine(12)
	key := MessageKey{ChatID: 6, MessageID: 60}
	ctx := context.Background()

	if _, err := eng.Search(ctx, key, Query{Keyword: "k"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	*now = now.Add(11 * time.Minute)
	if _, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0}); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	view, err := eng.Search(ctx, key, Query{Keyword: "k"})
	if err != nil {
		t.Fatalf("fresh search after expiry: %v", err)
	}
	if view.Page.Offset != 0 || view.PageNum != 1 {
		t.Fatalf("fresh session = %+v", view)
	}
}

func TestEngineZeroResultsNextIsNoop(t *testing.T) {
	eng, fs, _, _ := newTestEngine(0)
	key := MessageKey{ChatID: 7, MessageID: 70}
	ctx := context.Background()

	view, err := eng.Search(ctx, key, Query{Keyword: "nothing"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !view.Empty() || view.HasPrev || view.HasNext {
		t.Fatalf("empty view = %+v", view)
	}
	if view.PageNum != 1 || view.PageCount != 1 {
		t.Fatalf("page %d/%d", view.PageNum, view.PageCount)
	}

	view, err = eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0})
	if err != nil {
		t.Fatalf("next on empty: %v", err)
	}
	if !view.Empty() || view.Page.Offset != 0 {
		t.Fatalf("expected unchanged empty view, got %+v", view)
	}
	if got := fs.calls(); len(got) != 2 {
		t.Fatalf("fetches = %v", got)
	}
}

func TestEngineStaleFromRedisplaysCurrent(t *testing.T) {
	eng, _, _, _ := newTestEngine(12)
	key := MessageKey{ChatID: 8, MessageID: 80}
	ctx := context.Background()

	if _, err := eng.Search(ctx, key, Query{Keyword: "k"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0}); err != nil {
		t.Fatalf("next: %v", err)
	}

	// A press from the old rendering (offset 0) after the session moved to 5
	// redisplays the committed page instead of advancing again.
	view, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0})
	if err != nil {
		t.Fatalf("stale press: %v", err)
	}
	if view.Page.Offset != 5 {
		t.Fatalf("offset = %d, stale press must not advance", view.Page.Offset)
	}
}

func TestEngineShrunkenTotalClampsAndRefetches(t *testing.T) {
	eng, fs, _, _ := newTestEngine(12)
	key := MessageKey{ChatID: 9, MessageID: 90}
	ctx := context.Background()

	if _, err := eng.Search(ctx, key, Query{Keyword: "k"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 0}); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 5}); err != nil {
		t.Fatalf("next: %v", err)
	}

	fs.mu.Lock()
	fs.total = 7
	fs.mu.Unlock()

	view, err := eng.Navigate(ctx, key, NavEvent{Dir: DirNext, From: 10})
	if err != nil {
		t.Fatalf("navigate after shrink: %v", err)
	}
	if view.Page.Offset != 5 || view.Page.Total != 7 {
		t.Fatalf("offset/total = %d/%d, expected clamp onto last valid page", view.Page.Offset, view.Page.Total)
	}
	if len(view.Page.Items) != 2 || view.HasNext {
		t.Fatalf("items/hasNext = %d/%v", len(view.Page.Items), view.HasNext)
	}
	final, err := eng.Refresh(ctx, key)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if final.Page.Offset != 5 {
		t.Fatalf("committed offset = %d", final.Page.Offset)
	}
}

func TestEngineFullPageHeuristicWhenTotalContradicts(t *testing.T) {
	fs := &fakeSearch{pageFn: func(offset, limit int) (search.Page, error) {
		items := make([]search.ResultItem, limit)
		for i := range items {
			items[i] = search.ResultItem{ID: int64(offset + i + 1)}
		}
		// Upstream reports a total smaller than what it just returned.
		return search.Page{Items: items, Offset: offset, Total: 3}, nil
	}}
	store, _ := testStore(5, 10*time.Minute)
	eng := NewEngine(fs, store, 5)

	view, err := eng.Search(context.Background(), MessageKey{ChatID: 10, MessageID: 1}, Query{Keyword: "k"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !view.HasNext {
		t.Fatal("full page must imply a next page when the total is contradicted")
	}
}
