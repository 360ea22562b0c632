package pager

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/aitagbot/search"
)

// testStore returns a store with a controllable clock. Advancing the pointed
// time moves the clock for every subsequent call.
func testStore(limit int, ttl time.Duration) (*Store, *time.Time) {
	now := time.Unix(1700000000, 0)
	s := NewStore(limit, ttl)
	s.now = func() time.Time { return now }
	return s, &now
}

func testPage(offset, total int) search.Page {
	return search.Page{Offset: offset, Total: total}
}

func TestStoreCreateAndGet(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 1, MessageID: 100}
	q := Query{Keyword: "原神", ChatID: 1, UserID: 7}

	sess := s.Create(key, q, testPage(0, 12))
	if sess.Offset != 0 || sess.Total != 12 {
		t.Fatalf("created offset/total = %d/%d", sess.Offset, sess.Total)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Query != q {
		t.Fatalf("query = %+v", got.Query)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	_, err := s.Get(MessageKey{ChatID: 1, MessageID: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreCreateReplacesSameMessage(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 1, MessageID: 100}

	s.Create(key, Query{Keyword: "old"}, testPage(0, 30))
	if _, _, err := s.Advance(key, 0, 5, 30); err != nil {
		t.Fatalf("advance: %v", err)
	}

	s.Create(key, Query{Keyword: "new"}, testPage(0, 8))
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Query.Keyword != "new" || got.Offset != 0 || got.Total != 8 {
		t.Fatalf("replacement leaked old state: %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestStoreGetTouchesLastAccess(t *testing.T) {
	s, now := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 2, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	*now = now.Add(9 * time.Minute)
	if _, err := s.Get(key); err != nil {
		t.Fatalf("get at 9m: %v", err)
	}
	*now = now.Add(9 * time.Minute)
	if _, err := s.Get(key); err != nil {
		t.Fatalf("get at 18m after touch: %v", err)
	}
	*now = now.Add(11 * time.Minute)
	if _, err := s.Get(key); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after idle TTL, got %v", err)
	}
}

func TestStoreExpiryThenNotFound(t *testing.T) {
	s, now := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 3, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	*now = now.Add(11 * time.Minute)
	if _, err := s.Get(key); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// The eviction consumed the session; the store no longer knows it existed.
	if _, err := s.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after eviction, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d after eviction", s.Len())
	}
}

func TestStoreAdvanceExpired(t *testing.T) {
	s, now := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 4, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	*now = now.Add(11 * time.Minute)
	_, _, err := s.Advance(key, 0, 5, 12)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestStoreAdvanceCASExactlyOneWins(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 5, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	const presses = 8
	var wg sync.WaitGroup
	wins := make(chan Session, presses)
	losses := make(chan Session, presses)
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, advanced, err := s.Advance(key, 0, 5, 12)
			if err != nil {
				t.Errorf("advance: %v", err)
				return
			}
			if advanced {
				wins <- sess
			} else {
				losses <- sess
			}
		}()
	}
	wg.Wait()
	close(wins)
	close(losses)

	if len(wins) != 1 {
		t.Fatalf("advanced count = %d, exactly one press may win", len(wins))
	}
	for sess := range losses {
		if sess.Offset != 5 {
			t.Fatalf("loser observed offset %d, expected the winner's 5", sess.Offset)
		}
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Offset != 5 {
		t.Fatalf("final offset = %d, session double-advanced", got.Offset)
	}
}

func TestStoreAdvanceStaleFromIsNoop(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 6, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	sess, advanced, err := s.Advance(key, 5, 5, 12)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced || sess.Offset != 0 {
		t.Fatalf("stale from must not move the session: advanced=%v offset=%d", advanced, sess.Offset)
	}
}

func TestStoreAdvanceClampsAgainstFreshTotal(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 7, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	if _, _, err := s.Advance(key, 0, 5, 12); err != nil {
		t.Fatalf("advance to 5: %v", err)
	}
	if _, _, err := s.Advance(key, 5, 5, 12); err != nil {
		t.Fatalf("advance to 10: %v", err)
	}

	// The result set shrank to 7 items between fetches; the commit clamps the
	// target back onto the last valid page and adopts the fresh total.
	sess, advanced, err := s.Advance(key, 10, 5, 7)
	if err != nil {
		t.Fatalf("advance with shrunken total: %v", err)
	}
	if !advanced || sess.Offset != 5 || sess.Total != 7 {
		t.Fatalf("advanced=%v offset=%d total=%d, expected clamp to 5/7", advanced, sess.Offset, sess.Total)
	}
}

func TestStoreAdvanceZeroDeltaRefreshesTotal(t *testing.T) {
	s, _ := testStore(5, 10*time.Minute)
	key := MessageKey{ChatID: 8, MessageID: 1}
	s.Create(key, Query{Keyword: "k"}, testPage(0, 12))

	sess, advanced, err := s.Advance(key, 0, 0, 40)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced {
		t.Fatal("zero delta must not report an advance")
	}
	if sess.Total != 40 {
		t.Fatalf("total = %d, expected refresh to 40", sess.Total)
	}
}

func TestStoreSweepEvictsIdleSessions(t *testing.T) {
	s, now := testStore(5, 10*time.Minute)
	k1 := MessageKey{ChatID: 9, MessageID: 1}
	k2 := MessageKey{ChatID: 9, MessageID: 2}

	s.Create(k1, Query{Keyword: "a"}, testPage(0, 12))
	*now = now.Add(11 * time.Minute)
	s.Create(k2, Query{Keyword: "b"}, testPage(0, 12))

	if s.Len() != 1 {
		t.Fatalf("len = %d, sweep on create should have evicted the idle session", s.Len())
	}
	if _, err := s.Get(k1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for swept session, got %v", err)
	}
	if _, err := s.Get(k2); err != nil {
		t.Fatalf("fresh session must survive sweep: %v", err)
	}
}

func TestClampOffset(t *testing.T) {
	cases := []struct {
		offset, total, limit int
		want                 int
	}{
		{0, 12, 5, 0},
		{5, 12, 5, 5},
		{10, 12, 5, 10},
		{15, 12, 5, 10},
		{-5, 12, 5, 0},
		{7, 12, 5, 5},
		{0, 0, 5, 0},
		{5, 0, 5, 0},
		{3, 4, 5, 0},
		{100, 0, 5, 0},
		{10, 10, 5, 5},
	}
	for _, tc := range cases {
		if got := clampOffset(tc.offset, tc.total, tc.limit); got != tc.want {
			t.Errorf("clampOffset(%d, %d, %d) = %d, expected %d",
				tc.offset, tc.total, tc.limit, got, tc.want)
		}
	}
}
