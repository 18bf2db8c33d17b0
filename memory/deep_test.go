package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Add(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Search(context.Context, string, int, map[string]string) ([]core.SearchResult, error) {
	return nil, errors.New("store down")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("store down")
}

func TestDeepLayer_AddAndGet(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	rec := Record{
		Key:        "arch-decision-1",
		Content:    "services communicate over grpc",
		Tags:       []string{"architecture", "transport"},
		Importance: 0.9,
	}

	if err := l.Add(fc, rec); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	got, err := l.Get(fc, "arch-decision-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Content != rec.Content || got[0].Importance != 0.9 {
		t.Fatalf("round trip mismatch: %#v", got[0])
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp: %#v", got[0])
	}
}

func TestDeepLayer_MissingKey(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	got, err := l.Get(fc, "absent")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
}

func TestDeepLayer_RequiresKey(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	err := l.Add(fc, Record{Content: "keyless"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeepLayer_ImportanceBounds(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	for _, importance := range []float64{-0.1, 1.1} {
		err := l.Add(fc, Record{Key: "k", Importance: importance})
		if !errors.Is(err, core.ErrValidation) {
			t.Fatalf("importance %v: expected validation error, got %v", importance, err)
		}
	}

	// the boundaries themselves are legal
	for i, importance := range []float64{0, 1} {
		if err := l.Add(fc, Record{Key: "k", Importance: importance}); err != nil {
			t.Fatalf("boundary %d: unexpected error %v", i, err)
		}
	}
}

func TestDeepLayer_SearchRanking(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	records := []Record{
		{Key: "minor", Content: "grpc timeout tuning note", Importance: 0.1},
		{Key: "major", Content: "grpc is the standard transport", Importance: 0.9},
		{Key: "unrelated", Content: "rotate the signing keys quarterly", Importance: 0.9},
	}
	for _, rec := range records {
		if err := l.Add(fc, rec); err != nil {
			t.Fatalf("add %s failed: %v", rec.Key, err)
		}
	}

	hits, err := l.Search(fc, Query{Text: "grpc"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 matches, got %d: %#v", len(hits), hits)
	}

	// equal keyword coverage ranks by importance
	if hits[0].Record.Key != "major" || hits[1].Record.Key != "minor" {
		t.Fatalf("unexpected ranking: %s before %s", hits[0].Record.Key, hits[1].Record.Key)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("expected descending scores, got %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestDeepLayer_SearchMultiWord(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	_ = l.Add(fc, Record{Key: "a", Content: "retry with exponential backoff"})
	_ = l.Add(fc, Record{Key: "b", Content: "retry budgets cap the attempts"})

	hits, err := l.Search(fc, Query{Text: "retry backoff"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both records matching any term, got %d", len(hits))
	}

	// full coverage outranks partial coverage
	if hits[0].Record.Key != "a" {
		t.Fatalf("expected the record covering both terms first, got %s", hits[0].Record.Key)
	}
}

func TestDeepLayer_SearchTagFilter(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	_ = l.Add(fc, Record{Key: "a", Content: "postgres runs the ledger", Tags: []string{"storage", "prod"}})
	_ = l.Add(fc, Record{Key: "b", Content: "postgres also backs staging", Tags: []string{"storage"}})

	hits, err := l.Search(fc, Query{Text: "postgres", Tags: []string{"storage", "prod"}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Record.Key != "a" {
		t.Fatalf("expected only the fully tagged record, got %#v", hits)
	}
}

func TestDeepLayer_SearchEmptyTextBrowsesByImportance(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	_ = l.Add(fc, Record{Key: "low", Content: "x", Importance: 0.2})
	_ = l.Add(fc, Record{Key: "high", Content: "y", Importance: 0.8})

	hits, err := l.Search(fc, Query{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 2 || hits[0].Record.Key != "high" {
		t.Fatalf("expected browse ranked by importance, got %#v", hits)
	}
}

func TestDeepLayer_CorruptEntryIsAbsent(t *testing.T) {
	store := NewInMemoryStore()
	l := NewDeepLayer(store, nil)
	fc := core.Background()

	if err := store.Add(context.Background(), deepPrefix+"broken", []byte("{not json"), 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := l.Get(fc, "broken")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected corrupt entry treated as absent, got %#v", got)
	}
}

func TestDeepLayer_Remove(t *testing.T) {
	l := NewDeepLayer(nil, nil)
	fc := core.Background()

	_ = l.Add(fc, Record{Key: "k", Content: "v"})

	if err := l.Remove(fc, "k"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	got, _ := l.Get(fc, "k")
	if len(got) != 0 {
		t.Fatalf("entry survived removal: %#v", got)
	}
}

func TestDeepLayer_StoreErrorsWrapped(t *testing.T) {
	l := NewDeepLayer(failingStore{}, nil)
	fc := core.Background()

	if err := l.Add(fc, Record{Key: "k"}); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("add: expected store unavailable, got %v", err)
	}
	if _, err := l.Get(fc, "k"); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("get: expected store unavailable, got %v", err)
	}
	if _, err := l.Search(fc, Query{Text: "x"}); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("search: expected store unavailable, got %v", err)
	}
	if err := l.Remove(fc, "k"); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("remove: expected store unavailable, got %v", err)
	}
}
