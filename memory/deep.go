package memory

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hupe1980/flowkit/core"
)

// deepPrefix namespaces deep layer entries inside a shared store.
const deepPrefix = "deep:"

// DeepLayer is the durable memory layer: keyed entries carrying content,
// tags, and an importance weight, searchable by keyword and tag and ranked
// by a pluggable relevance function. It persists through any core.Store,
// defaulting to the in-process one, so a SQLite or Redis store can be
// substituted without changing callers.
type DeepLayer struct {
	store  core.Store
	codec  core.Codec[Record]
	ranker Ranker

	now func() time.Time
}

// NewDeepLayer creates a deep layer persisting into store. A nil store
// falls back to a fresh in-process store; a nil ranker falls back to
// keyword matching.
func NewDeepLayer(store core.Store, ranker Ranker) *DeepLayer {
	if store == nil {
		store = NewInMemoryStore()
	}

	if ranker == nil {
		ranker = KeywordRanker{}
	}

	return &DeepLayer{
		store:  store,
		codec:  core.JSONCodec[Record]{},
		ranker: ranker,
		now:    time.Now,
	}
}

// Add stores an entry under its key, replacing any previous entry. The
// record must carry a key, and its importance must lie in [0, 1].
func (l *DeepLayer) Add(fc *core.Context, rec Record) error {
	if rec.Key == "" {
		return &core.ValidationError{Field: "key", Reason: "deep records require a key"}
	}

	if rec.Importance < 0 || rec.Importance > 1 {
		return &core.ValidationError{Field: "importance", Reason: "importance must lie between 0 and 1"}
	}

	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now().UTC()
	}

	data, err := l.codec.Encode(rec)
	if err != nil {
		return err
	}

	if err := l.store.Add(fc.Context, deepPrefix+rec.Key, data, 0); err != nil {
		return &core.StoreUnavailableError{Op: "memory add", Err: err}
	}

	fc.LogDebug("deep memory stored", "key", rec.Key, "tags", strings.Join(rec.Tags, ","))

	return nil
}

// Get returns the entry stored under key, or an empty slice when absent.
func (l *DeepLayer) Get(fc *core.Context, key string) ([]Record, error) {
	data, ok, err := l.store.Get(fc.Context, deepPrefix+key)
	if err != nil {
		return nil, &core.StoreUnavailableError{Op: "memory get", Err: err}
	}

	if !ok {
		return []Record{}, nil
	}

	rec, err := l.codec.Decode(data)
	if err != nil {
		// An undecodable entry is unusable; treat it as absent rather
		// than failing every read that touches it.
		fc.LogWarn("deep memory entry is corrupt, treating as absent", "key", key, "error", err)

		return []Record{}, nil
	}

	return []Record{rec}, nil
}

// Search returns entries relevant to the query, most relevant first. The
// store supplies a candidate set by substring match; candidates are then
// filtered to records carrying every queried tag and ranked in-process by
// the layer's relevance function. Entries the ranker scores at zero are
// omitted.
func (l *DeepLayer) Search(fc *core.Context, q Query) ([]Scored, error) {
	k := q.K
	if k <= 0 {
		k = defaultSearchK
	}

	candidates, err := l.candidates(fc, q, k)
	if err != nil {
		return nil, err
	}

	results := make([]Scored, 0, len(candidates))

	for _, rec := range candidates {
		if !hasAllTags(rec.Tags, q.Tags) {
			continue
		}

		score := l.ranker.Score(q, rec)
		if score <= 0 {
			continue
		}

		results = append(results, Scored{Record: rec, Score: score})
	}

	sortScored(results)

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Validate is vacuous for the deep layer. Part of the Layer interface.
func (l *DeepLayer) Validate(_ *core.Context, key string, actual any) Report {
	return Report{
		Key:     key,
		IsValid: true,
		Actual:  actual,
		Message: "deep layer holds no facts to validate against",
	}
}

// Remove deletes the entry stored under key.
func (l *DeepLayer) Remove(fc *core.Context, key string) error {
	if err := l.store.Delete(fc.Context, deepPrefix+key); err != nil {
		return &core.StoreUnavailableError{Op: "memory delete", Err: err}
	}

	return nil
}

// candidates queries the store once per distinct term so entries matching
// any word of a multi-word query are considered, not only entries
// containing the full phrase.
func (l *DeepLayer) candidates(fc *core.Context, q Query, k int) ([]Record, error) {
	limit := k * 4
	if limit < 32 {
		limit = 32
	}

	seeds := []string{q.Text}
	for _, word := range strings.Fields(q.Text) {
		if word != q.Text {
			seeds = append(seeds, word)
		}
	}

	seen := make(map[string]struct{})

	var records []Record

	for _, seed := range seeds {
		hits, err := l.store.Search(fc.Context, seed, limit, q.Filters)
		if err != nil {
			return nil, &core.StoreUnavailableError{Op: "memory search", Err: err}
		}

		for _, hit := range hits {
			if !strings.HasPrefix(hit.Key, deepPrefix) {
				continue
			}

			if _, dup := seen[hit.Key]; dup {
				continue
			}

			seen[hit.Key] = struct{}{}

			rec, err := l.codec.Decode(hit.Value)
			if err != nil {
				continue
			}

			records = append(records, rec)
		}
	}

	return records, nil
}

func hasAllTags(have, want []string) bool {
	for _, tag := range want {
		found := false

		for _, h := range have {
			if h == tag {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}
