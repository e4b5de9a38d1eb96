// Package situation implements the tiered recall memory each debate role
// keeps over past trading situations. A store holds (situation,
// recommendation) pairs in two tiers: a bounded regular tier fed by
// reflection after each decision, and a pinned playbook tier that survives
// eviction and clearing. Retrieval ranks the corpus lexically with BM25,
// optionally fuses in embedding similarity, and applies recency boosts
// relative to a reference trading date.
package situation

import (
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/bensonmaxai/TradingAgents/pkg/embedding"
	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

const (
	// DefaultMaxDocuments caps the regular tier unless configured otherwise.
	DefaultMaxDocuments = 50

	// DefaultHybridAlpha is the lexical weight in hybrid score fusion.
	DefaultHybridAlpha = 0.7
)

// Config holds the configuration for a situation memory store.
type Config struct {
	// Name identifies the store in logs and names its vector cache.
	Name string

	// MaxDocuments caps the regular tier; oldest entries are evicted first.
	// Zero means unbounded. Pinned entries never count against the cap.
	MaxDocuments int

	// HybridSearch enables embedding-based score fusion on retrieval.
	HybridSearch bool

	// HybridAlpha weights the lexical score in fusion; the embedding score
	// gets the remainder. Must stay in (0, 1); zero selects the default.
	HybridAlpha float64
}

// Pair is one remembered lesson: the market situation that was faced and
// the recommendation that, in hindsight, should have been followed.
type Pair struct {
	Situation      string
	Recommendation string
}

// Match is one retrieval result. SimilarityScore is normalized against the
// best score across the whole corpus, so the top match of a well-matched
// query scores 1.0.
type Match struct {
	MatchedSituation string
	Recommendation   string
	SimilarityScore  float64
}

// QueryOptions tunes a single Retrieve call.
type QueryOptions struct {
	// ReferenceDate anchors recency boosts: dated entries within a week of
	// it score triple, within a month double, and pinned entries quadruple
	// unconditionally. The zero value disables time weighting entirely.
	ReferenceDate time.Time
}

type cacheState int

const (
	cacheDirty cacheState = iota
	cacheClean
)

type entry struct {
	situation      string
	recommendation string
	pinned         bool
	date           time.Time
	hasDate        bool
}

func newEntry(p Pair, pinned bool) entry {
	e := entry{
		situation:      p.Situation,
		recommendation: p.Recommendation,
		pinned:         pinned,
	}
	e.date, e.hasDate = extractDate(p.Situation)
	return e
}

// Store is a tiered situation memory. All methods are safe for concurrent
// use; mutations and retrievals serialize on a single lock.
type Store struct {
	name         string
	maxDocuments int
	hybrid       bool
	alpha        float64
	embedder     embedding.Embedder

	mu      sync.Mutex
	pinned  []entry
	regular []entry
	index   *bm25Index

	vectors *chromem.DB
	cache   *chromem.Collection
	state   cacheState
}

// NewStore creates a situation memory store. Hybrid search requires an
// embedder; lexical-only stores may pass nil.
func NewStore(cfg Config, embedder embedding.Embedder) (*Store, error) {
	if cfg.Name == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "store name is required")
	}
	if cfg.MaxDocuments < 0 {
		return nil, errors.Wrap(errors.ErrInvalidConfig,
			"max documents must be non-negative, got %d", cfg.MaxDocuments)
	}
	if cfg.HybridAlpha == 0 {
		cfg.HybridAlpha = DefaultHybridAlpha
	}
	if cfg.HybridAlpha <= 0 || cfg.HybridAlpha >= 1 {
		return nil, errors.Wrap(errors.ErrInvalidConfig,
			"hybrid alpha must be in (0, 1), got %g", cfg.HybridAlpha)
	}
	if cfg.HybridSearch && embedder == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig,
			"hybrid search requires an embedder")
	}

	s := &Store{
		name:         cfg.Name,
		maxDocuments: cfg.MaxDocuments,
		hybrid:       cfg.HybridSearch,
		alpha:        cfg.HybridAlpha,
		embedder:     embedder,
		state:        cacheDirty,
	}
	if cfg.HybridSearch {
		s.vectors = chromem.NewDB()
	}

	log.Debug("Situation memory initialized",
		"memory", s.name,
		"max_documents", s.maxDocuments,
		"hybrid", s.hybrid)

	return s, nil
}

// Name returns the store's configured name.
func (s *Store) Name() string {
	return s.name
}

// Len reports the current number of pinned and regular entries.
func (s *Store) Len() (pinned, regular int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pinned), len(s.regular)
}

// AddSituations appends lessons to the regular tier, evicting the oldest
// regular entries beyond the configured cap. Adding nothing is a no-op.
func (s *Store) AddSituations(pairs []Pair) {
	if len(pairs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		s.regular = append(s.regular, newEntry(p, false))
	}
	if s.maxDocuments > 0 && len(s.regular) > s.maxDocuments {
		excess := len(s.regular) - s.maxDocuments
		s.regular = append([]entry(nil), s.regular[excess:]...)
		log.Debug("Evicted oldest situations",
			"memory", s.name, "evicted", excess, "remaining", len(s.regular))
	}

	s.rebuildLocked()
}

// SetPlaybook replaces the pinned tier wholesale. Pinned entries are never
// evicted and always receive the maximum recency boost.
func (s *Store) SetPlaybook(pairs []Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pinned = make([]entry, 0, len(pairs))
	for _, p := range pairs {
		s.pinned = append(s.pinned, newEntry(p, true))
	}

	s.rebuildLocked()
}

// Clear drops the regular tier, and the pinned tier too when includePinned
// is set.
func (s *Store) Clear(includePinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.regular = nil
	if includePinned {
		s.pinned = nil
	}

	s.rebuildLocked()
}

// corpusLocked returns the retrieval corpus in its canonical order: pinned
// entries first, then regular entries oldest to newest. Score vectors are
// positionally aligned with this slice.
func (s *Store) corpusLocked() []entry {
	corpus := make([]entry, 0, len(s.pinned)+len(s.regular))
	corpus = append(corpus, s.pinned...)
	corpus = append(corpus, s.regular...)
	return corpus
}

// rebuildLocked refreshes the lexical index after any corpus mutation and
// marks the vector cache stale.
func (s *Store) rebuildLocked() {
	corpus := s.corpusLocked()
	if len(corpus) == 0 {
		s.index = nil
	} else {
		tokenized := make([][]string, len(corpus))
		for i, e := range corpus {
			tokenized[i] = Tokenize(e.situation)
		}
		s.index = newBM25Index(tokenized)
	}
	s.state = cacheDirty
}
