package situation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/bensonmaxai/TradingAgents/pkg/embedding"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

// vectorScoresLocked returns cosine similarity of the query against every
// corpus entry, positionally aligned with corpus. The second return is
// false whenever embeddings could not be obtained; callers then fall back
// to lexical-only scoring.
//
// The corpus cache is only re-embedded when stale, and the whole corpus
// goes to the backend in one batch call. A failed rebuild leaves the cache
// stale so the next retrieval retries.
func (s *Store) vectorScoresLocked(ctx context.Context, query string, corpus []entry) ([]float64, bool) {
	if s.embedder == nil {
		return nil, false
	}

	if s.state == cacheDirty {
		if err := s.rebuildCacheLocked(ctx, corpus); err != nil {
			log.DebugContext(ctx, "Corpus embedding unavailable, lexical-only scoring",
				"memory", s.name, "error", err)
			s.cache = nil
			return nil, false
		}
		s.state = cacheClean
	}

	if s.cache == nil || s.cache.Count() != len(corpus) {
		return nil, false
	}

	queryVecs, err := s.embedder.Embed(ctx, []string{embedding.Truncate(query)})
	if err != nil || len(queryVecs) != 1 {
		log.DebugContext(ctx, "Query embedding unavailable, lexical-only scoring",
			"memory", s.name, "error", err)
		return nil, false
	}

	results, err := s.cache.QueryEmbedding(ctx, queryVecs[0], s.cache.Count(), nil, nil)
	if err != nil {
		log.DebugContext(ctx, "Vector query failed, lexical-only scoring",
			"memory", s.name, "error", err)
		return nil, false
	}

	scores := make([]float64, len(corpus))
	for _, r := range results {
		idx, err := strconv.Atoi(r.ID)
		if err != nil || idx < 0 || idx >= len(corpus) {
			continue
		}
		scores[idx] = float64(r.Similarity)
	}
	return scores, true
}

// rebuildCacheLocked re-embeds the whole corpus and swaps in a fresh
// collection. Document IDs are corpus positions, which is what lets query
// results map back onto score vector slots.
func (s *Store) rebuildCacheLocked(ctx context.Context, corpus []entry) error {
	texts := make([]string, len(corpus))
	for i, e := range corpus {
		texts[i] = embedding.Truncate(e.situation)
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(corpus) {
		return fmt.Errorf("got %d embeddings for %d situations", len(vecs), len(corpus))
	}

	if s.vectors == nil {
		s.vectors = chromem.NewDB()
	}
	_ = s.vectors.DeleteCollection(s.name)
	collection, err := s.vectors.CreateCollection(s.name, nil, nil)
	if err != nil {
		return err
	}

	if len(corpus) > 0 {
		docs := make([]chromem.Document, len(corpus))
		for i := range corpus {
			docs[i] = chromem.Document{
				ID:        strconv.Itoa(i),
				Content:   texts[i],
				Embedding: vecs[i],
			}
		}
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			return err
		}
	}

	s.cache = collection

	log.DebugContext(ctx, "Rebuilt embedding cache",
		"memory", s.name, "documents", len(corpus))

	return nil
}
