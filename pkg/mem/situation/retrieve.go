package situation

import (
	"context"
	"sort"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

// Recency boost multipliers, tiered by how old a dated entry is relative to
// the query's reference date. Pinned playbook entries always get the top
// multiplier.
const (
	pinnedBoost    = 4.0
	recentBoost    = 3.0
	midTermBoost   = 2.0
	recentAgeDays  = 7
	midTermAgeDays = 30
)

// Retrieve returns up to k lessons most relevant to the current situation,
// best first. Ties keep insertion order, so on a fresh store with equal
// scores pinned entries surface before regular ones. An empty corpus yields
// no matches and no error. Embedding failures degrade silently to
// lexical-only scoring.
func (s *Store) Retrieve(ctx context.Context, current string, k int, opts QueryOptions) ([]Match, error) {
	if k <= 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput,
			"match count must be positive, got %d", k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	corpus := s.corpusLocked()
	if len(corpus) == 0 || s.index == nil {
		return nil, nil
	}

	scores := s.index.scores(Tokenize(current))

	if s.hybrid {
		if vector, ok := s.vectorScoresLocked(ctx, current, corpus); ok {
			fuseScores(scores, vector, s.alpha)
		}
	}

	if !opts.ReferenceDate.IsZero() {
		applyRecencyBoosts(scores, corpus, opts.ReferenceDate)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if k > len(order) {
		k = len(order)
	}

	// Normalize against the best score over the whole corpus, not just the
	// returned window, so scores stay comparable across different k.
	best := 0.0
	for _, sc := range scores {
		if sc > best {
			best = sc
		}
	}

	matches := make([]Match, 0, k)
	for _, idx := range order[:k] {
		score := 0.0
		if best > 0 {
			score = scores[idx] / best
		}
		matches = append(matches, Match{
			MatchedSituation: corpus[idx].situation,
			Recommendation:   corpus[idx].recommendation,
			SimilarityScore:  score,
		})
	}

	log.DebugContext(ctx, "Retrieved situations",
		"memory", s.name, "requested", k, "returned", len(matches))

	return matches, nil
}

// fuseScores blends the lexical and vector score vectors in place. Each is
// normalized within the batch first: lexical by its maximum, vector by
// min-max. Degenerate batches (all-zero lexical, constant vector) contribute
// zero rather than dividing by zero.
func fuseScores(lexical, vector []float64, alpha float64) {
	maxLex := 0.0
	for _, v := range lexical {
		if v > maxLex {
			maxLex = v
		}
	}

	minVec, maxVec := vector[0], vector[0]
	for _, v := range vector[1:] {
		if v < minVec {
			minVec = v
		}
		if v > maxVec {
			maxVec = v
		}
	}

	for i := range lexical {
		lex := 0.0
		if maxLex > 0 {
			lex = lexical[i] / maxLex
		}
		vec := 0.0
		if maxVec > minVec {
			vec = (vector[i] - minVec) / (maxVec - minVec)
		}
		lexical[i] = alpha*lex + (1-alpha)*vec
	}
}

// applyRecencyBoosts scales scores by tier: pinned entries quadruple, dated
// entries triple within a week of the reference date and double within a
// month. Undated regular entries keep their base score.
func applyRecencyBoosts(scores []float64, corpus []entry, reference time.Time) {
	for i, e := range corpus {
		switch {
		case e.pinned:
			scores[i] *= pinnedBoost
		case e.hasDate:
			age := ageInDays(reference, e.date)
			if age <= recentAgeDays {
				scores[i] *= recentBoost
			} else if age <= midTermAgeDays {
				scores[i] *= midTermBoost
			}
		}
	}
}
