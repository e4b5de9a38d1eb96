package situation

import "math"

// Okapi BM25 parameters. The epsilon floor keeps very common terms from
// contributing negative weights on small corpora.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// bm25Index ranks documents by term-overlap relevance, rewarding rare
// discriminating terms and saturating term-frequency contribution with
// document-length normalization against the average corpus length.
type bm25Index struct {
	corpusSize int
	avgDocLen  float64
	docLens    []int
	termFreqs  []map[string]int
	idf        map[string]float64
}

// newBM25Index builds an index over the tokenized corpus. Rebuilding is
// O(corpus), which is acceptable here: corpora are tens of documents.
func newBM25Index(corpus [][]string) *bm25Index {
	idx := &bm25Index{
		corpusSize: len(corpus),
		docLens:    make([]int, len(corpus)),
		termFreqs:  make([]map[string]int, len(corpus)),
	}

	totalLen := 0
	docFreq := make(map[string]int)
	for i, doc := range corpus {
		idx.docLens[i] = len(doc)
		totalLen += len(doc)

		freqs := make(map[string]int, len(doc))
		for _, term := range doc {
			freqs[term]++
		}
		idx.termFreqs[i] = freqs

		for term := range freqs {
			docFreq[term]++
		}
	}
	if idx.corpusSize > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.corpusSize)
	}

	// Inverse document frequency with the Okapi floor: terms appearing in
	// more than half the corpus would get a negative weight, so they are
	// clamped to a small positive fraction of the mean IDF magnitude. The
	// magnitude matters: on single-topic corpora every query term is common
	// and the mean itself goes negative, and a negative floor would let the
	// pinned and recency multipliers invert the tier order.
	idx.idf = make(map[string]float64, len(docFreq))
	idfSum := 0.0
	var negative []string
	n := float64(idx.corpusSize)
	for term, freq := range docFreq {
		f := float64(freq)
		w := math.Log((n - f + 0.5) / (f + 0.5))
		idx.idf[term] = w
		idfSum += w
		if w < 0 {
			negative = append(negative, term)
		}
	}
	if len(docFreq) > 0 {
		floor := bm25Epsilon * math.Abs(idfSum) / float64(len(docFreq))
		for _, term := range negative {
			idx.idf[term] = floor
		}
	}

	return idx
}

// scores returns one relevance score per corpus document, positionally
// aligned with the build order. Higher is more relevant; there is no fixed
// range.
func (idx *bm25Index) scores(query []string) []float64 {
	out := make([]float64, idx.corpusSize)
	if idx.avgDocLen == 0 {
		return out
	}

	for _, term := range query {
		weight, ok := idx.idf[term]
		if !ok {
			continue
		}
		for i := 0; i < idx.corpusSize; i++ {
			freq := float64(idx.termFreqs[i][term])
			if freq == 0 {
				continue
			}
			lenNorm := 1 - bm25B + bm25B*float64(idx.docLens[i])/idx.avgDocLen
			out[i] += weight * freq * (bm25K1 + 1) / (freq + bm25K1*lenNorm)
		}
	}
	return out
}
