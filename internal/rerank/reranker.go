package rerank

import (
	"context"
	"sort"

	"ragchat/internal/contextutil"
	"ragchat/internal/index"
)

// RankedHit is a retrieval hit with its rerank score. Scored is false when
// the hit passed through unscored, either because no scorer is configured
// or because the scorer failed mid-request.
type RankedHit struct {
	index.RetrievalHit
	RerankScore float64 `json:"rerank_score"`
	Scored      bool    `json:"scored"`
}

// Reranker reorders retrieval hits by cross-encoder relevance. The scorer
// is fixed at construction; a nil scorer makes the reranker a pass-through
// that preserves retrieval order.
type Reranker struct {
	scorer Scorer
}

// New creates a reranker. scorer may be nil.
func New(scorer Scorer) *Reranker {
	return &Reranker{scorer: scorer}
}

// Enabled reports whether a scorer is configured.
func (r *Reranker) Enabled() bool {
	return r.scorer != nil
}

// Rank scores the hits against the query and returns them ordered by rerank
// score descending, truncated to topN. topN <= 0 keeps all hits. A scorer
// failure degrades to pass-through instead of failing the request.
func (r *Reranker) Rank(ctx context.Context, query string, hits []index.RetrievalHit, topN int) []RankedHit {
	logger := contextutil.LoggerFromContext(ctx)

	if len(hits) == 0 {
		return []RankedHit{}
	}

	ranked := make([]RankedHit, len(hits))
	for i, h := range hits {
		ranked[i] = RankedHit{RetrievalHit: h}
	}

	if r.scorer != nil {
		texts := make([]string, len(hits))
		for i, h := range hits {
			texts[i] = h.Text
		}

		scores, err := r.scorer.Score(ctx, query, texts)
		if err != nil || len(scores) != len(hits) {
			logger.WarnContext(ctx, "rerank scoring failed, keeping retrieval order", "hits", len(hits), "error", err)
		} else {
			for i := range ranked {
				ranked[i].RerankScore = scores[i]
				ranked[i].Scored = true
			}
			sort.SliceStable(ranked, func(i, j int) bool {
				return ranked[i].RerankScore > ranked[j].RerankScore
			})
		}
	}

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
