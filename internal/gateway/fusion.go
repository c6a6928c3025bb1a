package gateway

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter.
const DefaultRRFConstant = 60

// RRFFusion merges ranked hit lists with Reciprocal Rank Fusion:
// score(d) = Σ 1 / (k + rank_i(d)), ranks 1-indexed.
type RRFFusion struct {
	K int
}

// NewRRFFusion creates a fusion with k=60.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: DefaultRRFConstant}
}

// Fuse combines lists. Ties break on identity. Metadata comes from the
// first list that returned the document with a source path.
func (f *RRFFusion) Fuse(lists ...[]Hit) []Hit {
	scores := make(map[string]*Hit)
	for _, list := range lists {
		for rank, h := range list {
			cur, ok := scores[h.Identity]
			if !ok {
				cur = &Hit{Identity: h.Identity, Metadata: h.Metadata}
				scores[h.Identity] = cur
			} else if cur.Metadata.SourcePath() == "" {
				cur.Metadata = h.Metadata
			}
			cur.Score += 1 / float64(f.K+rank+1)
		}
	}

	out := make([]Hit, 0, len(scores))
	for _, h := range scores {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Identity < out[j].Identity
	})
	return out
}
