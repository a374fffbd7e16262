package kb

import "context"

// KnowledgeHit is one knowledge-base search result. The score is kept for
// observability only; routing never thresholds on it.
type KnowledgeHit struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
	ImageURL string  `json:"image_url,omitempty"`
	PdfURL   string  `json:"pdf_url,omitempty"`
}

// IsImage reports whether this hit is an image/screenshot result.
func (h KnowledgeHit) IsImage() bool {
	return h.ImageURL != ""
}

// QueryResult is the structured output of a KB search.
// Invariant: HitCount == len(Hits). This is the ground truth the
// enforcer checks the model's KB claims against.
type QueryResult struct {
	HitCount int            `json:"kb_hits_count"`
	Hits     []KnowledgeHit `json:"results"`
}

// IsMiss reports whether the search produced no usable hits.
func (r *QueryResult) IsMiss() bool {
	return r == nil || r.HitCount == 0
}

// Miss returns the empty result used when no search ran this turn or the
// backend failed.
func Miss() *QueryResult {
	return &QueryResult{HitCount: 0, Hits: []KnowledgeHit{}}
}

// Searcher is the knowledge-search collaborator contract.
// Implementations MUST fail closed: any internal error yields an empty
// result, never an error value, so a broken search backend degrades to a
// KB miss instead of crashing the turn.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, image []byte) *QueryResult
}
