// Package result holds the ranked search result value object.
package result

// Result is a single ranked search hit.
type Result struct {
	title      string
	similarity float64
}

// New creates a Result.
func New(title string, similarity float64) Result {
	return Result{title: title, similarity: similarity}
}

// Title returns the matched document title.
func (r *Result) Title() string { return r.title }

// Similarity returns the cosine similarity in [-1, 1].
func (r *Result) Similarity() float64 { return r.similarity }
