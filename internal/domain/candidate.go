package domain

// Candidate is a raw document pulled from the external source,
// not yet embedded or stored.
type Candidate struct {
	Title   string
	Content string
}
