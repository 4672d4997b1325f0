package snapshot

import "fmt"

// RefreshResult tracks counts and errors from one refresh run.
type RefreshResult struct {
	GenresDiscovered  int
	GenresRanked      int
	MarketsDiscovered int
	PairsAggregated   int
	PairsFailed       int
	Errors            []string
}

// AddError records an error message.
func (r *RefreshResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *RefreshResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the refresh run.
func (r *RefreshResult) Summary() string {
	return fmt.Sprintf(
		"genres=%d ranked=%d markets=%d pairs=%d failed_pairs=%d errors=%d",
		r.GenresDiscovered, r.GenresRanked, r.MarketsDiscovered,
		r.PairsAggregated, r.PairsFailed, len(r.Errors),
	)
}
