// Package types contains common types used across the application
package types

// RankedEntry represents one row of a ranking response.
// PrevRank is nil when the note did not qualify in the previous window.
type RankedEntry struct {
	Rank        int     `json:"rank"`
	PrevRank    *int    `json:"prev_rank"`
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Subject     string  `json:"subject"`
	AuthorName  string  `json:"author_name"`
	Score       float64 `json:"score"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
	Downloads   int64   `json:"downloads"`
}

// RatingSummary is the recomputed aggregate returned after a vote.
type RatingSummary struct {
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}
