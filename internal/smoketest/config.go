// Package smoketest seeds a running service with notes, ratings, and
// downloads over HTTP, then fetches the ranking and checks its invariants.
// It is a developer tool, not part of the service binary.
package smoketest

import "time"

// Config holds configuration for one smoke test run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumNotes int           // Number of notes to seed
	Voters   int           // Number of distinct voter identities
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Days     int           // Ranking window to query
	Limit    int           // Ranking page size to query
	Verbose  bool          // Enable verbose logging
}

// DefaultConfig returns the configuration used when no flags are set.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "http://localhost:9080",
		NumNotes: 50,
		Voters:   200,
		Workers:  8,
		Timeout:  10 * time.Second,
		Days:     7,
		Limit:    30,
	}
}

// seedNote is the wire shape for POST /notes.
type seedNote struct {
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

// noteCreated is the subset of the create response the tool reads back.
type noteCreated struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	State   string `json:"state"`
}

// voteRequest is the wire shape for POST /notes/{id}/rate.
type voteRequest struct {
	Value int `json:"value"`
}

// rankedEntry is the subset of a ranking row the tool verifies.
type rankedEntry struct {
	Rank     int     `json:"rank"`
	PrevRank *int    `json:"prev_rank"`
	ID       string  `json:"id"`
	Score    float64 `json:"score"`
}

// Stats holds the counters reported at the end of a run.
type Stats struct {
	NotesCreated   int
	VotesSubmitted int
	VotesFailed    int
	Downloads      int
	RankedEntries  int
	StartTime      time.Time
	Duration       time.Duration
}
