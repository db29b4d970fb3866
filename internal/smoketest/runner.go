package smoketest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apuntia/apuntia/pkg/logger"
)

// Run executes the complete smoke test against a running service.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting smoke test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("notes", cfg.NumNotes),
		logger.Int("voters", cfg.Voters),
		logger.Int("workers", cfg.Workers),
	)

	c := newClient(cfg)

	if err := c.checkHealth(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	noteIDs, err := seedNotes(ctx, cfg, c, stats)
	if err != nil {
		return fmt.Errorf("note seeding failed: %w", err)
	}

	submitVotes(ctx, cfg, c, generateVotes(cfg, noteIDs), stats)
	recordDownloads(ctx, cfg, c, noteIDs, stats)

	for _, metric := range []string{"rating", "downloads"} {
		entries, err := c.ranking(ctx, metric, cfg.Days, cfg.Limit)
		if err != nil {
			return fmt.Errorf("ranking retrieval failed: %w", err)
		}
		stats.RankedEntries += len(entries)
		if err := verifyRanking(metric, entries, cfg.Limit); err != nil {
			return fmt.Errorf("ranking verification failed: %w", err)
		}
		log.Info(ctx, "ranking verified",
			logger.String("metric", metric),
			logger.Int("entries", len(entries)),
		)
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "smoke test passed",
		logger.Int("notesCreated", stats.NotesCreated),
		logger.Int("votesSubmitted", stats.VotesSubmitted),
		logger.Int("votesFailed", stats.VotesFailed),
		logger.Int("downloads", stats.Downloads),
		logger.Int("rankedEntries", stats.RankedEntries),
		logger.Any("duration", stats.Duration),
	)
	return nil
}

// seedNotes creates the generated notes and returns the ids of those the
// service accepted as published.
func seedNotes(ctx context.Context, cfg *Config, c *client, stats *Stats) ([]string, error) {
	ids := make([]string, 0, cfg.NumNotes)
	for _, n := range generateNotes(cfg) {
		created, err := c.createNote(ctx, n)
		if err != nil {
			return nil, err
		}
		stats.NotesCreated++
		if created.State == "published" {
			ids = append(ids, created.ID)
		}
		if cfg.Verbose {
			logger.Get().Debug(ctx, "seeded note",
				logger.String("id", created.ID),
				logger.String("subject", created.Subject),
			)
		}
	}
	return ids, nil
}

// submitVotes fans the votes out over a worker pool. Individual failures are
// counted, not fatal; the verification step works on whatever landed.
func submitVotes(ctx context.Context, cfg *Config, c *client, votes []vote, stats *Stats) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan vote)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range work {
				err := c.rateNote(ctx, v)
				mu.Lock()
				if err != nil {
					stats.VotesFailed++
				} else {
					stats.VotesSubmitted++
				}
				mu.Unlock()
			}
		}()
	}

	for _, v := range votes {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return
		case work <- v:
		}
	}
	close(work)
	wg.Wait()
}

// recordDownloads gives a random subset of notes some download traffic so
// the downloads ranking has signal.
func recordDownloads(ctx context.Context, cfg *Config, c *client, noteIDs []string, stats *Stats) {
	for _, id := range noteIDs {
		for n := randomInt(5); n > 0; n-- {
			if err := c.download(ctx, id); err != nil {
				logger.Get().Warn(ctx, "download failed", logger.String("id", id), logger.Error(err))
				continue
			}
			stats.Downloads++
		}
	}
}
