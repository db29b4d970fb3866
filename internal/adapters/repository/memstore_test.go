package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/apuntia/apuntia/internal/domain/model"
)

func publishedNote(title, subject string) *model.Note {
	return &model.Note{
		Title:      title,
		Subject:    subject,
		Moderation: model.Moderation{State: model.NotePublished},
	}
}

func TestMemStore_NoteLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	n := publishedNote("Resumen SO", "Sistemas Operativos")
	if err := store.CreateNote(ctx, n); err != nil {
		t.Fatalf("create note: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if n.CreatedAt.IsZero() {
		t.Fatal("expected createdAt to be set")
	}

	got, err := store.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Title != "Resumen SO" {
		t.Errorf("unexpected title %q", got.Title)
	}

	if _, err := store.GetNote(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.IncrementViews(ctx, n.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	if err := store.IncrementDownloads(ctx, n.ID); err != nil {
		t.Fatalf("increment downloads: %v", err)
	}
	got, _ = store.GetNote(ctx, n.ID)
	if got.Views != 1 || got.Downloads != 1 {
		t.Errorf("expected counters 1/1, got %d/%d", got.Views, got.Downloads)
	}

	if err := store.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if _, err := store.GetNote(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemStore_RateNoteUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	n := publishedNote("Apunte BD", "Bases de Datos")
	if err := store.CreateNote(ctx, n); err != nil {
		t.Fatalf("create note: %v", err)
	}

	// First vote.
	sum, err := store.RateNote(ctx, n.ID, "user-a", 5)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if sum.Avg != 5 || sum.Count != 1 {
		t.Errorf("expected {5 1}, got %+v", sum)
	}

	// Revote replaces, never duplicates.
	sum, err = store.RateNote(ctx, n.ID, "user-a", 2)
	if err != nil {
		t.Fatalf("revote: %v", err)
	}
	if sum.Avg != 2 || sum.Count != 1 {
		t.Errorf("expected {2 1} after revote, got %+v", sum)
	}

	// Second voter.
	sum, err = store.RateNote(ctx, n.ID, "user-b", 5)
	if err != nil {
		t.Fatalf("second voter: %v", err)
	}
	if sum.Avg != 3.5 || sum.Count != 2 {
		t.Errorf("expected {3.5 2}, got %+v", sum)
	}

	// The aggregate is written back onto the note.
	got, _ := store.GetNote(ctx, n.ID)
	if got.RatingAvg != 3.5 || got.RatingCount != 2 {
		t.Errorf("expected note aggregate {3.5 2}, got {%v %d}", got.RatingAvg, got.RatingCount)
	}

	// Invalid values are rejected with no state change.
	if _, err := store.RateNote(ctx, n.ID, "user-c", 6); err == nil {
		t.Error("expected invalid value error")
	}
	got, _ = store.GetNote(ctx, n.ID)
	if got.RatingCount != 2 {
		t.Errorf("rejected vote must not change count, got %d", got.RatingCount)
	}

	// Unknown notes.
	if _, err := store.RateNote(ctx, "missing", "user-a", 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// UserRating reflects the latest vote.
	r, err := store.UserRating(ctx, n.ID, "user-a")
	if err != nil {
		t.Fatalf("user rating: %v", err)
	}
	if r.Value != 2 {
		t.Errorf("expected latest vote 2, got %d", r.Value)
	}
}

func TestMemStore_RateNoteConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	n := publishedNote("Apunte redes", "Redes de Computadores")
	if err := store.CreateNote(ctx, n); err != nil {
		t.Fatalf("create note: %v", err)
	}

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%02d", i)
			// Every voter votes twice; the second vote must replace the first.
			if _, err := store.RateNote(ctx, n.ID, user, 5); err != nil {
				t.Errorf("vote: %v", err)
			}
			if _, err := store.RateNote(ctx, n.ID, user, 4); err != nil {
				t.Errorf("revote: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := store.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.RatingCount != voters {
		t.Errorf("expected %d votes, got %d", voters, got.RatingCount)
	}
	if got.RatingAvg != 4 {
		t.Errorf("expected final avg 4, got %v", got.RatingAvg)
	}
}

func TestMemStore_ListMetricsPublishedOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	pub := publishedNote("visible", "Bases de Datos")
	if err := store.CreateNote(ctx, pub); err != nil {
		t.Fatal(err)
	}
	hidden := &model.Note{
		Title:      "hidden",
		Subject:    "Bases de Datos",
		Moderation: model.Moderation{State: model.NoteHidden},
	}
	if err := store.CreateNote(ctx, hidden); err != nil {
		t.Fatal(err)
	}
	other := publishedNote("other subject", "Sistemas Operativos")
	if err := store.CreateNote(ctx, other); err != nil {
		t.Fatal(err)
	}

	all, err := store.ListMetrics(ctx, "")
	if err != nil {
		t.Fatalf("list metrics: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 published metrics, got %d", len(all))
	}

	filtered, err := store.ListMetrics(ctx, "Bases de Datos")
	if err != nil {
		t.Fatalf("list metrics: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != pub.ID {
		t.Errorf("expected only the published BD note, got %+v", filtered)
	}
}

func TestMemStore_CommentsAndCascade(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	n := publishedNote("con comentarios", "Diseño de Software")
	if err := store.CreateNote(ctx, n); err != nil {
		t.Fatal(err)
	}

	visible := &model.Comment{NoteID: n.ID, Text: "buen resumen", State: model.CommentVisible}
	pending := &model.Comment{NoteID: n.ID, Text: "en revisión", State: model.CommentPending}
	for _, c := range []*model.Comment{visible, pending} {
		if err := store.AddComment(ctx, c); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}

	// Comment on an unknown note fails.
	if err := store.AddComment(ctx, &model.Comment{NoteID: "missing", Text: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	onlyVisible, err := store.ListComments(ctx, n.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyVisible) != 1 || onlyVisible[0].ID != visible.ID {
		t.Errorf("expected only the visible comment, got %+v", onlyVisible)
	}

	everything, err := store.ListComments(ctx, n.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(everything) != 2 {
		t.Errorf("expected 2 comments, got %d", len(everything))
	}

	if err := store.SetCommentState(ctx, pending.ID, model.CommentVisible); err != nil {
		t.Fatalf("set comment state: %v", err)
	}
	onlyVisible, _ = store.ListComments(ctx, n.ID, true)
	if len(onlyVisible) != 2 {
		t.Errorf("expected 2 visible comments after approval, got %d", len(onlyVisible))
	}

	// Deleting the note cascades its comments and ratings.
	if _, err := store.RateNote(ctx, n.ID, "u1", 4); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetComment(ctx, visible.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected comment cascade, got %v", err)
	}
	if _, err := store.UserRating(ctx, n.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected rating cascade, got %v", err)
	}
}

func TestMemStore_Reports(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	r := &model.Report{TargetType: model.TargetNote, TargetID: "n1", Reason: "spam"}
	if err := store.AddReport(ctx, r); err != nil {
		t.Fatalf("add report: %v", err)
	}
	if r.Status != model.ReportOpen {
		t.Errorf("new reports must open, got %s", r.Status)
	}

	open, err := store.ListOpenReports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open report, got %d", len(open))
	}

	if err := store.ResolveReport(ctx, r.ID, model.ReportReviewed); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := store.ResolveReport(ctx, r.ID, model.ReportDismissed); !errors.Is(err, ErrReportResolved) {
		t.Errorf("expected ErrReportResolved on double resolve, got %v", err)
	}
	if err := store.ResolveReport(ctx, "missing", model.ReportReviewed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	open, _ = store.ListOpenReports(ctx)
	if len(open) != 0 {
		t.Errorf("expected no open reports, got %d", len(open))
	}
}

func TestMemStore_ListNotesOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store := NewMemStore(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	for i := 0; i < 5; i++ {
		n := publishedNote(fmt.Sprintf("nota %d", i), "Bases de Datos")
		n.AuthorEmail = "a@uai.cl"
		if err := store.CreateNote(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	notes, err := store.ListNotes(ctx, NoteFilter{Subject: "Bases de Datos", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected limit 3, got %d", len(notes))
	}
	for i := 1; i < len(notes); i++ {
		if notes[i].CreatedAt.After(notes[i-1].CreatedAt) {
			t.Error("expected newest-first ordering")
		}
	}

	byAuthor, err := store.ListNotes(ctx, NoteFilter{AuthorEmail: "nobody@uai.cl"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byAuthor) != 0 {
		t.Errorf("expected no notes for unknown author, got %d", len(byAuthor))
	}
}
