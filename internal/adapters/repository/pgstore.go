package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/apuntia/apuntia/internal/domain/model"
	"github.com/apuntia/apuntia/internal/domain/rating"
	"github.com/apuntia/apuntia/pkg/metrics"
)

// PGStore is the Postgres-backed Store implementation. RateNote takes a
// FOR UPDATE lock on the note row at the top of its transaction, so the
// vote upsert, aggregate recompute, and write-back all happen inside the
// per-note critical section; concurrent raters block until commit.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects to Postgres and ensures the schema exists.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PGStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	topic         TEXT NOT NULL DEFAULT '',
	semester      TEXT NOT NULL DEFAULT '',
	tags          TEXT[] NOT NULL DEFAULT '{}',
	author_name   TEXT NOT NULL DEFAULT '',
	author_email  TEXT NOT NULL DEFAULT '',
	file_url      TEXT NOT NULL DEFAULT '',
	file_type     TEXT NOT NULL DEFAULT '',
	file_size     BIGINT NOT NULL DEFAULT 0,
	views         BIGINT NOT NULL DEFAULT 0,
	downloads     BIGINT NOT NULL DEFAULT 0,
	rating_avg    DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_count  INTEGER NOT NULL DEFAULT 0,
	mod_state     TEXT NOT NULL DEFAULT 'published',
	mod_reason    TEXT NOT NULL DEFAULT '',
	mod_decided_by TEXT NOT NULL DEFAULT '',
	mod_decided_at TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notes_subject_idx ON notes (subject);
CREATE INDEX IF NOT EXISTS notes_state_idx ON notes (mod_state);

CREATE TABLE IF NOT EXISTS ratings (
	note_id    TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	value      INTEGER NOT NULL CHECK (value BETWEEN 1 AND 5),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (note_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id          TEXT PRIMARY KEY,
	note_id     TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	author_name TEXT NOT NULL DEFAULT '',
	author_email TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL,
	state       TEXT NOT NULL DEFAULT 'visible',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS comments_note_idx ON comments (note_id);

CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	target_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	reason      TEXT NOT NULL,
	by_name     TEXT NOT NULL DEFAULT '',
	by_email    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'open',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

const noteColumns = `id, title, description, subject, topic, semester, tags,
	author_name, author_email, file_url, file_type, file_size,
	views, downloads, rating_avg, rating_count,
	mod_state, mod_reason, mod_decided_by, mod_decided_at,
	created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (model.Note, error) {
	var n model.Note
	var tags pq.StringArray
	var decidedAt sql.NullTime
	var state string
	err := row.Scan(
		&n.ID, &n.Title, &n.Description, &n.Subject, &n.Topic, &n.Semester, &tags,
		&n.AuthorName, &n.AuthorEmail, &n.FileURL, &n.FileType, &n.FileSize,
		&n.Views, &n.Downloads, &n.RatingAvg, &n.RatingCount,
		&state, &n.Moderation.Reason, &n.Moderation.DecidedBy, &decidedAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("scan note: %w", err)
	}
	n.Tags = []string(tags)
	n.Moderation.State = model.NoteState(state)
	if decidedAt.Valid {
		n.Moderation.DecidedAt = decidedAt.Time
	}
	return n, nil
}

// CreateNote persists a new note, assigning ID and timestamps.
func (s *PGStore) CreateNote(ctx context.Context, n *model.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, description, subject, topic, semester, tags,
			author_name, author_email, file_url, file_type, file_size,
			mod_state, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)`,
		n.ID, n.Title, n.Description, n.Subject, n.Topic, n.Semester, pq.Array(n.Tags),
		n.AuthorName, n.AuthorEmail, n.FileURL, n.FileType, n.FileSize,
		string(n.Moderation.State), now,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	metrics.RecordNoteCreated()
	return nil
}

// GetNote fetches one note by id.
func (s *PGStore) GetNote(ctx context.Context, id string) (model.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	return scanNote(row)
}

// ListNotes returns notes matching the filter, newest first.
func (s *PGStore) ListNotes(ctx context.Context, f NoteFilter) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE 1=1`
	args := []any{}
	if f.Subject != "" {
		args = append(args, f.Subject)
		query += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	if f.State != "" {
		args = append(args, string(f.State))
		query += fmt.Sprintf(" AND mod_state = $%d", len(args))
	}
	if f.AuthorEmail != "" {
		args = append(args, f.AuthorEmail)
		query += fmt.Sprintf(" AND author_email = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	var out []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

// DeleteNote removes the note; ratings and comments cascade via FK.
func (s *PGStore) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return affectedOrNotFound(res)
}

// IncrementViews bumps the view counter.
func (s *PGStore) IncrementViews(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notes SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return affectedOrNotFound(res)
}

// IncrementDownloads bumps the download counter.
func (s *PGStore) IncrementDownloads(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notes SET downloads = downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return err
	}
	metrics.RecordNoteDownload()
	return nil
}

// RateNote upserts the vote and recomputes the aggregate in one transaction.
func (s *PGStore) RateNote(ctx context.Context, noteID, userID string, value int) (rating.Summary, error) {
	if err := rating.ValidateValue(value); err != nil {
		return rating.Summary{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rating.Summary{}, fmt.Errorf("begin rate tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// Lock the note row before touching the ratings so concurrent raters
	// serialize around the whole upsert-recompute-writeback sequence, not
	// just the final UPDATE. Without the lock two raters can each compute
	// an aggregate that misses the other's uncommitted vote.
	var one int
	if err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM notes WHERE id = $1 FOR UPDATE`, noteID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rating.Summary{}, ErrNotFound
		}
		return rating.Summary{}, fmt.Errorf("lock note: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ratings (note_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (note_id, user_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		noteID, userID, value); err != nil {
		return rating.Summary{}, fmt.Errorf("upsert rating: %w", err)
	}

	var summary rating.Summary
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(ROUND(AVG(value)::numeric, 2), 0), COUNT(*)
		FROM ratings WHERE note_id = $1`, noteID).Scan(&summary.Avg, &summary.Count); err != nil {
		return rating.Summary{}, fmt.Errorf("aggregate ratings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE notes SET rating_avg = $2, rating_count = $3, updated_at = now()
		WHERE id = $1`, noteID, summary.Avg, summary.Count); err != nil {
		return rating.Summary{}, fmt.Errorf("write back aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return rating.Summary{}, fmt.Errorf("commit rate tx: %w", err)
	}
	metrics.RecordVote()
	return summary, nil
}

// UserRating returns the acting user's vote on a note.
func (s *PGStore) UserRating(ctx context.Context, noteID, userID string) (model.Rating, error) {
	var r model.Rating
	err := s.db.QueryRowContext(ctx, `
		SELECT note_id, user_id, value, created_at, updated_at
		FROM ratings WHERE note_id = $1 AND user_id = $2`, noteID, userID).
		Scan(&r.NoteID, &r.UserID, &r.Value, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rating{}, ErrNotFound
	}
	if err != nil {
		return model.Rating{}, fmt.Errorf("get rating: %w", err)
	}
	return r, nil
}

// ListMetrics returns ranking snapshots for published notes.
func (s *PGStore) ListMetrics(ctx context.Context, subject string) ([]model.NoteMetrics, error) {
	query := `
		SELECT id, title, subject, author_name, rating_avg, rating_count, downloads, created_at
		FROM notes WHERE mod_state = 'published'`
	args := []any{}
	if subject != "" {
		args = append(args, subject)
		query += ` AND subject = $1`
	}
	query += ` ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()
	var out []model.NoteMetrics
	for rows.Next() {
		var m model.NoteMetrics
		if err := rows.Scan(&m.ID, &m.Title, &m.Subject, &m.AuthorName,
			&m.RatingAvg, &m.RatingCount, &m.Downloads, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return out, nil
}

// SetNoteState applies an already-validated moderation transition.
func (s *PGStore) SetNoteState(ctx context.Context, id string, to model.NoteState, reason, decidedBy string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET mod_state = $2, mod_reason = $3, mod_decided_by = $4,
			mod_decided_at = now(), updated_at = now()
		WHERE id = $1`, id, string(to), reason, decidedBy)
	if err != nil {
		return fmt.Errorf("set note state: %w", err)
	}
	return affectedOrNotFound(res)
}

// AddComment persists a new comment.
func (s *PGStore) AddComment(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, note_id, author_name, author_email, body, state, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE EXISTS (SELECT 1 FROM notes WHERE id = $2)`,
		c.ID, c.NoteID, c.AuthorName, c.AuthorEmail, c.Text, string(c.State), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return affectedOrNotFound(res)
}

// ListComments returns a note's comments, oldest first.
func (s *PGStore) ListComments(ctx context.Context, noteID string, visibleOnly bool) ([]model.Comment, error) {
	query := `
		SELECT id, note_id, author_name, author_email, body, state, created_at
		FROM comments WHERE note_id = $1`
	if visibleOnly {
		query += ` AND state = 'visible'`
	}
	query += ` ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		var state string
		if err := rows.Scan(&c.ID, &c.NoteID, &c.AuthorName, &c.AuthorEmail, &c.Text, &state, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.State = model.CommentState(state)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

// GetComment fetches one comment by id.
func (s *PGStore) GetComment(ctx context.Context, id string) (model.Comment, error) {
	var c model.Comment
	var state string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, note_id, author_name, author_email, body, state, created_at
		FROM comments WHERE id = $1`, id).
		Scan(&c.ID, &c.NoteID, &c.AuthorName, &c.AuthorEmail, &c.Text, &state, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, ErrNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	c.State = model.CommentState(state)
	return c, nil
}

// SetCommentState applies an already-validated transition.
func (s *PGStore) SetCommentState(ctx context.Context, id string, to model.CommentState) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET state = $2 WHERE id = $1`, id, string(to))
	if err != nil {
		return fmt.Errorf("set comment state: %w", err)
	}
	return affectedOrNotFound(res)
}

// AddReport persists a new open report.
func (s *PGStore) AddReport(ctx context.Context, r *model.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = model.ReportOpen
	r.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, target_type, target_id, reason, by_name, by_email, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, string(r.TargetType), r.TargetID, r.Reason, r.ByName, r.ByEmail, string(r.Status), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListOpenReports returns unresolved reports, oldest first.
func (s *PGStore) ListOpenReports(ctx context.Context) ([]model.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target_type, target_id, reason, by_name, by_email, status, created_at
		FROM reports WHERE status = 'open' ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var out []model.Report
	for rows.Next() {
		var r model.Report
		var target, status string
		if err := rows.Scan(&r.ID, &target, &r.TargetID, &r.Reason, &r.ByName, &r.ByEmail, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.TargetType = model.TargetType(target)
		r.Status = model.ReportStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

// ResolveReport moves an open report to reviewed or dismissed.
func (s *PGStore) ResolveReport(ctx context.Context, id string, status model.ReportStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = $2 WHERE id = $1 AND status = 'open'`, id, string(status))
	if err != nil {
		return fmt.Errorf("resolve report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve report: %w", err)
	}
	if n == 0 {
		// Distinguish unknown from already-resolved.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("resolve report: %w", err)
		}
		if exists {
			return ErrReportResolved
		}
		return ErrNotFound
	}
	return nil
}

// CountNotes returns the number of stored notes.
func (s *PGStore) CountNotes(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
