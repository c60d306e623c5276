package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store manages tutoring persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database at dbPath and applies
// migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Student is one registered student.
type Student struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one tutoring or pitch-practice session.
type Session struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"student_id"`
	SlideCount  *int       `json:"slide_count"`
	PDFURL      string     `json:"pdf_url"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Conversation is one role-tagged dialogue turn recorded for a session.
type Conversation struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"session_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	SlideNumber *int      `json:"slide_number"`
	SpokenAt    string    `json:"spoken_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Feedback is one saved feedback record for a session.
type Feedback struct {
	ID                int64      `json:"id"`
	SessionID         int64      `json:"session_id"`
	OverallFeedback   string     `json:"overall_feedback"`
	PresentationScore *int       `json:"presentation_score"`
	SlideFeedback     string     `json:"slide_feedback"`
	Strengths         string     `json:"strengths"`
	Improvements      string     `json:"improvements"`
	ViewedByProfessor bool       `json:"viewed_by_professor"`
	ViewedAt          *time.Time `json:"viewed_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SessionSummary is one row of the professor session list.
type SessionSummary struct {
	Session
	StudentName string `json:"student_name"`
	HasFeedback bool   `json:"has_feedback"`
}

// SessionDetail is a session with its student, dialogue, and feedback.
type SessionDetail struct {
	Session
	Student       Student        `json:"student"`
	Conversations []Conversation `json:"conversations"`
	Feedback      *Feedback      `json:"feedback"`
}

// CreateStudent inserts a student.
func (s *Store) CreateStudent(ctx context.Context, name string) (*Student, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO students (name, created_at) VALUES (?, ?)`,
		name, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Student{ID: id, Name: name, CreatedAt: now}, nil
}

// CreateSession inserts a session for a student.
func (s *Store) CreateSession(ctx context.Context, studentID int64, slideCount *int, pdfURL string) (*Session, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (student_id, slide_count, pdf_url, status, created_at)
         VALUES (?, ?, ?, 'active', ?)`,
		studentID,
		nullableInt(slideCount),
		nullableString(pdfURL),
		now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSessionRow(ctx, id)
}

// SessionUpdate lists the patchable session fields; nil fields are left
// untouched.
type SessionUpdate struct {
	SlideCount  *int
	Status      *string
	PDFURL      *string
	CompletedAt *time.Time
}

// UpdateSession applies a partial update and returns the updated row.
func (s *Store) UpdateSession(ctx context.Context, id int64, update SessionUpdate) (*Session, error) {
	setClauses := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if update.SlideCount != nil {
		setClauses = append(setClauses, "slide_count = ?")
		args = append(args, *update.SlideCount)
	}
	if update.Status != nil {
		setClauses = append(setClauses, "status = ?")
		args = append(args, *update.Status)
	}
	if update.PDFURL != nil {
		setClauses = append(setClauses, "pdf_url = ?")
		args = append(args, *update.PDFURL)
	}
	if update.CompletedAt != nil {
		setClauses = append(setClauses, "completed_at = ?")
		args = append(args, update.CompletedAt.UTC().Format(time.RFC3339Nano))
	}
	if len(setClauses) == 0 {
		return nil, errors.New("update session: no updatable fields provided")
	}

	query := "UPDATE sessions SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetSessionRow(ctx, id)
}

const sessionColumns = "id, student_id, slide_count, pdf_url, status, created_at, completed_at"

// GetSessionRow returns the bare session row.
func (s *Store) GetSessionRow(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	return scanSession(row)
}

// GetSessionDetail returns the session joined with its student, dialogue in
// insertion order, and latest feedback.
func (s *Store) GetSessionDetail(ctx context.Context, id int64) (*SessionDetail, error) {
	session, err := s.GetSessionRow(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{Session: *session}

	row := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM students WHERE id = ?", session.StudentID)
	var createdAt string
	if err := row.Scan(&detail.Student.ID, &detail.Student.Name, &createdAt); err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	detail.Student.CreatedAt = parseTimestamp(createdAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, slide_number, spoken_at, created_at
         FROM conversations WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		detail.Conversations = append(detail.Conversations, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	feedback, err := s.latestFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Feedback = feedback
	return detail, nil
}

// ListSessions returns every session with its student name, newest first.
// When query is non-empty only sessions whose student name contains it
// (case-insensitive) are returned.
func (s *Store) ListSessions(ctx context.Context, query string) ([]SessionSummary, error) {
	sqlQuery := `SELECT s.id, s.student_id, s.slide_count, s.pdf_url, s.status, s.created_at, s.completed_at,
               st.name,
               EXISTS(SELECT 1 FROM feedback f WHERE f.session_id = s.id)
        FROM sessions s JOIN students st ON st.id = s.student_id`
	args := []any{}
	if query != "" {
		sqlQuery += " WHERE LOWER(st.name) LIKE ?"
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	sqlQuery += " ORDER BY s.created_at DESC"

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var summary SessionSummary
		var slideCount sql.NullInt64
		var pdfURL, completedAt sql.NullString
		var createdAt string
		var hasFeedback int
		if err := rows.Scan(
			&summary.ID, &summary.StudentID, &slideCount, &pdfURL, &summary.Status,
			&createdAt, &completedAt, &summary.StudentName, &hasFeedback,
		); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		if slideCount.Valid {
			value := int(slideCount.Int64)
			summary.SlideCount = &value
		}
		summary.PDFURL = pdfURL.String
		summary.CreatedAt = parseTimestamp(createdAt)
		if completedAt.Valid {
			parsed := parseTimestamp(completedAt.String)
			summary.CompletedAt = &parsed
		}
		summary.HasFeedback = hasFeedback != 0
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return summaries, nil
}

// AddConversation records one dialogue turn.
func (s *Store) AddConversation(ctx context.Context, conv Conversation) (*Conversation, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, role, content, slide_number, spoken_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		conv.SessionID,
		conv.Role,
		conv.Content,
		nullableInt(conv.SlideNumber),
		nullableString(conv.SpokenAt),
		now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	conv.ID = id
	conv.CreatedAt = now
	return &conv, nil
}

// AddConversationsBulk records several turns in one transaction and returns
// the inserted count.
func (s *Store) AddConversationsBulk(ctx context.Context, convs []Conversation) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	count := 0
	for _, conv := range convs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (session_id, role, content, slide_number, spoken_at, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			conv.SessionID, conv.Role, conv.Content,
			nullableInt(conv.SlideNumber), nullableString(conv.SpokenAt), now,
		); err != nil {
			return 0, fmt.Errorf("insert conversation: %w", err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit conversations: %w", err)
	}
	return count, nil
}

// SaveFeedback records feedback for a session.
func (s *Store) SaveFeedback(ctx context.Context, fb Feedback) (*Feedback, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (session_id, overall_feedback, presentation_score, slide_feedback, strengths, improvements, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.SessionID,
		fb.OverallFeedback,
		nullableInt(fb.PresentationScore),
		nullableString(fb.SlideFeedback),
		nullableString(fb.Strengths),
		nullableString(fb.Improvements),
		now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	fb.ID = id
	fb.CreatedAt = now
	return &fb, nil
}

// MarkReviewed flags a session's feedback as viewed by the professor,
// creating a minimal record when none exists yet.
func (s *Store) MarkReviewed(ctx context.Context, sessionID int64) (*Feedback, error) {
	if _, err := s.GetSessionRow(ctx, sessionID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	existing, err := s.latestFeedback(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO feedback (session_id, overall_feedback, viewed_by_professor, viewed_at, created_at)
             VALUES (?, '', 1, ?, ?)`,
			sessionID, timestamp, timestamp,
		); err != nil {
			return nil, fmt.Errorf("insert reviewed feedback: %w", err)
		}
	} else if _, err := s.db.ExecContext(ctx,
		`UPDATE feedback SET viewed_by_professor = 1, viewed_at = ? WHERE id = ?`,
		timestamp, existing.ID,
	); err != nil {
		return nil, fmt.Errorf("mark feedback reviewed: %w", err)
	}
	return s.latestFeedback(ctx, sessionID)
}

func (s *Store) latestFeedback(ctx context.Context, sessionID int64) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, overall_feedback, presentation_score, slide_feedback, strengths, improvements,
                viewed_by_professor, viewed_at, created_at
         FROM feedback WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sessionID)

	var fb Feedback
	var score sql.NullInt64
	var slideFeedback, strengths, improvements, viewedAt sql.NullString
	var viewed int
	var createdAt string
	err := row.Scan(&fb.ID, &fb.SessionID, &fb.OverallFeedback, &score, &slideFeedback,
		&strengths, &improvements, &viewed, &viewedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan feedback: %w", err)
	}
	if score.Valid {
		value := int(score.Int64)
		fb.PresentationScore = &value
	}
	fb.SlideFeedback = slideFeedback.String
	fb.Strengths = strengths.String
	fb.Improvements = improvements.String
	fb.ViewedByProfessor = viewed != 0
	if viewedAt.Valid {
		parsed := parseTimestamp(viewedAt.String)
		fb.ViewedAt = &parsed
	}
	fb.CreatedAt = parseTimestamp(createdAt)
	return &fb, nil
}
