// Package admin backs the monitoring screens: user feedback, question
// problem reports, audit-log browsing and the dashboard counters.
package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrReportNotFound   = errors.New("question report not found")
	ErrAlreadyResolved  = errors.New("already resolved")
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Feedback struct {
	ID         int64      `json:"id"`
	UserID     *int64     `json:"user_id,omitempty"`
	Email      *string    `json:"email,omitempty"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Note       *string    `json:"resolution_note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type QuestionReport struct {
	ID         int64      `json:"id"`
	QuestionID int64      `json:"question_id"`
	UserID     *int64     `json:"user_id,omitempty"`
	Reason     string     `json:"reason"`
	Detail     *string    `json:"detail,omitempty"`
	Status     string     `json:"status"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Note       *string    `json:"resolution_note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditEntry struct {
	ID         int64           `json:"id"`
	UserID     *int64          `json:"user_id,omitempty"`
	Username   *string         `json:"username,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AuditFilter struct {
	UserID     int64
	Action     string
	EntityType string
	Limit      int
	Offset     int
}

type DashboardStats struct {
	ExamCount          int64 `json:"exam_count"`
	SubtopicCount      int64 `json:"subtopic_count"`
	QuestionCount      int64 `json:"question_count"`
	PublishedQuestions int64 `json:"published_questions"`
	QuizCount          int64 `json:"quiz_count"`
	PublishedQuizzes   int64 `json:"published_quizzes"`
	OpenFeedback       int64 `json:"open_feedback"`
	OpenReports        int64 `json:"open_reports"`
	ActiveUsers        int64 `json:"active_users"`
}

func (s *Service) ListFeedback(ctx context.Context, status string, limit, offset int) ([]Feedback, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", "open", "resolved":
	default:
		return nil, fmt.Errorf("%w: status must be open or resolved", ErrInvalidInput)
	}
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email, message, status, resolved_by, resolved_at, resolution_note, created_at
		FROM feedback
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := make([]Feedback, 0, limit)
	for rows.Next() {
		var it Feedback
		var userID, resolvedBy sql.NullInt64
		var email, note sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(&it.ID, &userID, &email, &it.Message, &it.Status, &resolvedBy, &resolvedAt, &note, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		if userID.Valid {
			it.UserID = &userID.Int64
		}
		if email.Valid {
			it.Email = &email.String
		}
		if resolvedBy.Valid {
			it.ResolvedBy = &resolvedBy.Int64
		}
		if resolvedAt.Valid {
			it.ResolvedAt = &resolvedAt.Time
		}
		if note.Valid {
			it.Note = &note.String
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

func (s *Service) ResolveFeedback(ctx context.Context, actorID, id int64, note string) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = "resolved"
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE feedback
		SET status = 'resolved',
			resolved_by = $2,
			resolved_at = now(),
			resolution_note = $3
		WHERE id = $1 AND status = 'open'
	`, id, actorID, note)
	if err != nil {
		return fmt.Errorf("resolve feedback: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM feedback WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check feedback: %w", err)
		}
		if !exists {
			return ErrFeedbackNotFound
		}
		return ErrAlreadyResolved
	}
	return nil
}

func (s *Service) ListQuestionReports(ctx context.Context, status string, questionID int64, limit, offset int) ([]QuestionReport, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", "open", "resolved":
	default:
		return nil, fmt.Errorf("%w: status must be open or resolved", ErrInvalidInput)
	}
	limit, offset = clampPage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, user_id, reason, detail, status, resolved_by, resolved_at, resolution_note, created_at
		FROM question_reports
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = 0 OR question_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, status, questionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list question reports: %w", err)
	}
	defer rows.Close()

	out := make([]QuestionReport, 0, limit)
	for rows.Next() {
		var it QuestionReport
		var userID, resolvedBy sql.NullInt64
		var detail, note sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(&it.ID, &it.QuestionID, &userID, &it.Reason, &detail, &it.Status, &resolvedBy, &resolvedAt, &note, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question report: %w", err)
		}
		if userID.Valid {
			it.UserID = &userID.Int64
		}
		if detail.Valid {
			it.Detail = &detail.String
		}
		if resolvedBy.Valid {
			it.ResolvedBy = &resolvedBy.Int64
		}
		if resolvedAt.Valid {
			it.ResolvedAt = &resolvedAt.Time
		}
		if note.Valid {
			it.Note = &note.String
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question reports: %w", err)
	}
	return out, nil
}

func (s *Service) ResolveQuestionReport(ctx context.Context, actorID, id int64, note string) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = "resolved"
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE question_reports
		SET status = 'resolved',
			resolved_by = $2,
			resolved_at = now(),
			resolution_note = $3
		WHERE id = $1 AND status = 'open'
	`, id, actorID, note)
	if err != nil {
		return fmt.Errorf("resolve question report: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM question_reports WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check question report: %w", err)
		}
		if !exists {
			return ErrReportNotFound
		}
		return ErrAlreadyResolved
	}
	return nil
}

func (s *Service) ListAuditLogs(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	action := strings.TrimSpace(f.Action)
	entityType := strings.TrimSpace(f.EntityType)

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, u.username, a.action, a.entity_type, a.entity_id, a.payload, a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE ($1 = 0 OR a.user_id = $1)
		  AND ($2 = '' OR a.action = $2)
		  AND ($3 = '' OR a.entity_type = $3)
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $4 OFFSET $5
	`, f.UserID, action, entityType, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]AuditEntry, 0, f.Limit)
	for rows.Next() {
		var it AuditEntry
		var userID sql.NullInt64
		var username sql.NullString
		var payload []byte
		if err := rows.Scan(&it.ID, &userID, &username, &it.Action, &it.EntityType, &it.EntityID, &payload, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if userID.Valid {
			it.UserID = &userID.Int64
		}
		if username.Valid {
			it.Username = &username.String
		}
		if len(payload) == 0 {
			payload = []byte(`{}`)
		}
		it.Payload = json.RawMessage(payload)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return out, nil
}

func (s *Service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	out := &DashboardStats{}
	if err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM exams WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM subtopics WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM questions WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM questions WHERE is_active = TRUE AND status = 'published'),
			(SELECT COUNT(*) FROM quizzes WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM quizzes WHERE is_active = TRUE AND status = 'published'),
			(SELECT COUNT(*) FROM feedback WHERE status = 'open'),
			(SELECT COUNT(*) FROM question_reports WHERE status = 'open'),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE)
	`).Scan(
		&out.ExamCount,
		&out.SubtopicCount,
		&out.QuestionCount,
		&out.PublishedQuestions,
		&out.QuizCount,
		&out.PublishedQuizzes,
		&out.OpenFeedback,
		&out.OpenReports,
		&out.ActiveUsers,
	); err != nil {
		return nil, fmt.Errorf("query dashboard stats: %w", err)
	}
	return out, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
