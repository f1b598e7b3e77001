// Package quiz assembles published questions into ordered, sectioned
// quizzes. Ordering is authoritative in the section_questions position
// column; reorder and move operations run in a transaction with the
// section rows locked so concurrent editors cannot interleave positions.
package quiz

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
	ErrInvalidInput       = errors.New("invalid input")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrQuestionNotInScope = errors.New("question not in section")
	ErrNotPublished       = errors.New("question is not published")
	ErrAlreadyAssigned    = errors.New("question already assigned to quiz")
	ErrNotPermutation     = errors.New("order list must be a permutation of the section's questions")
	ErrQuizNotPublishable = errors.New("quiz is not publishable")
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Quiz struct {
	ID              int64     `json:"id"`
	ExamID          int64     `json:"exam_id"`
	Title           string    `json:"title"`
	TitleHi         string    `json:"title_hi"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	IsActive        bool      `json:"is_active"`
	CreatedBy       *int64    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type QuizInput struct {
	ExamID          int64
	Title           string
	TitleHi         string
	DurationMinutes int
	CreatedBy       int64
}

type Section struct {
	ID       int64  `json:"id"`
	QuizID   int64  `json:"quiz_id"`
	Title    string `json:"title"`
	TitleHi  string `json:"title_hi"`
	Position int    `json:"position"`
}

type SectionInput struct {
	QuizID  int64
	Title   string
	TitleHi string
}

type SectionQuestion struct {
	QuestionID    int64  `json:"question_id"`
	Position      int    `json:"position"`
	PreviewText   string `json:"preview_text"`
	PreviewTextHi string `json:"preview_text_hi"`
	Difficulty    int    `json:"difficulty"`
}

type QuizDetail struct {
	Quiz     Quiz            `json:"quiz"`
	Sections []SectionDetail `json:"sections"`
}

type SectionDetail struct {
	Section   Section           `json:"section"`
	Questions []SectionQuestion `json:"questions"`
}

func (s *Service) CreateQuiz(ctx context.Context, in QuizInput) (*Quiz, error) {
	title := strings.TrimSpace(in.Title)
	titleHi := strings.TrimSpace(in.TitleHi)
	if in.ExamID <= 0 || title == "" || titleHi == "" {
		return nil, fmt.Errorf("%w: exam_id, title and title_hi are required", ErrInvalidInput)
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
	}

	var examExists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM exams WHERE id = $1 AND is_active = TRUE)
	`, in.ExamID).Scan(&examExists); err != nil {
		return nil, fmt.Errorf("check exam: %w", err)
	}
	if !examExists {
		return nil, fmt.Errorf("%w: exam %d", ErrInvalidInput, in.ExamID)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'draft', TRUE, NULLIF($5, 0), now(), now())
		RETURNING id, exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at
	`, in.ExamID, title, titleHi, in.DurationMinutes, in.CreatedBy)

	out, err := scanQuiz(row)
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}
	_ = s.writeAudit(ctx, in.CreatedBy, "quiz.create", "quiz", out.ID, map[string]any{"title": title})
	return out, nil
}

func (s *Service) UpdateQuiz(ctx context.Context, actorID, id int64, in QuizInput) (*Quiz, error) {
	title := strings.TrimSpace(in.Title)
	titleHi := strings.TrimSpace(in.TitleHi)
	if id <= 0 || title == "" || titleHi == "" || in.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE quizzes
		SET title = $2, title_hi = $3, duration_minutes = $4, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at
	`, id, title, titleHi, in.DurationMinutes)

	out, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	_ = s.writeAudit(ctx, actorID, "quiz.update", "quiz", id, map[string]any{"title": title})
	return out, nil
}

func (s *Service) ListQuizzes(ctx context.Context, examID int64, status string) ([]Quiz, error) {
	if status != "" && status != StatusDraft && status != StatusPublished {
		return nil, fmt.Errorf("%w: status must be draft or published", ErrInvalidInput)
	}
	query := `
		SELECT id, exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at
		FROM quizzes
		WHERE is_active = TRUE
	`
	args := make([]any, 0, 2)
	if examID > 0 {
		args = append(args, examID)
		query += fmt.Sprintf(" AND exam_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	items := make([]Quiz, 0)
	for rows.Next() {
		item, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return items, nil
}

func (s *Service) GetQuizDetail(ctx context.Context, id int64) (*QuizDetail, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at
		FROM quizzes
		WHERE id = $1 AND is_active = TRUE
	`, id)
	quiz, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	sections, err := s.listSections(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	detail := &QuizDetail{Quiz: *quiz, Sections: make([]SectionDetail, 0, len(sections))}
	for _, sec := range sections {
		questions, err := s.listSectionQuestions(ctx, s.db, sec.ID)
		if err != nil {
			return nil, err
		}
		detail.Sections = append(detail.Sections, SectionDetail{Section: sec, Questions: questions})
	}
	return detail, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	var deletedID int64
	if err := s.db.QueryRowContext(ctx, `
		UPDATE quizzes
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`, id).Scan(&deletedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("delete quiz: %w", err)
	}
	_ = s.writeAudit(ctx, actorID, "quiz.delete", "quiz", id, nil)
	return nil
}

// PublishQuiz flips a draft to published once the structure is complete:
// at least one section, and no section without questions.
func (s *Service) PublishQuiz(ctx context.Context, actorID, id int64) (*Quiz, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	if err := tx.QueryRowContext(ctx, `
		SELECT status FROM quizzes WHERE id = $1 AND is_active = TRUE FOR UPDATE
	`, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("lock quiz: %w", err)
	}

	var sectionCount, emptySections int
	if err := tx.QueryRowContext(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE NOT EXISTS (
				SELECT 1 FROM section_questions sq WHERE sq.section_id = qs.id
			))
		FROM quiz_sections qs
		WHERE qs.quiz_id = $1
	`, id).Scan(&sectionCount, &emptySections); err != nil {
		return nil, fmt.Errorf("check sections: %w", err)
	}
	if sectionCount == 0 {
		return nil, fmt.Errorf("%w: quiz has no sections", ErrQuizNotPublishable)
	}
	if emptySections > 0 {
		return nil, fmt.Errorf("%w: %d section(s) have no questions", ErrQuizNotPublishable, emptySections)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE quizzes
		SET status = 'published', updated_at = now()
		WHERE id = $1
		RETURNING id, exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at
	`, id)
	out, err := scanQuiz(row)
	if err != nil {
		return nil, fmt.Errorf("publish quiz: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	_ = s.writeAudit(ctx, actorID, "quiz.publish", "quiz", id, nil)
	return out, nil
}

func (s *Service) UnpublishQuiz(ctx context.Context, actorID, id int64) (*Quiz, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE quizzes
		SET status = 'draft', updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, exam_id, title, title_hi, duration_minutes, status, is_active, created_by, created_at, updated_at
	`, id)
	out, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("unpublish quiz: %w", err)
	}
	_ = s.writeAudit(ctx, actorID, "quiz.unpublish", "quiz", id, nil)
	return out, nil
}

func (s *Service) CreateSection(ctx context.Context, in SectionInput) (*Section, error) {
	title := strings.TrimSpace(in.Title)
	titleHi := strings.TrimSpace(in.TitleHi)
	if in.QuizID <= 0 || title == "" || titleHi == "" {
		return nil, fmt.Errorf("%w: quiz_id, title and title_hi are required", ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockQuiz(ctx, tx, in.QuizID); err != nil {
		return nil, err
	}

	var out Section
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO quiz_sections (quiz_id, title, title_hi, position)
		VALUES ($1, $2, $3, (
			SELECT COALESCE(MAX(position), 0) + 1 FROM quiz_sections WHERE quiz_id = $1
		))
		RETURNING id, quiz_id, title, title_hi, position
	`, in.QuizID, title, titleHi).Scan(&out.ID, &out.QuizID, &out.Title, &out.TitleHi, &out.Position); err != nil {
		return nil, fmt.Errorf("insert section: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &out, nil
}

func (s *Service) UpdateSection(ctx context.Context, id int64, title, titleHi string) (*Section, error) {
	title = strings.TrimSpace(title)
	titleHi = strings.TrimSpace(titleHi)
	if id <= 0 || title == "" || titleHi == "" {
		return nil, ErrInvalidInput
	}
	var out Section
	if err := s.db.QueryRowContext(ctx, `
		UPDATE quiz_sections
		SET title = $2, title_hi = $3
		WHERE id = $1
		RETURNING id, quiz_id, title, title_hi, position
	`, id, title, titleHi).Scan(&out.ID, &out.QuizID, &out.Title, &out.TitleHi, &out.Position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("update section: %w", err)
	}
	return &out, nil
}

func (s *Service) DeleteSection(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var quizID int64
	if err := tx.QueryRowContext(ctx, `
		SELECT quiz_id FROM quiz_sections WHERE id = $1 FOR UPDATE
	`, id).Scan(&quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("lock section: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM section_questions WHERE section_id = $1`, id); err != nil {
		return fmt.Errorf("clear section questions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	// Close the position gap so later sections stay contiguous.
	if _, err := tx.ExecContext(ctx, `
		UPDATE quiz_sections qs
		SET position = ranked.new_position
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position) AS new_position
			FROM quiz_sections
			WHERE quiz_id = $1
		) ranked
		WHERE qs.id = ranked.id AND qs.position <> ranked.new_position
	`, quizID); err != nil {
		return fmt.Errorf("compact section positions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AssignQuestion appends a published question to the end of a section. A
// question may appear at most once per quiz, across all of its sections.
func (s *Service) AssignQuestion(ctx context.Context, sectionID, questionID int64) (*SectionQuestion, error) {
	if sectionID <= 0 || questionID <= 0 {
		return nil, ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quizID, err := lockSection(ctx, tx, sectionID)
	if err != nil {
		return nil, err
	}

	var status, previewText, previewTextHi string
	var difficulty int
	if err := tx.QueryRowContext(ctx, `
		SELECT status, preview_text, preview_text_hi, difficulty
		FROM questions
		WHERE id = $1 AND is_active = TRUE
	`, questionID).Scan(&status, &previewText, &previewTextHi, &difficulty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("load question: %w", err)
	}
	if status != "published" {
		return nil, ErrNotPublished
	}

	var already bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM section_questions sq
			JOIN quiz_sections qs ON qs.id = sq.section_id
			WHERE qs.quiz_id = $1 AND sq.question_id = $2
		)
	`, quizID, questionID).Scan(&already); err != nil {
		return nil, fmt.Errorf("check assignment: %w", err)
	}
	if already {
		return nil, ErrAlreadyAssigned
	}

	var position int
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO section_questions (section_id, question_id, position)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(position), 0) + 1 FROM section_questions WHERE section_id = $1
		))
		RETURNING position
	`, sectionID, questionID).Scan(&position); err != nil {
		return nil, fmt.Errorf("insert section question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &SectionQuestion{
		QuestionID:    questionID,
		Position:      position,
		PreviewText:   previewText,
		PreviewTextHi: previewTextHi,
		Difficulty:    difficulty,
	}, nil
}

func (s *Service) RemoveQuestion(ctx context.Context, sectionID, questionID int64) error {
	if sectionID <= 0 || questionID <= 0 {
		return ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := lockSection(ctx, tx, sectionID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM section_questions WHERE section_id = $1 AND question_id = $2
	`, sectionID, questionID)
	if err != nil {
		return fmt.Errorf("delete section question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotInScope
	}

	if err := compactPositions(ctx, tx, sectionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReorderQuestions replaces the section's ordering with the given question
// id list. The list must contain exactly the section's current members,
// each once; anything else is rejected without changes.
func (s *Service) ReorderQuestions(ctx context.Context, sectionID int64, orderedIDs []int64) error {
	if sectionID <= 0 || len(orderedIDs) == 0 {
		return ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := lockSection(ctx, tx, sectionID); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT question_id FROM section_questions WHERE section_id = $1
	`, sectionID)
	if err != nil {
		return fmt.Errorf("query section members: %w", err)
	}
	current := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan member: %w", err)
		}
		current[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate members: %w", err)
	}

	if !isPermutation(current, orderedIDs) {
		return ErrNotPermutation
	}

	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE section_questions SET position = $3 WHERE section_id = $1 AND question_id = $2
		`, sectionID, id, i+1); err != nil {
			return fmt.Errorf("set position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// MoveQuestion relocates a question to the end of another section within
// the same quiz.
func (s *Service) MoveQuestion(ctx context.Context, fromSectionID, toSectionID, questionID int64) error {
	if fromSectionID <= 0 || toSectionID <= 0 || questionID <= 0 {
		return ErrInvalidInput
	}
	if fromSectionID == toSectionID {
		return fmt.Errorf("%w: source and target sections are the same", ErrInvalidInput)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock in id order to avoid deadlocks between concurrent moves.
	first, second := fromSectionID, toSectionID
	if second < first {
		first, second = second, first
	}
	firstQuiz, err := lockSection(ctx, tx, first)
	if err != nil {
		return err
	}
	secondQuiz, err := lockSection(ctx, tx, second)
	if err != nil {
		return err
	}
	if firstQuiz != secondQuiz {
		return fmt.Errorf("%w: sections belong to different quizzes", ErrInvalidInput)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM section_questions WHERE section_id = $1 AND question_id = $2
	`, fromSectionID, questionID)
	if err != nil {
		return fmt.Errorf("detach question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotInScope
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO section_questions (section_id, question_id, position)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(position), 0) + 1 FROM section_questions WHERE section_id = $1
		))
	`, toSectionID, questionID); err != nil {
		return fmt.Errorf("attach question: %w", err)
	}

	if err := compactPositions(ctx, tx, fromSectionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Service) listSections(ctx context.Context, q queryable, quizID int64) ([]Section, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, quiz_id, title, title_hi, position
		FROM quiz_sections
		WHERE quiz_id = $1
		ORDER BY position ASC
	`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	items := make([]Section, 0)
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.QuizID, &sec.Title, &sec.TitleHi, &sec.Position); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		items = append(items, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return items, nil
}

func (s *Service) listSectionQuestions(ctx context.Context, q queryable, sectionID int64) ([]SectionQuestion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sq.question_id, sq.position, qu.preview_text, qu.preview_text_hi, qu.difficulty
		FROM section_questions sq
		JOIN questions qu ON qu.id = sq.question_id
		WHERE sq.section_id = $1
		ORDER BY sq.position ASC
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("query section questions: %w", err)
	}
	defer rows.Close()

	items := make([]SectionQuestion, 0)
	for rows.Next() {
		var sq SectionQuestion
		if err := rows.Scan(&sq.QuestionID, &sq.Position, &sq.PreviewText, &sq.PreviewTextHi, &sq.Difficulty); err != nil {
			return nil, fmt.Errorf("scan section question: %w", err)
		}
		items = append(items, sq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section questions: %w", err)
	}
	return items, nil
}

// isPermutation reports whether ids contains exactly the members of
// current, each once.
func isPermutation(current map[int64]bool, ids []int64) bool {
	if len(ids) != len(current) {
		return false
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !current[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func lockQuiz(ctx context.Context, tx *sql.Tx, quizID int64) error {
	var id int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM quizzes WHERE id = $1 AND is_active = TRUE FOR UPDATE
	`, quizID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("lock quiz: %w", err)
	}
	return nil
}

func lockSection(ctx context.Context, tx *sql.Tx, sectionID int64) (int64, error) {
	var quizID int64
	if err := tx.QueryRowContext(ctx, `
		SELECT quiz_id FROM quiz_sections WHERE id = $1 FOR UPDATE
	`, sectionID).Scan(&quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSectionNotFound
		}
		return 0, fmt.Errorf("lock section: %w", err)
	}
	return quizID, nil
}

func compactPositions(ctx context.Context, tx *sql.Tx, sectionID int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE section_questions sq
		SET position = ranked.new_position
		FROM (
			SELECT question_id, ROW_NUMBER() OVER (ORDER BY position) AS new_position
			FROM section_questions
			WHERE section_id = $1
		) ranked
		WHERE sq.section_id = $1
			AND sq.question_id = ranked.question_id
			AND sq.position <> ranked.new_position
	`, sectionID); err != nil {
		return fmt.Errorf("compact positions: %w", err)
	}
	return nil
}

func scanQuiz(scanner interface{ Scan(dest ...any) error }) (*Quiz, error) {
	var out Quiz
	var createdBy sql.NullInt64
	if err := scanner.Scan(
		&out.ID,
		&out.ExamID,
		&out.Title,
		&out.TitleHi,
		&out.DurationMinutes,
		&out.Status,
		&out.IsActive,
		&createdBy,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		out.CreatedBy = &createdBy.Int64
	}
	return &out, nil
}

func (s *Service) writeAudit(ctx context.Context, userID int64, action, entityType string, entityID int64, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, now())
	`, userID, action, entityType, fmt.Sprintf("%d", entityID), string(b))
	return err
}
