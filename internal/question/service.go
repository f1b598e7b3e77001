// Package question manages authored questions and comprehension groups.
// Question bodies, explanations and passages are sequences of structured
// content blocks; answer choices are structured options. Structural
// validation lives in internal/content; this service adds the form-layer
// checks (correct-option bounds, difficulty range) and persistence.
package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizadmin/internal/content"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSubtopicNotFound = errors.New("subtopic not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrGroupNotFound    = errors.New("comprehension group not found")
)

// ValidationError carries the ordered defect messages produced by the
// content validators and the form-layer checks. Handlers surface the list
// verbatim so the editing UI can render each message next to its field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

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

type Question struct {
	ID            int64                    `json:"id"`
	SubtopicID    int64                    `json:"subtopic_id"`
	GroupID       *int64                   `json:"group_id,omitempty"`
	Content       []content.ContentBlock   `json:"question_content"`
	Options       []content.QuestionOption `json:"options"`
	CorrectOption int                      `json:"correct_option"`
	Explanation   []content.ContentBlock   `json:"explanation_content"`
	Difficulty    int                      `json:"difficulty"`
	Status        string                   `json:"status"`
	PreviewText   string                   `json:"preview_text"`
	PreviewTextHi string                   `json:"preview_text_hi"`
	CreatedBy     *int64                   `json:"created_by,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type QuestionInput struct {
	SubtopicID    int64
	GroupID       *int64
	Content       []content.ContentBlock
	Options       []content.QuestionOption
	CorrectOption int
	Explanation   []content.ContentBlock
	Difficulty    int
	CreatedBy     int64
}

type ListFilter struct {
	SubtopicID int64
	Status     string
	Difficulty int
	Query      string
	Limit      int
	Offset     int
}

type ComprehensionGroup struct {
	ID         int64                  `json:"id"`
	SubtopicID int64                  `json:"subtopic_id"`
	Title      string                 `json:"title"`
	TitleHi    string                 `json:"title_hi"`
	Passage    []content.ContentBlock `json:"passage_content"`
	IsActive   bool                   `json:"is_active"`
	CreatedBy  *int64                 `json:"created_by,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

type GroupInput struct {
	SubtopicID int64
	Title      string
	TitleHi    string
	Passage    []content.ContentBlock
	CreatedBy  int64
}

// validateQuestionPayload runs the structural content checks plus the
// form-layer rules the content validators deliberately leave out: the
// correct-option index must address an existing option, and difficulty must
// sit in 1..5. Messages keep block order first, option order second.
func validateQuestionPayload(in QuestionInput) []string {
	msgs := content.ValidateContentBlocks(in.Content)
	msgs = append(msgs, content.ValidateQuestionOptions(in.Options)...)
	if in.CorrectOption < 0 || in.CorrectOption >= len(in.Options) {
		msgs = append(msgs, "Correct option must reference one of the provided options")
	}
	if len(in.Explanation) > 0 {
		for _, m := range content.ValidateContentBlocks(in.Explanation) {
			msgs = append(msgs, "Explanation: "+m)
		}
	}
	if in.Difficulty < 1 || in.Difficulty > 5 {
		msgs = append(msgs, "Difficulty must be between 1 and 5")
	}
	return msgs
}

func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (*Question, error) {
	if in.SubtopicID <= 0 {
		return nil, fmt.Errorf("%w: subtopic_id is required", ErrInvalidInput)
	}
	if msgs := validateQuestionPayload(in); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	if err := s.ensureSubtopicActive(ctx, in.SubtopicID); err != nil {
		return nil, err
	}
	if in.GroupID != nil {
		if err := s.ensureGroupActive(ctx, *in.GroupID); err != nil {
			return nil, err
		}
	}

	contentRaw, optionsRaw, explanationRaw, err := encodePayload(in)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (
			subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3::jsonb, $4::jsonb, $5,
			$6::jsonb, $7, 'draft', $8, $9,
			NULLIF($10, 0), TRUE, now(), now()
		)
		RETURNING id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
	`, in.SubtopicID, nullInt64Ptr(in.GroupID), string(contentRaw), string(optionsRaw), in.CorrectOption,
		string(explanationRaw), in.Difficulty, content.ExtractText(in.Content), content.ExtractTextHindi(in.Content),
		in.CreatedBy)

	out, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id int64, in QuestionInput) (*Question, error) {
	if id <= 0 || in.SubtopicID <= 0 {
		return nil, ErrInvalidInput
	}
	if msgs := validateQuestionPayload(in); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	if err := s.ensureSubtopicActive(ctx, in.SubtopicID); err != nil {
		return nil, err
	}
	if in.GroupID != nil {
		if err := s.ensureGroupActive(ctx, *in.GroupID); err != nil {
			return nil, err
		}
	}

	contentRaw, optionsRaw, explanationRaw, err := encodePayload(in)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE questions
		SET subtopic_id = $2,
			group_id = $3,
			question_content = $4::jsonb,
			options = $5::jsonb,
			correct_option = $6,
			explanation_content = $7::jsonb,
			difficulty = $8,
			preview_text = $9,
			preview_text_hi = $10,
			updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
	`, id, in.SubtopicID, nullInt64Ptr(in.GroupID), string(contentRaw), string(optionsRaw), in.CorrectOption,
		string(explanationRaw), in.Difficulty, content.ExtractText(in.Content), content.ExtractTextHindi(in.Content))

	out, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return out, nil
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
		FROM questions
		WHERE id = $1 AND is_active = TRUE
	`, id)

	out, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("load question: %w", err)
	}
	return out, nil
}

func (s *Service) ListQuestions(ctx context.Context, f ListFilter) ([]Question, error) {
	if f.Status != "" && f.Status != StatusDraft && f.Status != StatusPublished {
		return nil, fmt.Errorf("%w: status must be draft or published", ErrInvalidInput)
	}
	if f.Difficulty != 0 && (f.Difficulty < 1 || f.Difficulty > 5) {
		return nil, fmt.Errorf("%w: difficulty must be between 1 and 5", ErrInvalidInput)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `
		SELECT id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
		FROM questions
		WHERE is_active = TRUE
	`
	args := make([]any, 0, 6)
	if f.SubtopicID > 0 {
		args = append(args, f.SubtopicID)
		query += fmt.Sprintf(" AND subtopic_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Difficulty != 0 {
		args = append(args, f.Difficulty)
		query += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		query += fmt.Sprintf(" AND (preview_text ILIKE $%d OR preview_text_hi ILIKE $%d)", len(args), len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	items := make([]Question, 0)
	for rows.Next() {
		item, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return items, nil
}

// PublishQuestion re-validates the stored payload before flipping status.
// A question edited into an invalid state through an older client never
// reaches published.
func (s *Service) PublishQuestion(ctx context.Context, id int64) (*Question, error) {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs := validateQuestionPayload(QuestionInput{
		SubtopicID:    q.SubtopicID,
		Content:       q.Content,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
	})
	if len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE questions
		SET status = 'published', updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
	`, id)
	out, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("publish question: %w", err)
	}
	return out, nil
}

func (s *Service) UnpublishQuestion(ctx context.Context, id int64) (*Question, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE questions
		SET status = 'draft', updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
	`, id)
	out, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("unpublish question: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	var deletedID int64
	if err := s.db.QueryRowContext(ctx, `
		UPDATE questions
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`, id).Scan(&deletedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (*ComprehensionGroup, error) {
	title := strings.TrimSpace(in.Title)
	titleHi := strings.TrimSpace(in.TitleHi)
	if in.SubtopicID <= 0 || title == "" || titleHi == "" {
		return nil, fmt.Errorf("%w: subtopic_id, title and title_hi are required", ErrInvalidInput)
	}
	if msgs := content.ValidateContentBlocks(in.Passage); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	if err := s.ensureSubtopicActive(ctx, in.SubtopicID); err != nil {
		return nil, err
	}

	passageRaw, err := content.EncodeBlocks(in.Passage)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO comprehension_groups (
			subtopic_id, title, title_hi, passage_content, is_active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4::jsonb, TRUE, NULLIF($5, 0), now(), now())
		RETURNING id, subtopic_id, title, title_hi, passage_content, is_active, created_by, created_at, updated_at
	`, in.SubtopicID, title, titleHi, string(passageRaw), in.CreatedBy)

	out, err := scanGroup(row)
	if err != nil {
		return nil, fmt.Errorf("insert comprehension group: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateGroup(ctx context.Context, id int64, in GroupInput) (*ComprehensionGroup, error) {
	title := strings.TrimSpace(in.Title)
	titleHi := strings.TrimSpace(in.TitleHi)
	if id <= 0 || in.SubtopicID <= 0 || title == "" || titleHi == "" {
		return nil, ErrInvalidInput
	}
	if msgs := content.ValidateContentBlocks(in.Passage); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	if err := s.ensureSubtopicActive(ctx, in.SubtopicID); err != nil {
		return nil, err
	}

	passageRaw, err := content.EncodeBlocks(in.Passage)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE comprehension_groups
		SET subtopic_id = $2, title = $3, title_hi = $4, passage_content = $5::jsonb, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, subtopic_id, title, title_hi, passage_content, is_active, created_by, created_at, updated_at
	`, id, in.SubtopicID, title, titleHi, string(passageRaw))

	out, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("update comprehension group: %w", err)
	}
	return out, nil
}

func (s *Service) GetGroup(ctx context.Context, id int64) (*ComprehensionGroup, []Question, error) {
	if id <= 0 {
		return nil, nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subtopic_id, title, title_hi, passage_content, is_active, created_by, created_at, updated_at
		FROM comprehension_groups
		WHERE id = $1 AND is_active = TRUE
	`, id)
	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrGroupNotFound
		}
		return nil, nil, fmt.Errorf("load comprehension group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subtopic_id, group_id, question_content, options, correct_option,
			explanation_content, difficulty, status, preview_text, preview_text_hi,
			created_by, created_at, updated_at
		FROM questions
		WHERE group_id = $1 AND is_active = TRUE
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query group questions: %w", err)
	}
	defer rows.Close()

	questions := make([]Question, 0)
	for rows.Next() {
		item, err := scanQuestion(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan group question: %w", err)
		}
		questions = append(questions, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate group questions: %w", err)
	}
	return group, questions, nil
}

func (s *Service) ListGroups(ctx context.Context, subtopicID int64) ([]ComprehensionGroup, error) {
	if subtopicID <= 0 {
		return nil, ErrInvalidInput
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subtopic_id, title, title_hi, passage_content, is_active, created_by, created_at, updated_at
		FROM comprehension_groups
		WHERE subtopic_id = $1 AND is_active = TRUE
		ORDER BY id DESC
	`, subtopicID)
	if err != nil {
		return nil, fmt.Errorf("query comprehension groups: %w", err)
	}
	defer rows.Close()

	items := make([]ComprehensionGroup, 0)
	for rows.Next() {
		item, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comprehension group: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comprehension groups: %w", err)
	}
	return items, nil
}

func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deletedID int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE comprehension_groups
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`, id).Scan(&deletedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("delete comprehension group: %w", err)
	}

	// Member questions survive as standalone drafts.
	if _, err := tx.ExecContext(ctx, `
		UPDATE questions
		SET group_id = NULL, status = 'draft', updated_at = now()
		WHERE group_id = $1
	`, id); err != nil {
		return fmt.Errorf("detach group questions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Service) ensureSubtopicActive(ctx context.Context, subtopicID int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM subtopics WHERE id = $1 AND is_active = TRUE)
	`, subtopicID).Scan(&exists); err != nil {
		return fmt.Errorf("check subtopic: %w", err)
	}
	if !exists {
		return ErrSubtopicNotFound
	}
	return nil
}

func (s *Service) ensureGroupActive(ctx context.Context, groupID int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM comprehension_groups WHERE id = $1 AND is_active = TRUE)
	`, groupID).Scan(&exists); err != nil {
		return fmt.Errorf("check comprehension group: %w", err)
	}
	if !exists {
		return ErrGroupNotFound
	}
	return nil
}

func encodePayload(in QuestionInput) (contentRaw, optionsRaw, explanationRaw json.RawMessage, err error) {
	contentRaw, err = content.EncodeBlocks(in.Content)
	if err != nil {
		return nil, nil, nil, err
	}
	optionsRaw, err = content.EncodeOptions(in.Options)
	if err != nil {
		return nil, nil, nil, err
	}
	explanationRaw, err = content.EncodeBlocks(in.Explanation)
	if err != nil {
		return nil, nil, nil, err
	}
	return contentRaw, optionsRaw, explanationRaw, nil
}

func scanQuestion(scanner interface{ Scan(dest ...any) error }) (*Question, error) {
	var out Question
	var groupID sql.NullInt64
	var contentRaw, optionsRaw, explanationRaw []byte
	var createdBy sql.NullInt64
	if err := scanner.Scan(
		&out.ID,
		&out.SubtopicID,
		&groupID,
		&contentRaw,
		&optionsRaw,
		&out.CorrectOption,
		&explanationRaw,
		&out.Difficulty,
		&out.Status,
		&out.PreviewText,
		&out.PreviewTextHi,
		&createdBy,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if groupID.Valid {
		out.GroupID = &groupID.Int64
	}
	if createdBy.Valid {
		out.CreatedBy = &createdBy.Int64
	}

	var err error
	if out.Content, err = content.DecodeBlocks(contentRaw); err != nil {
		return nil, err
	}
	if out.Options, err = content.DecodeOptions(optionsRaw); err != nil {
		return nil, err
	}
	if out.Explanation, err = content.DecodeBlocks(explanationRaw); err != nil {
		return nil, err
	}
	return &out, nil
}

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*ComprehensionGroup, error) {
	var out ComprehensionGroup
	var passageRaw []byte
	var createdBy sql.NullInt64
	if err := scanner.Scan(
		&out.ID,
		&out.SubtopicID,
		&out.Title,
		&out.TitleHi,
		&passageRaw,
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
	var err error
	if out.Passage, err = content.DecodeBlocks(passageRaw); err != nil {
		return nil, err
	}
	return &out, nil
}

func nullInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	if *v <= 0 {
		return nil
	}
	return *v
}
