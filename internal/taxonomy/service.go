// Package taxonomy manages the content hierarchy exams > subjects > topics >
// subtopics. Every node carries a bilingual name pair and is soft-deleted via
// is_active so questions keep resolving their ancestry.
package taxonomy

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
	ErrExamNotFound     = errors.New("exam not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrSubtopicNotFound = errors.New("subtopic not found")
	ErrDuplicateCode    = errors.New("exam code already in use")
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Exam struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	NameHi      string    `json:"name_hi"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ExamInput struct {
	Name        string
	NameHi      string
	Code        string
	Description string
}

type Subject struct {
	ID        int64     `json:"id"`
	ExamID    int64     `json:"exam_id"`
	Name      string    `json:"name"`
	NameHi    string    `json:"name_hi"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Topic struct {
	ID        int64     `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Name      string    `json:"name"`
	NameHi    string    `json:"name_hi"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Subtopic struct {
	ID        int64     `json:"id"`
	TopicID   int64     `json:"topic_id"`
	Name      string    `json:"name"`
	NameHi    string    `json:"name_hi"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NodeInput covers subjects, topics and subtopics: a bilingual name pair
// under a parent node.
type NodeInput struct {
	ParentID int64
	Name     string
	NameHi   string
}

func (s *Service) CreateExam(ctx context.Context, actorID int64, in ExamInput) (*Exam, error) {
	name := strings.TrimSpace(in.Name)
	nameHi := strings.TrimSpace(in.NameHi)
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	description := strings.TrimSpace(in.Description)
	if name == "" || nameHi == "" {
		return nil, fmt.Errorf("%w: name and name_hi are required", ErrInvalidInput)
	}

	if code != "" {
		var taken bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM exams WHERE code = $1 AND is_active = TRUE)
		`, code).Scan(&taken); err != nil {
			return nil, fmt.Errorf("check exam code: %w", err)
		}
		if taken {
			return nil, ErrDuplicateCode
		}
	}

	var out Exam
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO exams (name, name_hi, code, description, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), TRUE, now(), now())
		RETURNING id, name, name_hi, COALESCE(code,''), COALESCE(description,''), is_active, created_at, updated_at
	`, name, nameHi, code, description).Scan(
		&out.ID, &out.Name, &out.NameHi, &out.Code, &out.Description, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exam: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "exam_created", "exam", out.ID, map[string]any{
		"name": out.Name,
		"code": out.Code,
	})
	return &out, nil
}

func (s *Service) ListExams(ctx context.Context, activeOnly bool) ([]Exam, error) {
	query := `
		SELECT id, name, name_hi, COALESCE(code,''), COALESCE(description,''), is_active, created_at, updated_at
		FROM exams
	`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	out := make([]Exam, 0)
	for rows.Next() {
		var it Exam
		if err := rows.Scan(&it.ID, &it.Name, &it.NameHi, &it.Code, &it.Description, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateExam(ctx context.Context, actorID, id int64, in ExamInput) (*Exam, error) {
	name := strings.TrimSpace(in.Name)
	nameHi := strings.TrimSpace(in.NameHi)
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	description := strings.TrimSpace(in.Description)
	if id <= 0 || name == "" || nameHi == "" {
		return nil, fmt.Errorf("%w: name and name_hi are required", ErrInvalidInput)
	}

	var out Exam
	err := s.db.QueryRowContext(ctx, `
		UPDATE exams
		SET name = $2,
			name_hi = $3,
			code = NULLIF($4,''),
			description = NULLIF($5,''),
			updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, name, name_hi, COALESCE(code,''), COALESCE(description,''), is_active, created_at, updated_at
	`, id, name, nameHi, code, description).Scan(
		&out.ID, &out.Name, &out.NameHi, &out.Code, &out.Description, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "exam_updated", "exam", out.ID, map[string]any{
		"name": out.Name,
		"code": out.Code,
	})
	return &out, nil
}

func (s *Service) DeactivateExam(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if err := s.softDelete(ctx, "exams", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExamNotFound
		}
		return err
	}
	_ = s.writeAudit(ctx, actorID, "exam_deactivated", "exam", id, map[string]any{})
	return nil
}

func (s *Service) CreateSubject(ctx context.Context, actorID int64, in NodeInput) (*Subject, error) {
	name, nameHi, err := normalizeNode(in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParentActive(ctx, "exams", in.ParentID, ErrExamNotFound); err != nil {
		return nil, err
	}

	var out Subject
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO subjects (exam_id, name, name_hi, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, now(), now())
		RETURNING id, exam_id, name, name_hi, is_active, created_at, updated_at
	`, in.ParentID, name, nameHi).Scan(
		&out.ID, &out.ExamID, &out.Name, &out.NameHi, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subject: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "subject_created", "subject", out.ID, map[string]any{
		"exam_id": out.ExamID,
		"name":    out.Name,
	})
	return &out, nil
}

func (s *Service) ListSubjects(ctx context.Context, examID int64, activeOnly bool) ([]Subject, error) {
	if examID <= 0 {
		return nil, ErrInvalidInput
	}
	query := `
		SELECT id, exam_id, name, name_hi, is_active, created_at, updated_at
		FROM subjects
		WHERE exam_id = $1
	`
	if activeOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, examID)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	out := make([]Subject, 0)
	for rows.Next() {
		var it Subject
		if err := rows.Scan(&it.ID, &it.ExamID, &it.Name, &it.NameHi, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateSubject(ctx context.Context, actorID, id int64, in NodeInput) (*Subject, error) {
	name, nameHi, err := normalizeNode(in)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.ensureParentActive(ctx, "exams", in.ParentID, ErrExamNotFound); err != nil {
		return nil, err
	}

	var out Subject
	err = s.db.QueryRowContext(ctx, `
		UPDATE subjects
		SET exam_id = $2, name = $3, name_hi = $4, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, exam_id, name, name_hi, is_active, created_at, updated_at
	`, id, in.ParentID, name, nameHi).Scan(
		&out.ID, &out.ExamID, &out.Name, &out.NameHi, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("update subject: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "subject_updated", "subject", out.ID, map[string]any{
		"exam_id": out.ExamID,
		"name":    out.Name,
	})
	return &out, nil
}

func (s *Service) DeactivateSubject(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if err := s.softDelete(ctx, "subjects", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubjectNotFound
		}
		return err
	}
	_ = s.writeAudit(ctx, actorID, "subject_deactivated", "subject", id, map[string]any{})
	return nil
}

func (s *Service) CreateTopic(ctx context.Context, actorID int64, in NodeInput) (*Topic, error) {
	name, nameHi, err := normalizeNode(in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParentActive(ctx, "subjects", in.ParentID, ErrSubjectNotFound); err != nil {
		return nil, err
	}

	var out Topic
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO topics (subject_id, name, name_hi, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, now(), now())
		RETURNING id, subject_id, name, name_hi, is_active, created_at, updated_at
	`, in.ParentID, name, nameHi).Scan(
		&out.ID, &out.SubjectID, &out.Name, &out.NameHi, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert topic: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "topic_created", "topic", out.ID, map[string]any{
		"subject_id": out.SubjectID,
		"name":       out.Name,
	})
	return &out, nil
}

func (s *Service) ListTopics(ctx context.Context, subjectID int64, activeOnly bool) ([]Topic, error) {
	if subjectID <= 0 {
		return nil, ErrInvalidInput
	}
	query := `
		SELECT id, subject_id, name, name_hi, is_active, created_at, updated_at
		FROM topics
		WHERE subject_id = $1
	`
	if activeOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	out := make([]Topic, 0)
	for rows.Next() {
		var it Topic
		if err := rows.Scan(&it.ID, &it.SubjectID, &it.Name, &it.NameHi, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateTopic(ctx context.Context, actorID, id int64, in NodeInput) (*Topic, error) {
	name, nameHi, err := normalizeNode(in)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.ensureParentActive(ctx, "subjects", in.ParentID, ErrSubjectNotFound); err != nil {
		return nil, err
	}

	var out Topic
	err = s.db.QueryRowContext(ctx, `
		UPDATE topics
		SET subject_id = $2, name = $3, name_hi = $4, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, subject_id, name, name_hi, is_active, created_at, updated_at
	`, id, in.ParentID, name, nameHi).Scan(
		&out.ID, &out.SubjectID, &out.Name, &out.NameHi, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("update topic: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "topic_updated", "topic", out.ID, map[string]any{
		"subject_id": out.SubjectID,
		"name":       out.Name,
	})
	return &out, nil
}

func (s *Service) DeactivateTopic(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if err := s.softDelete(ctx, "topics", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTopicNotFound
		}
		return err
	}
	_ = s.writeAudit(ctx, actorID, "topic_deactivated", "topic", id, map[string]any{})
	return nil
}

func (s *Service) CreateSubtopic(ctx context.Context, actorID int64, in NodeInput) (*Subtopic, error) {
	name, nameHi, err := normalizeNode(in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParentActive(ctx, "topics", in.ParentID, ErrTopicNotFound); err != nil {
		return nil, err
	}

	var out Subtopic
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO subtopics (topic_id, name, name_hi, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, now(), now())
		RETURNING id, topic_id, name, name_hi, is_active, created_at, updated_at
	`, in.ParentID, name, nameHi).Scan(
		&out.ID, &out.TopicID, &out.Name, &out.NameHi, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subtopic: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "subtopic_created", "subtopic", out.ID, map[string]any{
		"topic_id": out.TopicID,
		"name":     out.Name,
	})
	return &out, nil
}

func (s *Service) ListSubtopics(ctx context.Context, topicID int64, activeOnly bool) ([]Subtopic, error) {
	if topicID <= 0 {
		return nil, ErrInvalidInput
	}
	query := `
		SELECT id, topic_id, name, name_hi, is_active, created_at, updated_at
		FROM subtopics
		WHERE topic_id = $1
	`
	if activeOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("query subtopics: %w", err)
	}
	defer rows.Close()

	out := make([]Subtopic, 0)
	for rows.Next() {
		var it Subtopic
		if err := rows.Scan(&it.ID, &it.TopicID, &it.Name, &it.NameHi, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subtopic: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtopics: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateSubtopic(ctx context.Context, actorID, id int64, in NodeInput) (*Subtopic, error) {
	name, nameHi, err := normalizeNode(in)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.ensureParentActive(ctx, "topics", in.ParentID, ErrTopicNotFound); err != nil {
		return nil, err
	}

	var out Subtopic
	err = s.db.QueryRowContext(ctx, `
		UPDATE subtopics
		SET topic_id = $2, name = $3, name_hi = $4, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, topic_id, name, name_hi, is_active, created_at, updated_at
	`, id, in.ParentID, name, nameHi).Scan(
		&out.ID, &out.TopicID, &out.Name, &out.NameHi, &out.IsActive, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubtopicNotFound
		}
		return nil, fmt.Errorf("update subtopic: %w", err)
	}

	_ = s.writeAudit(ctx, actorID, "subtopic_updated", "subtopic", out.ID, map[string]any{
		"topic_id": out.TopicID,
		"name":     out.Name,
	})
	return &out, nil
}

func (s *Service) DeactivateSubtopic(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if err := s.softDelete(ctx, "subtopics", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubtopicNotFound
		}
		return err
	}
	_ = s.writeAudit(ctx, actorID, "subtopic_deactivated", "subtopic", id, map[string]any{})
	return nil
}

func normalizeNode(in NodeInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	nameHi := strings.TrimSpace(in.NameHi)
	if in.ParentID <= 0 || name == "" || nameHi == "" {
		return "", "", fmt.Errorf("%w: parent id, name and name_hi are required", ErrInvalidInput)
	}
	return name, nameHi, nil
}

// ensureParentActive guards child creation against pointing at a deactivated
// or missing ancestor. The table name is always one of our own constants,
// never user input.
func (s *Service) ensureParentActive(ctx context.Context, table string, id int64, notFound error) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND is_active = TRUE)`, table)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("check parent %s: %w", table, err)
	}
	if !exists {
		return notFound
	}
	return nil
}

func (s *Service) softDelete(ctx context.Context, table string, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`, table)
	var deletedID int64
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&deletedID); err != nil {
		return err
	}
	return nil
}

func (s *Service) writeAudit(ctx context.Context, userID int64, action, entityType string, entityID int64, payload map[string]any) error {
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
