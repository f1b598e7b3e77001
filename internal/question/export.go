package question

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"quizadmin/internal/content"
)

// exportRow flattens a question for spreadsheet output. Structured content
// is reduced to its extracted text; image URLs are joined so reviewers can
// spot-check media without opening the editor.
type exportRow struct {
	ID            int64
	SubtopicID    int64
	GroupID       string
	PreviewText   string
	PreviewTextHi string
	OptionCount   int
	CorrectOption int
	Difficulty    int
	Status        string
	ImageURLs     string
	CreatedAt     string
}

func (s *Service) exportRows(ctx context.Context, f ListFilter, limit int) ([]exportRow, error) {
	f.Limit = limit
	f.Offset = 0
	items, err := s.ListQuestions(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := make([]exportRow, 0, len(items))
	for _, q := range items {
		groupID := ""
		if q.GroupID != nil {
			groupID = strconv.FormatInt(*q.GroupID, 10)
		}
		urls := content.ImageURLs(q.Content)
		rows = append(rows, exportRow{
			ID:            q.ID,
			SubtopicID:    q.SubtopicID,
			GroupID:       groupID,
			PreviewText:   q.PreviewText,
			PreviewTextHi: q.PreviewTextHi,
			OptionCount:   len(q.Options),
			CorrectOption: q.CorrectOption,
			Difficulty:    q.Difficulty,
			Status:        q.Status,
			ImageURLs:     strings.Join(urls, " "),
			CreatedAt:     q.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows, nil
}

var exportHeaders = []string{
	"id", "subtopic_id", "group_id", "preview_text", "preview_text_hi",
	"option_count", "correct_option", "difficulty", "status", "image_urls", "created_at",
}

func (s *Service) ExportQuestionsExcel(ctx context.Context, f ListFilter, limit int) ([]byte, error) {
	rows, err := s.exportRows(ctx, f, limit)
	if err != nil {
		return nil, err
	}

	xf := excelize.NewFile()
	sheet := xf.GetSheetName(0)
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = xf.SetCellValue(sheet, cell, h)
	}
	for i, r := range rows {
		rowNo := i + 2
		values := []any{
			r.ID, r.SubtopicID, r.GroupID, r.PreviewText, r.PreviewTextHi,
			r.OptionCount, r.CorrectOption, r.Difficulty, r.Status, r.ImageURLs, r.CreatedAt,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNo)
			_ = xf.SetCellValue(sheet, cell, v)
		}
	}
	_ = xf.SetColWidth(sheet, "A", "K", 22)

	var buf bytes.Buffer
	if err := xf.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) ExportQuestionsCSV(ctx context.Context, f ListFilter, limit int) ([]byte, error) {
	rows, err := s.exportRows(ctx, f, limit)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.SubtopicID, 10),
			r.GroupID,
			r.PreviewText,
			r.PreviewTextHi,
			strconv.Itoa(r.OptionCount),
			strconv.Itoa(r.CorrectOption),
			strconv.Itoa(r.Difficulty),
			r.Status,
			r.ImageURLs,
			r.CreatedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
