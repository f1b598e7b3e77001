package content

import (
	"fmt"
	"strings"
)

// Default option-count bounds used by the question form.
const (
	MinOptions = 2
	MaxOptions = 6
)

// ValidateContentBlocks checks a block sequence for structural completeness
// and returns a human-readable message per defect, in block order. An empty
// result means the sequence is valid. The function never fails; the caller
// decides whether the messages block submission.
func ValidateContentBlocks(blocks []ContentBlock) []string {
	errs := []string{}
	if len(blocks) == 0 {
		return append(errs, "At least one content block is required")
	}
	for i, b := range blocks {
		pos := i + 1
		switch {
		case b.IsText():
			if strings.TrimSpace(b.Content) == "" {
				errs = append(errs, fmt.Sprintf("Text block %d: English content is required", pos))
			}
			if strings.TrimSpace(b.ContentHi) == "" {
				errs = append(errs, fmt.Sprintf("Text block %d: Hindi content is required", pos))
			}
		case b.IsImage():
			if strings.TrimSpace(b.URL) == "" {
				errs = append(errs, fmt.Sprintf("Image block %d: Image URL is required", pos))
			}
		}
		// Table blocks carry an opaque payload and are not validated further.
	}
	return errs
}

// ValidateQuestionOptions checks an option set against the default 2..6
// bounds. See ValidateQuestionOptionsRange for the policy details.
func ValidateQuestionOptions(options []QuestionOption) []string {
	return ValidateQuestionOptionsRange(options, MinOptions, MaxOptions)
}

// ValidateQuestionOptionsRange checks an option set against explicit bounds.
// Too few options is a hard defect: the single under-limit message is
// returned immediately and per-option checks are skipped. Too many options
// is a soft defect: the over-limit message is reported but per-option checks
// still run. The asymmetry is long-standing behavior that the editing forms
// rely on; do not symmetrize it.
//
// The correct-option index is deliberately not checked here. Bounds and the
// exactly-one-correct rule are enforced by the question form layer, not by
// this validator.
func ValidateQuestionOptionsRange(options []QuestionOption, min, max int) []string {
	errs := []string{}
	if len(options) < min {
		return append(errs, fmt.Sprintf("At least %d options are required", min))
	}
	if len(options) > max {
		errs = append(errs, fmt.Sprintf("Maximum %d options allowed", max))
	}
	for i, o := range options {
		pos := i + 1
		needsText := o.IsText() || o.IsMixed()
		needsImage := o.IsImage() || o.IsMixed()
		if needsText {
			if strings.TrimSpace(o.Content) == "" {
				errs = append(errs, fmt.Sprintf("Option %d: English text is required", pos))
			}
			if strings.TrimSpace(o.ContentHi) == "" {
				errs = append(errs, fmt.Sprintf("Option %d: Hindi text is required", pos))
			}
		}
		if needsImage {
			if strings.TrimSpace(o.ImageURL) == "" {
				errs = append(errs, fmt.Sprintf("Option %d: Image URL is required", pos))
			}
		}
	}
	return errs
}
