package content

import (
	"strings"
	"testing"
)

func TestValidateContentBlocksValid(t *testing.T) {
	blocks := []ContentBlock{
		NewTextBlock("The capital of France", "फ्रांस की राजधानी"),
		NewImageBlock("https://cdn.example.com/map.png", "map", "", ""),
		NewTableBlock([]byte(`{"rows":[["a","b"]]}`), "", ""),
	}
	if errs := ValidateContentBlocks(blocks); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateContentBlocksEmpty(t *testing.T) {
	errs := ValidateContentBlocks(nil)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if !strings.Contains(errs[0], "At least one content block") {
		t.Fatalf("unexpected message %q", errs[0])
	}
}

func TestValidateContentBlocksMissingHindiOnly(t *testing.T) {
	blocks := []ContentBlock{
		NewTextBlock("Only English here", "   "),
	}
	errs := ValidateContentBlocks(blocks)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if errs[0] != "Text block 1: Hindi content is required" {
		t.Fatalf("unexpected message %q", errs[0])
	}
}

func TestValidateContentBlocksPerBlockMessages(t *testing.T) {
	tests := []struct {
		name   string
		blocks []ContentBlock
		want   []string
	}{
		{
			name:   "image without url",
			blocks: []ContentBlock{NewImageBlock("", "", "", "")},
			want:   []string{"Image block 1: Image URL is required"},
		},
		{
			name:   "text both languages blank",
			blocks: []ContentBlock{NewTextBlock("", "")},
			want: []string{
				"Text block 1: English content is required",
				"Text block 1: Hindi content is required",
			},
		},
		{
			name: "positions are one-based and ordered",
			blocks: []ContentBlock{
				NewTextBlock("ok", "ठीक"),
				NewImageBlock("", "", "", ""),
				NewTextBlock("", "हिंदी"),
			},
			want: []string{
				"Image block 2: Image URL is required",
				"Text block 3: English content is required",
			},
		},
		{
			name:   "table never validated",
			blocks: []ContentBlock{NewTableBlock(nil, "", "")},
			want:   []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateContentBlocks(tc.blocks)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d errors, got %v", len(tc.want), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("error %d: want %q got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestValidateQuestionOptionsUnderLimitShortCircuits(t *testing.T) {
	errs := ValidateQuestionOptions([]QuestionOption{
		NewTextOption("", ""),
	})
	if len(errs) != 1 {
		t.Fatalf("expected only the under-limit error, got %v", errs)
	}
	if errs[0] != "At least 2 options are required" {
		t.Fatalf("unexpected message %q", errs[0])
	}
}

func TestValidateQuestionOptionsOverLimitContinues(t *testing.T) {
	options := make([]QuestionOption, 0, 7)
	for i := 0; i < 7; i++ {
		options = append(options, NewTextOption("Choice", "विकल्प"))
	}
	errs := ValidateQuestionOptions(options)
	if len(errs) != 1 {
		t.Fatalf("expected only the over-limit error for well-formed options, got %v", errs)
	}
	if errs[0] != "Maximum 6 options allowed" {
		t.Fatalf("unexpected message %q", errs[0])
	}
}

func TestValidateQuestionOptionsOverLimitWithFieldErrors(t *testing.T) {
	options := []QuestionOption{
		NewTextOption("a", "अ"),
		NewTextOption("b", "ब"),
		NewTextOption("c", "स"),
		NewTextOption("d", "द"),
		NewTextOption("e", "इ"),
		NewTextOption("f", "फ"),
		NewImageOption("", ""),
	}
	errs := ValidateQuestionOptions(options)
	want := []string{
		"Maximum 6 options allowed",
		"Option 7: Image URL is required",
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Fatalf("error %d: want %q got %q", i, want[i], errs[i])
		}
	}
}

func TestValidateQuestionOptionsMixedPartial(t *testing.T) {
	errs := ValidateQuestionOptions([]QuestionOption{
		NewMixedOption("Both texts present", "दोनों भाषाएँ", "", ""),
		NewTextOption("Other", "अन्य"),
	})
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error for the mixed option, got %v", errs)
	}
	if errs[0] != "Option 1: Image URL is required" {
		t.Fatalf("unexpected message %q", errs[0])
	}
}

func TestValidateQuestionOptionsTwoValidTextOptions(t *testing.T) {
	errs := ValidateQuestionOptions([]QuestionOption{
		NewTextOption("Paris", "पेरिस"),
		NewTextOption("Lyon", "ल्यों"),
	})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateQuestionOptionsByVariant(t *testing.T) {
	tests := []struct {
		name    string
		options []QuestionOption
		want    []string
	}{
		{
			name: "image option without url",
			options: []QuestionOption{
				NewImageOption("", "alt only"),
				NewTextOption("ok", "ठीक"),
			},
			want: []string{"Option 1: Image URL is required"},
		},
		{
			name: "text option missing english",
			options: []QuestionOption{
				NewTextOption("", "हिंदी"),
				NewTextOption("ok", "ठीक"),
			},
			want: []string{"Option 1: English text is required"},
		},
		{
			name: "mixed missing everything",
			options: []QuestionOption{
				NewMixedOption("", "", "", ""),
				NewTextOption("ok", "ठीक"),
			},
			want: []string{
				"Option 1: English text is required",
				"Option 1: Hindi text is required",
				"Option 1: Image URL is required",
			},
		},
		{
			name: "valid mixed set",
			options: []QuestionOption{
				NewMixedOption("See figure", "चित्र देखें", "https://cdn.example.com/fig.png", "figure"),
				NewImageOption("https://cdn.example.com/alt.png", ""),
			},
			want: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateQuestionOptions(tc.options)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d errors, got %v", len(tc.want), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("error %d: want %q got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestValidateQuestionOptionsCustomRange(t *testing.T) {
	options := []QuestionOption{
		NewTextOption("a", "अ"),
		NewTextOption("b", "ब"),
		NewTextOption("c", "स"),
	}
	if errs := ValidateQuestionOptionsRange(options, 4, 6); len(errs) != 1 {
		t.Fatalf("expected under-limit error for min 4, got %v", errs)
	}
	if errs := ValidateQuestionOptionsRange(options, 2, 2); len(errs) != 1 {
		t.Fatalf("expected over-limit error for max 2, got %v", errs)
	}
}
