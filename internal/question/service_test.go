package question

import (
	"strings"
	"testing"

	"quizadmin/internal/content"
)

func validInput() QuestionInput {
	return QuestionInput{
		SubtopicID: 7,
		Content: []content.ContentBlock{
			content.NewTextBlock("What is the capital of France?", "फ्रांस की राजधानी क्या है?"),
		},
		Options: []content.QuestionOption{
			content.NewTextOption("Paris", "पेरिस"),
			content.NewTextOption("Lyon", "ल्यों"),
		},
		CorrectOption: 0,
		Difficulty:    3,
	}
}

func TestValidateQuestionPayloadValid(t *testing.T) {
	if msgs := validateQuestionPayload(validInput()); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %v", msgs)
	}
}

func TestValidateQuestionPayloadCorrectOptionBounds(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		wantMsg bool
	}{
		{"first option", 0, false},
		{"last option", 1, false},
		{"negative", -1, true},
		{"past end", 2, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			in.CorrectOption = tc.correct
			msgs := validateQuestionPayload(in)
			got := false
			for _, m := range msgs {
				if m == "Correct option must reference one of the provided options" {
					got = true
				}
			}
			if got != tc.wantMsg {
				t.Fatalf("correct=%d: bounds message presence = %v, want %v (msgs: %v)", tc.correct, got, tc.wantMsg, msgs)
			}
		})
	}
}

func TestValidateQuestionPayloadOrdersBlocksBeforeOptions(t *testing.T) {
	in := validInput()
	in.Content = []content.ContentBlock{content.NewTextBlock("", "")}
	in.Options = []content.QuestionOption{
		content.NewTextOption("", "पेरिस"),
		content.NewTextOption("Lyon", "ल्यों"),
	}
	msgs := validateQuestionPayload(in)
	want := []string{
		"Text block 1: English content is required",
		"Text block 1: Hindi content is required",
		"Option 1: English text is required",
	}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d: %v", len(want), len(msgs), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("message %d = %q, want %q", i, msgs[i], want[i])
		}
	}
}

func TestValidateQuestionPayloadExplanationPrefixed(t *testing.T) {
	in := validInput()
	in.Explanation = []content.ContentBlock{content.NewImageBlock("", "diagram", "", "")}
	msgs := validateQuestionPayload(in)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %v", msgs)
	}
	if msgs[0] != "Explanation: Image block 1: Image URL is required" {
		t.Fatalf("unexpected message: %q", msgs[0])
	}
}

func TestValidateQuestionPayloadEmptyExplanationSkipped(t *testing.T) {
	in := validInput()
	in.Explanation = nil
	msgs := validateQuestionPayload(in)
	for _, m := range msgs {
		if strings.HasPrefix(m, "Explanation:") {
			t.Fatalf("empty explanation should not produce messages, got %q", m)
		}
	}
}

func TestValidateQuestionPayloadDifficulty(t *testing.T) {
	for _, d := range []int{1, 2, 3, 4, 5} {
		in := validInput()
		in.Difficulty = d
		if msgs := validateQuestionPayload(in); len(msgs) != 0 {
			t.Fatalf("difficulty %d should be valid, got %v", d, msgs)
		}
	}
	for _, d := range []int{0, 6, -1} {
		in := validInput()
		in.Difficulty = d
		msgs := validateQuestionPayload(in)
		if len(msgs) != 1 || msgs[0] != "Difficulty must be between 1 and 5" {
			t.Fatalf("difficulty %d: expected single range message, got %v", d, msgs)
		}
	}
}

func TestValidateQuestionPayloadTooFewOptionsSuppressesCorrectOptionMsg(t *testing.T) {
	in := validInput()
	in.Options = in.Options[:1]
	in.CorrectOption = 0
	msgs := validateQuestionPayload(in)
	// Under the minimum the option validator reports only the count defect;
	// correct_option 0 still addresses the single option so no bounds message.
	if len(msgs) != 1 || msgs[0] != "At least 2 options are required" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Messages: []string{"a", "b"}}
	if got := err.Error(); got != "validation failed: a; b" {
		t.Fatalf("unexpected error string: %q", got)
	}
}
