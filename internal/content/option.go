package content

import (
	"encoding/json"
	"fmt"
)

const (
	OptionText  = "text"
	OptionImage = "image"
	OptionMixed = "mixed"
)

// QuestionOption is one selectable answer choice. A mixed option requires
// text in both languages and an image at the same time; it never silently
// degrades to text-only or image-only.
type QuestionOption struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	ContentHi string `json:"content_hi,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Alt       string `json:"alt,omitempty"`
}

func (o QuestionOption) IsText() bool  { return o.Type == OptionText }
func (o QuestionOption) IsImage() bool { return o.Type == OptionImage }
func (o QuestionOption) IsMixed() bool { return o.Type == OptionMixed }

func NewTextOption(content, contentHi string) QuestionOption {
	return QuestionOption{
		Type:      OptionText,
		Content:   content,
		ContentHi: contentHi,
	}
}

func NewImageOption(imageURL, alt string) QuestionOption {
	return QuestionOption{
		Type:     OptionImage,
		ImageURL: imageURL,
		Alt:      alt,
	}
}

func NewMixedOption(content, contentHi, imageURL, alt string) QuestionOption {
	return QuestionOption{
		Type:      OptionMixed,
		Content:   content,
		ContentHi: contentHi,
		ImageURL:  imageURL,
		Alt:       alt,
	}
}

func (o QuestionOption) MarshalJSON() ([]byte, error) {
	switch o.Type {
	case OptionText:
		return json.Marshal(map[string]any{
			"type":       o.Type,
			"content":    o.Content,
			"content_hi": o.ContentHi,
		})
	case OptionImage:
		return json.Marshal(map[string]any{
			"type":      o.Type,
			"image_url": o.ImageURL,
			"alt":       o.Alt,
		})
	case OptionMixed:
		return json.Marshal(map[string]any{
			"type":       o.Type,
			"content":    o.Content,
			"content_hi": o.ContentHi,
			"image_url":  o.ImageURL,
			"alt":        o.Alt,
		})
	default:
		type plain QuestionOption
		return json.Marshal(plain(o))
	}
}

func (o *QuestionOption) UnmarshalJSON(raw []byte) error {
	type plain QuestionOption
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*o = QuestionOption(p)
	return nil
}

func DecodeOptions(raw json.RawMessage) ([]QuestionOption, error) {
	if len(raw) == 0 {
		return []QuestionOption{}, nil
	}
	var options []QuestionOption
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("decode question options: %w", err)
	}
	if options == nil {
		options = []QuestionOption{}
	}
	return options, nil
}

func EncodeOptions(options []QuestionOption) (json.RawMessage, error) {
	if options == nil {
		options = []QuestionOption{}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode question options: %w", err)
	}
	return raw, nil
}
