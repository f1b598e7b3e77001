// Package content models the structured bilingual content used for question
// bodies, explanations, comprehension passages and answer options. Blocks and
// options are tagged unions over a `type` discriminant and are stored verbatim
// as JSON arrays on their parent row.
package content

import (
	"encoding/json"
	"fmt"
)

const (
	BlockText  = "text"
	BlockImage = "image"
	BlockTable = "table"
)

// ContentBlock is one paragraph, image or table unit. Which fields are
// meaningful depends on Type; the rest stay zero. Values are never mutated
// after construction, an edit produces a new block.
type ContentBlock struct {
	Type      string          `json:"type"`
	Content   string          `json:"content,omitempty"`
	ContentHi string          `json:"content_hi,omitempty"`
	URL       string          `json:"url,omitempty"`
	Alt       string          `json:"alt,omitempty"`
	Caption   string          `json:"caption,omitempty"`
	CaptionHi string          `json:"caption_hi,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (b ContentBlock) IsText() bool  { return b.Type == BlockText }
func (b ContentBlock) IsImage() bool { return b.Type == BlockImage }
func (b ContentBlock) IsTable() bool { return b.Type == BlockTable }

// NewTextBlock returns a bilingual prose block. Empty values are legal until
// the block is validated.
func NewTextBlock(content, contentHi string) ContentBlock {
	return ContentBlock{
		Type:      BlockText,
		Content:   content,
		ContentHi: contentHi,
	}
}

func NewImageBlock(url, alt, caption, captionHi string) ContentBlock {
	return ContentBlock{
		Type:      BlockImage,
		URL:       url,
		Alt:       alt,
		Caption:   caption,
		CaptionHi: captionHi,
	}
}

// NewTableBlock wraps an opaque tabular payload. The payload is stored as-is
// and never validated beyond being carried along.
func NewTableBlock(data json.RawMessage, caption, captionHi string) ContentBlock {
	return ContentBlock{
		Type:      BlockTable,
		Data:      data,
		Caption:   caption,
		CaptionHi: captionHi,
	}
}

// MarshalJSON emits exactly the fields that belong to the block's variant so
// that a text block never carries image fields and vice versa. Variant-owned
// string fields are always present, even when empty, matching how the editing
// UI round-trips partially filled blocks.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case BlockText:
		return json.Marshal(map[string]any{
			"type":       b.Type,
			"content":    b.Content,
			"content_hi": b.ContentHi,
		})
	case BlockImage:
		return json.Marshal(map[string]any{
			"type":       b.Type,
			"url":        b.URL,
			"alt":        b.Alt,
			"caption":    b.Caption,
			"caption_hi": b.CaptionHi,
		})
	case BlockTable:
		data := b.Data
		if len(data) == 0 {
			data = json.RawMessage(`null`)
		}
		return json.Marshal(map[string]any{
			"type":       b.Type,
			"data":       data,
			"caption":    b.Caption,
			"caption_hi": b.CaptionHi,
		})
	default:
		type plain ContentBlock
		return json.Marshal(plain(b))
	}
}

func (b *ContentBlock) UnmarshalJSON(raw []byte) error {
	type plain ContentBlock
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*b = ContentBlock(p)
	return nil
}

// DecodeBlocks parses a stored JSON array of content blocks. An empty or
// missing payload decodes to an empty slice, not an error.
func DecodeBlocks(raw json.RawMessage) ([]ContentBlock, error) {
	if len(raw) == 0 {
		return []ContentBlock{}, nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	return blocks, nil
}

func EncodeBlocks(blocks []ContentBlock) (json.RawMessage, error) {
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode content blocks: %w", err)
	}
	return raw, nil
}
