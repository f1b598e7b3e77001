package content

import (
	"encoding/json"
	"testing"
)

func TestExtractTextSkipsNonTextBlocks(t *testing.T) {
	blocks := []ContentBlock{
		NewTextBlock("Read the passage below.", "नीचे दिया गया गद्यांश पढ़ें।"),
		NewImageBlock("https://cdn.example.com/a.png", "", "A caption that must not leak", ""),
		NewTableBlock([]byte(`{"rows":[]}`), "table caption", ""),
		NewTextBlock("Then answer the question.", "फिर प्रश्न का उत्तर दें।"),
	}

	got := ExtractText(blocks)
	want := "Read the passage below. Then answer the question."
	if got != want {
		t.Fatalf("want %q got %q", want, got)
	}

	gotHi := ExtractTextHindi(blocks)
	wantHi := "नीचे दिया गया गद्यांश पढ़ें। फिर प्रश्न का उत्तर दें।"
	if gotHi != wantHi {
		t.Fatalf("want %q got %q", wantHi, gotHi)
	}
}

func TestExtractTextRoundTrip(t *testing.T) {
	blocks := []ContentBlock{
		NewTextBlock("first", "पहला"),
		NewTextBlock("second", "दूसरा"),
	}
	flat := ExtractText(blocks)
	again := ExtractText([]ContentBlock{NewTextBlock(flat, "")})
	if again != flat {
		t.Fatalf("re-extraction changed output: %q vs %q", again, flat)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	if got := ExtractText(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := ExtractText([]ContentBlock{NewImageBlock("u", "", "", "")}); got != "" {
		t.Fatalf("expected empty string for image-only blocks, got %q", got)
	}
}

func TestImageURLsPreservesOrder(t *testing.T) {
	blocks := []ContentBlock{
		NewImageBlock("https://cdn.example.com/1.png", "", "", ""),
		NewTextBlock("between", "बीच में"),
		NewImageBlock("https://cdn.example.com/2.png", "", "", ""),
		NewImageBlock("https://cdn.example.com/1.png", "", "", ""),
	}
	got := ImageURLs(blocks)
	want := []string{
		"https://cdn.example.com/1.png",
		"https://cdn.example.com/2.png",
		"https://cdn.example.com/1.png",
	}
	if len(got) != len(want) {
		t.Fatalf("want %d urls, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("url %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestBlockJSONShapePerVariant(t *testing.T) {
	raw, err := json.Marshal(NewTextBlock("hello", ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if obj["type"] != "text" {
		t.Fatalf("expected type text, got %v", obj["type"])
	}
	if _, ok := obj["content_hi"]; !ok {
		t.Fatalf("empty content_hi must still be present: %s", raw)
	}
	if _, ok := obj["url"]; ok {
		t.Fatalf("text block must not carry image fields: %s", raw)
	}
}

func TestDecodeBlocksRoundTrip(t *testing.T) {
	in := []ContentBlock{
		NewTextBlock("body", "मुख्य"),
		NewTableBlock([]byte(`{"rows":[["x"]]}`), "cap", "कैप"),
	}
	raw, err := EncodeBlocks(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeBlocks(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || !out[0].IsText() || !out[1].IsTable() {
		t.Fatalf("unexpected round trip result: %+v", out)
	}
	if out[0].ContentHi != "मुख्य" {
		t.Fatalf("hindi content lost in round trip: %+v", out[0])
	}
}

func TestDecodeOptionsEmptyPayload(t *testing.T) {
	out, err := DecodeOptions(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty slice, got %v", out)
	}
}
