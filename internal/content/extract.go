package content

import "strings"

// ExtractText flattens a block sequence into a single English plain-text
// string for search indexing, list previews and export. Only text blocks
// contribute; image captions and table payloads are not searchable through
// this path. Block order is preserved, nothing is deduplicated.
func ExtractText(blocks []ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.IsText() {
			parts = append(parts, b.Content)
		}
	}
	return strings.Join(parts, " ")
}

// ExtractTextHindi is ExtractText over the Hindi side of each text block.
func ExtractTextHindi(blocks []ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.IsText() {
			parts = append(parts, b.ContentHi)
		}
	}
	return strings.Join(parts, " ")
}

// ImageURLs returns the url of every image block in block order.
func ImageURLs(blocks []ContentBlock) []string {
	urls := make([]string, 0)
	for _, b := range blocks {
		if b.IsImage() {
			urls = append(urls, b.URL)
		}
	}
	return urls
}
