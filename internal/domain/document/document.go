package document

import "strings"

// BlockKind tags a block as a heading or a paragraph
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
)

func (k BlockKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Block is one document-order unit of narrated text
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// IsHeading reports whether the block is announced rather than spoken
func (b Block) IsHeading() bool {
	return b.Kind == KindHeading
}

// Sentences returns the block's sentences in order. Headings have none.
func (b Block) Sentences() []string {
	if b.IsHeading() {
		return nil
	}
	return SplitSentences(b.Text)
}

// Document is normalized text segmented into blocks, ready for a playback
// or export session.
type Document struct {
	Blocks     []Block `json:"blocks"`
	TotalWords int     `json:"total_words"`
}

// Parse normalizes raw text and segments it. The total word count is taken
// from the normalized text, headings included.
func Parse(raw string) Document {
	text := Normalize(raw)
	return Document{
		Blocks:     Segment(text),
		TotalWords: CountWords(text),
	}
}

// IsEmpty reports whether there is nothing to narrate
func (d Document) IsEmpty() bool {
	return len(d.Blocks) == 0
}

// Sentences flattens every paragraph sentence in document order
func (d Document) Sentences() []string {
	var out []string
	for _, b := range d.Blocks {
		out = append(out, b.Sentences()...)
	}
	return out
}

// Text returns the normalized text the document was built from, with blocks
// rejoined by the paragraph separator.
func (d Document) Text() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, ParagraphSeparator)
}

// CountWords counts whitespace-separated words
func CountWords(text string) int {
	return len(strings.Fields(text))
}
