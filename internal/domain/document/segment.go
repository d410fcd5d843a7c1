package document

import (
	"regexp"
	"strings"
	"unicode"
)

// ParagraphSeparator is the blank-line boundary between blocks
const ParagraphSeparator = "\n\n"

// headingRegex deliberately matches all-caps and digit-only paragraphs too.
var headingRegex = regexp.MustCompile(`^[A-Z0-9\s]+$`)

// Segment splits normalized text into blocks in document order
func Segment(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []Block
	for _, part := range strings.Split(text, ParagraphSeparator) {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		blocks = append(blocks, Block{Kind: Classify(trimmed), Text: trimmed})
	}
	return blocks
}

// Classify reports whether a trimmed paragraph is a heading
func Classify(text string) BlockKind {
	if headingRegex.MatchString(text) {
		return KindHeading
	}
	return KindParagraph
}

// SplitSentences splits paragraph text after every '.', '!' or '?' that is
// followed by whitespace. Punctuation stays with the preceding sentence.
func SplitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if !isTerminal(runes[i]) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentences = appendSentence(sentences, string(runes[start:i+1]))

		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		sentences = appendSentence(sentences, string(runes[start:]))
	}

	return sentences
}

func appendSentence(sentences []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return sentences
	}
	return append(sentences, s)
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
