package document

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain text is only trimmed", input: "  Hello world.  \n", expected: "Hello world."},
		{name: "tags removed", input: "<p>Hello <b>bold</b> world</p>", expected: "Hello bold world"},
		{name: "http url removed", input: "See http://example.com/a?b=c now", expected: "See  now"},
		{name: "https url removed", input: "Go to https://go.dev.", expected: "Go to"},
		{name: "www url removed", input: "Visit www.example.org today", expected: "Visit  today"},
		{name: "tag spanning url", input: `<a href="https://x.y">link</a>`, expected: "link"},
		{name: "unclosed tag kept", input: "a < b and c", expected: "a < b and c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeLeavesNoMatches(t *testing.T) {
	inputs := []string{
		"<div><span>nested</span></div> https://a.b/c www.d.e <br/>",
		"text<>more<x>http://q",
		"www.www.www. and <<double>>",
	}
	for _, in := range inputs {
		out := Normalize(in)
		if tagRegex.MatchString(out) {
			t.Errorf("Normalize(%q) = %q still contains a tag", in, out)
		}
		if urlRegex.MatchString(out) {
			t.Errorf("Normalize(%q) = %q still contains a url", in, out)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text     string
		expected BlockKind
	}{
		{"HELLO 123", KindHeading},
		{"CHAPTER ONE", KindHeading},
		{"2024", KindHeading},
		{"Hello world.", KindParagraph},
		{"HELLO, WORLD", KindParagraph},
		{"Chapter 1", KindParagraph},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	text := "INTRODUCTION\n\nFirst paragraph. Still first.\n\n\n\n  \n\nSecond one!\r\n\r\nTHE END"

	got := Segment(text)
	want := []Block{
		{Kind: KindHeading, Text: "INTRODUCTION"},
		{Kind: KindParagraph, Text: "First paragraph. Still first."},
		{Kind: KindParagraph, Text: "Second one!"},
		{Kind: KindHeading, Text: "THE END"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment() = %#v, want %#v", got, want)
	}
}

func TestSegmentPreservesParagraphOrder(t *testing.T) {
	paragraphs := []string{
		"Alpha starts here. It continues.",
		"BETA",
		"Gamma asks a question? Then answers!",
		"Delta.",
	}
	text := strings.Join(paragraphs, ParagraphSeparator)

	blocks := Segment(text)
	if len(blocks) != len(paragraphs) {
		t.Fatalf("Segment() returned %d blocks, want %d", len(blocks), len(paragraphs))
	}

	for i, b := range blocks {
		if b.IsHeading() {
			if b.Text != paragraphs[i] {
				t.Errorf("block %d = %q, want %q", i, b.Text, paragraphs[i])
			}
			continue
		}
		if rejoined := strings.Join(b.Sentences(), " "); rejoined != paragraphs[i] {
			t.Errorf("block %d rejoined = %q, want %q", i, rejoined, paragraphs[i])
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "three terminators", input: "A. B? C!", expected: []string{"A.", "B?", "C!"}},
		{name: "no terminator", input: "just words", expected: []string{"just words"}},
		{name: "abbreviation splits", input: "Mr. Smith left.", expected: []string{"Mr.", "Smith left."}},
		{name: "decimal does not split", input: "Pi is 3.14 roughly.", expected: []string{"Pi is 3.14 roughly."}},
		{name: "newline counts as whitespace", input: "One.\nTwo.", expected: []string{"One.", "Two."}},
		{name: "repeated punctuation", input: "What?! Really.", expected: []string{"What?!", "Really."}},
		{name: "whitespace only", input: "   ", expected: nil},
		{name: "empty", input: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitSentences(%q) = %#v, want %#v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	doc := Parse("<h1>TITLE</h1>\n\nHello there. Visit https://example.com now!\n\n")

	if doc.TotalWords != 5 {
		t.Errorf("TotalWords = %d, want 5", doc.TotalWords)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("len(Blocks) = %d, want 2", len(doc.Blocks))
	}
	if !doc.Blocks[0].IsHeading() {
		t.Errorf("first block should be a heading")
	}

	want := []string{"Hello there.", "Visit  now!"}
	if got := doc.Sentences(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences() = %#v, want %#v", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	doc := Parse("  <br/>  https://only.a.link  ")
	if !doc.IsEmpty() {
		t.Errorf("IsEmpty() = false, blocks = %#v", doc.Blocks)
	}
	if doc.TotalWords != 0 {
		t.Errorf("TotalWords = %d, want 0", doc.TotalWords)
	}
}
