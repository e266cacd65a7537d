package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type pair struct {
	tag, text string
}

func pairs(tokens []Token) []pair {
	out := make([]pair, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, pair{t.Tag, t.Text})
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []pair
	}{
		{
			name:  "single tag",
			input: "01 HELLO",
			want:  []pair{{"01", "HELLO"}},
		},
		{
			name:  "multiple tags with spaces in text",
			input: "01 Top text 05 Header line 09 .",
			want:  []pair{{"01", "Top text"}, {"05", "Header line"}, {"09", "."}},
		},
		{
			name:  "extra separator whitespace",
			input: "01   spaced\t05\tTAB",
			want:  []pair{{"01", "spaced"}, {"05", "TAB"}},
		},
		{
			name:  "trailing whitespace kept",
			input: "05 end  ",
			want:  []pair{{"05", "end  "}},
		},
		{
			name:  "empty text at end",
			input: "01 hi 05 ",
			want:  []pair{{"01", "hi"}, {"05", ""}},
		},
		{
			name:  "adjacent tag is swallowed as text",
			input: "01 05 X",
			want:  []pair{{"01", "05 X"}},
		},
		{
			name:  "tag inside text splits the line",
			input: "01 Route 05 closed",
			want:  []pair{{"01", "Route"}, {"05", "closed"}},
		},
		{
			name:  "digit run is not a tag",
			input: "01 call 0800 now",
			want:  []pair{{"01", "call 0800 now"}},
		},
		{
			name:  "tag needs a word boundary before it",
			input: "x05 foo 07 bar",
			want:  []pair{{"07", "bar"}},
		},
		{
			name:  "punctuation is a boundary",
			input: "-05 foo",
			want:  []pair{{"05", "foo"}},
		},
		{
			name:  "tag without text",
			input: "01",
			want:  []pair{},
		},
		{
			name:  "final newline ends the text",
			input: "06 line\n",
			want:  []pair{{"06", "line"}},
		},
		{
			name:  "text does not span lines",
			input: "06 one\ntwo",
			want:  []pair{},
		},
		{
			name:  "no tags",
			input: "hello world",
			want:  []pair{},
		},
		{
			name:  "non ASCII text",
			input: "01 Straße 05 Ölstand",
			want:  []pair{{"01", "Straße"}, {"05", "Ölstand"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pairs(Tokenize(tt.input)))
		})
	}
}

func TestTokenizeLineAndOffset(t *testing.T) {
	tokens := Tokenize("09 a 00 b")
	if assert.Len(t, tokens, 2) {
		assert.Equal(t, 9, tokens[0].Line)
		assert.Equal(t, 0, tokens[0].Offset)
		assert.Equal(t, 0, tokens[1].Line)
		assert.Equal(t, 5, tokens[1].Offset)
	}
}
