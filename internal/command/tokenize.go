package command

import (
	"unicode"
)

// Token is one tag and the raw text captured for it.
type Token struct {
	Tag    string // the two tag characters, e.g. "05"
	Line   int    // the tag read as hexadecimal
	Text   string // captured text, not trimmed
	Offset int    // rune offset of the tag in the input
}

// Tokenize splits input into tags and their text. Input without any tag
// yields no tokens.
//
// Matching is leftmost first and tokens never overlap. A tag needs a word
// boundary in front of it and at least one whitespace rune after it; its
// text is the shortest run that is followed either by whitespace plus
// another tag, or by the end of input (a single trailing newline counts as
// the end). Text never spans a newline.
func Tokenize(input string) []Token {
	rs := []rune(input)
	var tokens []Token
	for i := 0; i < len(rs); {
		tok, next, ok := matchAt(rs, i)
		if !ok {
			i++
			continue
		}
		tokens = append(tokens, tok)
		i = next
	}
	return tokens
}

// matchAt tries to match a token starting at rs[i].
func matchAt(rs []rune, i int) (Token, int, bool) {
	if !isTag(rs, i) || (i > 0 && isWord(rs[i-1])) {
		return Token{}, 0, false
	}

	ws := i + 2
	wsEnd := ws
	for wsEnd < len(rs) && unicode.IsSpace(rs[wsEnd]) {
		wsEnd++
	}
	if wsEnd == ws {
		return Token{}, 0, false
	}

	// Give back separator whitespace one rune at a time if the text cannot
	// be closed from the greedy position.
	for start := wsEnd; start > ws; start-- {
		for end := start; ; end++ {
			if atEnd(rs, end) || tagAhead(rs, end) {
				return Token{
					Tag:    string(rs[i : i+2]),
					Line:   int(rs[i+1] - '0'),
					Text:   string(rs[start:end]),
					Offset: i,
				}, end, true
			}
			if end >= len(rs) || rs[end] == '\n' {
				break
			}
		}
	}
	return Token{}, 0, false
}

// isTag reports whether rs[i:i+2] is "0" followed by an ASCII digit.
func isTag(rs []rune, i int) bool {
	return i+1 < len(rs) && rs[i] == '0' && rs[i+1] >= '0' && rs[i+1] <= '9'
}

// tagAhead reports whether rs[i:] is whitespace followed by a tag that ends
// at a word boundary.
func tagAhead(rs []rune, i int) bool {
	j := i
	for j < len(rs) && unicode.IsSpace(rs[j]) {
		j++
	}
	if j == i || !isTag(rs, j) {
		return false
	}
	return j+2 == len(rs) || !isWord(rs[j+2])
}

func atEnd(rs []rune, i int) bool {
	return i == len(rs) || (i == len(rs)-1 && rs[i] == '\n')
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
