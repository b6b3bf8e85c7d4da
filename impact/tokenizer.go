package impact

import "unicode"

// Tokenizer lexes impact bytecode's text representation one token at a
// time, tracking line/column for diagnostics.
type Tokenizer struct {
	cursor *Cursor
	line   int
	column int
}

// NewTokenizer wraps content for tokenization.
func NewTokenizer(content string) *Tokenizer {
	return &Tokenizer{cursor: NewCursor(content), line: 1, column: 1}
}

// Advance lexes and returns the next token, or a TokenEOF token once the
// input is exhausted.
func (t *Tokenizer) Advance() Token {
	start := Position{Line: t.line, Column: t.column, Index: t.cursor.Index()}

	r, ok := t.next()
	if !ok {
		return Token{Kind: TokenEOF, Content: "", Span: Span{Start: start, End: start}}
	}

	var kind TokenKind
	switch {
	case r == '#':
		t.skipWhile(func(c rune) bool { return c != '\n' && c != '\r' })
		kind = TokenComment
	case r == ' ' || r == '\t':
		t.skipWhile(func(c rune) bool { return c == ' ' || c == '\t' })
		kind = TokenWhitespace
	case r == '\r':
		t.optional('\n')
		t.nextLine()
		kind = TokenNewline
	case r == '\n':
		t.nextLine()
		kind = TokenNewline
	case r >= '0' && r <= '9':
		t.skipWhile(unicode.IsDigit)
		next := t.cursor.First()
		if isAlphanumericOrUnderscoreOrColon(next) {
			t.skip()
			t.skipWhile(isAlphanumericOrUnderscoreOrColon)
			kind = TokenIdentifier
		} else {
			kind = TokenNumber
		}
	case isIdentifierStart(r):
		t.skipWhile(isAlphanumericOrUnderscoreOrColon)
		kind = TokenIdentifier
	default:
		kind = TokenUnknown
	}

	content := t.cursor.Slice()
	end := Position{Line: t.line, Column: t.column, Index: t.cursor.Index()}
	return Token{Kind: kind, Content: content, Span: Span{Start: start, End: end}}
}

func isIdentifierStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isAlphanumericOrUnderscoreOrColon(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':'
}

func (t *Tokenizer) first() rune { return t.cursor.First() }

func (t *Tokenizer) next() (rune, bool) {
	t.column++
	return t.cursor.Next()
}

func (t *Tokenizer) skip() { t.next() }

func (t *Tokenizer) skipWhile(predicate func(rune) bool) {
	for predicate(t.cursor.First()) && !t.cursor.IsEOF() {
		t.skip()
	}
}

func (t *Tokenizer) nextLine() {
	t.line++
	t.column = 1
}

func (t *Tokenizer) optional(r rune) bool {
	if t.first() == r {
		t.skip()
		return true
	}
	return false
}
