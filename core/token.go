package core

import (
	"fmt"
	"strings"
	"unicode"
)

type TokenKind int

const (
	UNKNOWN TokenKind = iota
	EOF

	// language tokens
	COMMA
	SEMICOLON
	DOT
	COLON
	QUESTION
	LEFT_PAREN
	RIGHT_PAREN
	LEFT_BRACKET
	RIGHT_BRACKET
	LEFT_BRACE
	RIGHT_BRACE
	SET // =
	ARROW
	CLOSED_RANGE    // ...
	HALF_OPEN_RANGE // ..<

	// compound assignment
	PLUS_SET
	MINUS_SET
	TIMES_SET
	DIVIDE_SET
	MODULUS_SET

	// binary operators
	PLUS
	MINUS
	TIMES
	DIVIDE
	MODULUS
	AND
	OR
	COALESCE // ??
	GREATER
	LESS
	EQ
	GEQ
	LEQ
	NEQ

	// unary operators
	NOT

	// keywords
	LET_KEYWORD
	VAR_KEYWORD
	FUNC_KEYWORD
	RETURN_KEYWORD
	IF_KEYWORD
	ELSE_KEYWORD
	WHILE_KEYWORD
	FOR_KEYWORD
	IN_KEYWORD
	SWITCH_KEYWORD
	CASE_KEYWORD
	DEFAULT_KEYWORD
	BREAK_KEYWORD
	CONTINUE_KEYWORD
	FALLTHROUGH_KEYWORD

	// literals
	IDENTIFIER
	TRUE_LITERAL
	FALSE_LITERAL
	STRING_LITERAL
	INT_LITERAL
	FLOAT_LITERAL
	NIL_LITERAL
)

var keywords = map[string]TokenKind{
	"let":         LET_KEYWORD,
	"var":         VAR_KEYWORD,
	"func":        FUNC_KEYWORD,
	"return":      RETURN_KEYWORD,
	"if":          IF_KEYWORD,
	"else":        ELSE_KEYWORD,
	"while":       WHILE_KEYWORD,
	"for":         FOR_KEYWORD,
	"in":          IN_KEYWORD,
	"switch":      SWITCH_KEYWORD,
	"case":        CASE_KEYWORD,
	"default":     DEFAULT_KEYWORD,
	"break":       BREAK_KEYWORD,
	"continue":    CONTINUE_KEYWORD,
	"fallthrough": FALLTHROUGH_KEYWORD,
	"true":        TRUE_LITERAL,
	"false":       FALSE_LITERAL,
	"nil":         NIL_LITERAL,
}

// Position is a 1-based line/column pair plus the rune offset into the source.
type Position struct {
	Line   int
	Col    int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("[%d:%d]", p.Line, p.Col)
}

type Token struct {
	Kind    TokenKind
	Pos     Position
	Payload string
	Length  uint
}

func (k TokenKind) String() string {
	return Token{Kind: k}.String()
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case COMMA:
		return ","
	case SEMICOLON:
		return ";"
	case DOT:
		return "."
	case COLON:
		return ":"
	case QUESTION:
		return "?"
	case LEFT_PAREN:
		return "("
	case RIGHT_PAREN:
		return ")"
	case LEFT_BRACKET:
		return "["
	case RIGHT_BRACKET:
		return "]"
	case LEFT_BRACE:
		return "{"
	case RIGHT_BRACE:
		return "}"
	case SET:
		return "="
	case ARROW:
		return "->"
	case CLOSED_RANGE:
		return "..."
	case HALF_OPEN_RANGE:
		return "..<"

	case PLUS_SET:
		return "+="
	case MINUS_SET:
		return "-="
	case TIMES_SET:
		return "*="
	case DIVIDE_SET:
		return "/="
	case MODULUS_SET:
		return "%="

	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case TIMES:
		return "*"
	case DIVIDE:
		return "/"
	case MODULUS:
		return "%"
	case AND:
		return "&&"
	case OR:
		return "||"
	case COALESCE:
		return "??"
	case GREATER:
		return ">"
	case LESS:
		return "<"
	case EQ:
		return "=="
	case GEQ:
		return ">="
	case LEQ:
		return "<="
	case NEQ:
		return "!="

	case NOT:
		return "!"

	case IDENTIFIER, INT_LITERAL, FLOAT_LITERAL:
		return t.Payload
	case STRING_LITERAL:
		return fmt.Sprintf("%q", t.Payload)
	case TRUE_LITERAL:
		return "true"
	case FALSE_LITERAL:
		return "false"
	case NIL_LITERAL:
		return "nil"
	}

	for word, kind := range keywords {
		if kind == t.Kind {
			return word
		}
	}
	return "<unknown>"
}

// IsKeyword reports whether the token is a reserved word (including the
// boolean and nil literals).
func (t Token) IsKeyword() bool {
	return t.Kind >= LET_KEYWORD && t.Kind <= FALLTHROUGH_KEYWORD ||
		t.Kind == TRUE_LITERAL || t.Kind == FALSE_LITERAL || t.Kind == NIL_LITERAL
}

type Tokenizer struct {
	source []rune
	index  int
	line   int
	col    int
}

func NewTokenizer(source string) Tokenizer {
	return newTokenizerAt(source, 1, 1)
}

// newTokenizerAt starts position accounting at line/col, used for the
// expressions embedded in string interpolations.
func newTokenizerAt(source string, line, col int) Tokenizer {
	return Tokenizer{
		source: []rune(source),
		index:  0,
		line:   line,
		col:    col,
	}
}

func (t *Tokenizer) isEOF() bool {
	return t.index >= len(t.source)
}

func (t *Tokenizer) next() rune {
	char := t.source[t.index]
	t.index++

	if char == '\n' {
		t.line++
		t.col = 1
	} else {
		t.col++
	}

	return char
}

func (t *Tokenizer) peek() rune {
	if t.isEOF() {
		return 0
	}
	return t.source[t.index]
}

func (t *Tokenizer) peekAhead(n int) rune {
	if t.index+n >= len(t.source) {
		return 0
	}

	return t.source[t.index+n]
}

func (t *Tokenizer) pos() Position {
	return Position{
		Line:   t.line,
		Col:    t.col,
		Offset: t.index,
	}
}

func (t *Tokenizer) skipSpaceAndComments() error {
	for !t.isEOF() {
		ch := t.peek()
		switch {
		case unicode.IsSpace(ch):
			t.next()
		case ch == '/' && t.peekAhead(1) == '/':
			for !t.isEOF() && t.peek() != '\n' {
				t.next()
			}
		case ch == '/' && t.peekAhead(1) == '*':
			start := t.pos()
			t.next()
			t.next()
			closed := false
			for !t.isEOF() {
				if t.peek() == '*' && t.peekAhead(1) == '/' {
					t.next()
					t.next()
					closed = true
					break
				}
				t.next()
			}
			if !closed {
				return &SyntaxError{Message: "Unterminated comment", Pos: start}
			}
		default:
			return nil
		}
	}
	return nil
}

func (t *Tokenizer) readIdentifier() string {
	ident := []rune{}
	for !t.isEOF() {
		ch := t.peek()
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			ident = append(ident, t.next())
		} else {
			break
		}
	}

	return string(ident)
}

// numeric literals take ASCII digits only
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (t *Tokenizer) readNumber() (string, bool) {
	literal := []rune{}
	isFloat := false

	for !t.isEOF() {
		ch := t.peek()
		if isDigit(ch) {
			literal = append(literal, t.next())
		} else if ch == '_' {
			t.next()
		} else if ch == '.' && !isFloat && isDigit(t.peekAhead(1)) {
			// 1...5 and 0..<3 are ranges, not floats
			isFloat = true
			literal = append(literal, t.next())
		} else {
			break
		}
	}

	return string(literal), isFloat
}

// readString consumes a string literal body (the opening quote is already
// consumed) and returns it raw, escapes and interpolations intact.
func (t *Tokenizer) readString(start Position) (string, error) {
	builder := strings.Builder{}
	depth := 0

	for {
		if t.isEOF() || t.peek() == '\n' {
			return "", &SyntaxError{Message: "Unterminated string literal", Pos: start}
		}

		ch := t.next()
		switch {
		case depth == 0 && ch == '"':
			return builder.String(), nil
		case ch == '\\':
			builder.WriteRune(ch)
			if t.isEOF() || t.peek() == '\n' {
				continue
			}
			esc := t.next()
			builder.WriteRune(esc)
			if esc == '(' {
				depth++
			}
		case depth > 0 && ch == '(':
			depth++
			builder.WriteRune(ch)
		case depth > 0 && ch == ')':
			depth--
			builder.WriteRune(ch)
		case depth > 0 && ch == '"':
			// nested string inside an interpolation
			builder.WriteRune(ch)
			inner, err := t.readString(t.pos())
			if err != nil {
				return "", err
			}
			builder.WriteString(inner)
			builder.WriteRune('"')
		default:
			builder.WriteRune(ch)
		}
	}
}

func (t *Tokenizer) nextToken() (Token, error) {
	pos := t.pos()
	ch := t.next()

	simple := func(kind TokenKind, length uint) (Token, error) {
		for i := uint(1); i < length; i++ {
			t.next()
		}
		return Token{Kind: kind, Pos: pos, Length: length}, nil
	}

	switch ch {
	case ',':
		return simple(COMMA, 1)
	case ';':
		return simple(SEMICOLON, 1)
	case '.':
		if t.peek() == '.' && t.peekAhead(1) == '.' {
			return simple(CLOSED_RANGE, 3)
		}
		if t.peek() == '.' && t.peekAhead(1) == '<' {
			return simple(HALF_OPEN_RANGE, 3)
		}
		return simple(DOT, 1)
	case ':':
		return simple(COLON, 1)
	case '?':
		if t.peek() == '?' {
			return simple(COALESCE, 2)
		}
		return simple(QUESTION, 1)
	case '(':
		return simple(LEFT_PAREN, 1)
	case ')':
		return simple(RIGHT_PAREN, 1)
	case '[':
		return simple(LEFT_BRACKET, 1)
	case ']':
		return simple(RIGHT_BRACKET, 1)
	case '{':
		return simple(LEFT_BRACE, 1)
	case '}':
		return simple(RIGHT_BRACE, 1)
	case '=':
		if t.peek() == '=' {
			return simple(EQ, 2)
		}
		return simple(SET, 1)
	case '>':
		if t.peek() == '=' {
			return simple(GEQ, 2)
		}
		return simple(GREATER, 1)
	case '<':
		if t.peek() == '=' {
			return simple(LEQ, 2)
		}
		return simple(LESS, 1)
	case '!':
		if t.peek() == '=' {
			return simple(NEQ, 2)
		}
		return simple(NOT, 1)
	case '&':
		if t.peek() == '&' {
			return simple(AND, 2)
		}
	case '|':
		if t.peek() == '|' {
			return simple(OR, 2)
		}
	case '+':
		if t.peek() == '=' {
			return simple(PLUS_SET, 2)
		}
		return simple(PLUS, 1)
	case '-':
		if t.peek() == '>' {
			return simple(ARROW, 2)
		}
		if t.peek() == '=' {
			return simple(MINUS_SET, 2)
		}
		return simple(MINUS, 1)
	case '*':
		if t.peek() == '=' {
			return simple(TIMES_SET, 2)
		}
		return simple(TIMES, 1)
	case '/':
		if t.peek() == '=' {
			return simple(DIVIDE_SET, 2)
		}
		return simple(DIVIDE, 1)
	case '%':
		if t.peek() == '=' {
			return simple(MODULUS_SET, 2)
		}
		return simple(MODULUS, 1)
	case '"':
		payload, err := t.readString(pos)
		if err != nil {
			return Token{}, err
		}
		return Token{
			Kind:    STRING_LITERAL,
			Pos:     pos,
			Payload: payload,
			Length:  uint(t.index - pos.Offset),
		}, nil
	}

	if isDigit(ch) {
		rest, isFloat := t.readNumber()
		kind := INT_LITERAL
		if isFloat {
			kind = FLOAT_LITERAL
		}
		payload := string(ch) + rest
		return Token{Kind: kind, Pos: pos, Payload: payload, Length: uint(t.index - pos.Offset)}, nil
	}

	if unicode.IsLetter(ch) || ch == '_' {
		payload := string(ch) + t.readIdentifier()
		length := uint(t.index - pos.Offset)
		if kind, ok := keywords[payload]; ok {
			return Token{Kind: kind, Pos: pos, Payload: payload, Length: length}, nil
		}
		return Token{Kind: IDENTIFIER, Pos: pos, Payload: payload, Length: length}, nil
	}

	return Token{}, &SyntaxError{
		Message: fmt.Sprintf("Unexpected character '%c'", ch),
		Pos:     pos,
	}
}

// Tokenize returns every token of the source followed by a single EOF token.
// On failure the tokens read so far are returned alongside the error.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	tokens := []Token{}

	// check for shebang and skip
	if t.peek() == '#' && t.peekAhead(1) == '!' {
		for !t.isEOF() && t.peek() != '\n' {
			t.next()
		}
	}

	for {
		if err := t.skipSpaceAndComments(); err != nil {
			return tokens, err
		}
		if t.isEOF() {
			break
		}

		tok, err := t.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}

	return append(tokens, Token{Kind: EOF, Pos: t.pos()}), nil
}
