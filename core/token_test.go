package core

import (
	"errors"
	"reflect"
	"testing"
)

func kinds(t *testing.T, src string) []TokenKind {
	t.Helper()
	tokenizer := NewTokenizer(src)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) error: %v", src, err)
	}
	if last := tokens[len(tokens)-1]; last.Kind != EOF {
		t.Fatalf("Tokenize(%q) does not end with EOF: %v", src, last)
	}
	out := []TokenKind{}
	for _, tok := range tokens[:len(tokens)-1] {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		src  string
		want []TokenKind
	}{
		{"let x = 10", []TokenKind{LET_KEYWORD, IDENTIFIER, SET, INT_LITERAL}},
		{"var y: Double = 2.5", []TokenKind{VAR_KEYWORD, IDENTIFIER, COLON, IDENTIFIER, SET, FLOAT_LITERAL}},
		{"for i in 1...5 {}", []TokenKind{FOR_KEYWORD, IDENTIFIER, IN_KEYWORD, INT_LITERAL, CLOSED_RANGE, INT_LITERAL, LEFT_BRACE, RIGHT_BRACE}},
		{"0..<n", []TokenKind{INT_LITERAL, HALF_OPEN_RANGE, IDENTIFIER}},
		{"a += 1; b -= 2", []TokenKind{IDENTIFIER, PLUS_SET, INT_LITERAL, SEMICOLON, IDENTIFIER, MINUS_SET, INT_LITERAL}},
		{"x == y && !z || w != v", []TokenKind{IDENTIFIER, EQ, IDENTIFIER, AND, NOT, IDENTIFIER, OR, IDENTIFIER, NEQ, IDENTIFIER}},
		{"a ?? b", []TokenKind{IDENTIFIER, COALESCE, IDENTIFIER}},
		{"func f() -> Int", []TokenKind{FUNC_KEYWORD, IDENTIFIER, LEFT_PAREN, RIGHT_PAREN, ARROW, IDENTIFIER}},
		{"arr.count", []TokenKind{IDENTIFIER, DOT, IDENTIFIER}},
		{"true false nil", []TokenKind{TRUE_LITERAL, FALSE_LITERAL, NIL_LITERAL}},
		{"1_000", []TokenKind{INT_LITERAL}},
		{"// comment\nx /* block\ncomment */ y", []TokenKind{IDENTIFIER, IDENTIFIER}},
	}

	for _, tt := range tests {
		if got := kinds(t, tt.src); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q)\nwant %v\n got %v", tt.src, tt.want, got)
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	tokenizer := NewTokenizer("let x = 1\n  print(x)")
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		t.Fatal(err)
	}

	print := tokens[4]
	if print.Payload != "print" {
		t.Fatalf("expected print token, got %v", print)
	}
	if print.Pos.Line != 2 || print.Pos.Col != 3 {
		t.Errorf("print at %s, want [2:3]", print.Pos)
	}
}

func TestTokenizeStringKeepsInterpolation(t *testing.T) {
	tokenizer := NewTokenizer(`"sum: \(a + "b")!"`)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Kind != STRING_LITERAL {
		t.Fatalf("got %v, want string literal", tokens[0])
	}
	if want := `sum: \(a + "b")!`; tokens[0].Payload != want {
		t.Errorf("payload %q, want %q", tokens[0].Payload, want)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`let s = "open`, "Unterminated string literal"},
		{"x /* never closed", "Unterminated comment"},
		{"let x = 1 @ 2", "Unexpected character '@'"},
		{"let x = ٣", "Unexpected character '٣'"},
		{"let x = 1٣", "Unexpected character '٣'"},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.src)
		_, err := tokenizer.Tokenize()

		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Errorf("Tokenize(%q) error = %v, want *SyntaxError", tt.src, err)
			continue
		}
		if syntaxErr.Message != tt.want {
			t.Errorf("Tokenize(%q) message = %q, want %q", tt.src, syntaxErr.Message, tt.want)
		}
	}
}
