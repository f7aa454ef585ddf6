package core

import (
	"strings"
	"unicode"
)

func Parse(source string) (*Block, error) {
	tokenizer := NewTokenizer(source)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	return parser.ParseProgram()
}

// NewRuntime returns a Context with the builtin functions loaded.
func NewRuntime() *Context {
	ctx := NewContext()
	LoadBuiltins(ctx)
	return ctx
}

func Execute(ctx *Context, program *Block, limits Limits) error {
	interpreter := NewInterpreter(ctx, limits)
	return interpreter.Run(program)
}

func Interpret(ctx *Context, source string) error {
	program, err := Parse(source)
	if err != nil {
		return err
	}

	return Execute(ctx, program, DefaultLimits())
}

// BindInput splits a test case input into lines. Lines of the form
// `name = <literal>` are bound as variables in the global scope; all other
// lines are queued for readLine().
func BindInput(ctx *Context, input string) error {
	if input == "" {
		return nil
	}

	for _, line := range strings.Split(strings.TrimSuffix(input, "\n"), "\n") {
		name, expr, ok := inputBinding(line)
		if !ok {
			ctx.QueueInput(line)
			continue
		}

		node, err := parseLiteralExpression(expr)
		if err != nil {
			ctx.QueueInput(line)
			continue
		}
		value, err := NewInterpreter(ctx, DefaultLimits()).Exec(node, ctx.Global())
		if err != nil {
			return err
		}
		ctx.Define(ctx.Global(), name, Copy(value), false)
	}
	return nil
}

func inputBinding(line string) (string, string, bool) {
	name, expr, found := strings.Cut(line, "=")
	if !found || strings.HasPrefix(expr, "=") {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if !isIdentifier(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(expr), true
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if _, reserved := keywords[name]; reserved {
		return false
	}
	for i, ch := range name {
		if !(unicode.IsLetter(ch) || ch == '_' || (i > 0 && unicode.IsDigit(ch))) {
			return false
		}
	}
	return true
}

// parseLiteralExpression accepts a single expression made only of literals,
// collection literals and unary minus.
func parseLiteralExpression(source string) (Node, error) {
	tokenizer := NewTokenizer(source)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	node, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if !parser.isEOF() {
		return nil, parser.fail(parser.peek(), "Expected end of input")
	}

	literal := true
	Walk(node, func(n Node) bool {
		switch n.(type) {
		case *Literal, *Array, *Dictionary, *Unary:
			return true
		}
		literal = false
		return false
	})
	if !literal {
		return nil, parser.fail(parser.peek(), "Expected a literal")
	}
	return node, nil
}
