package core

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError is the first grammar violation found in a program. Message is
// the bare diagnostic (e.g. "Expected '{'"); Pos locates the offending token.
type SyntaxError struct {
	Message string
	Pos     Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax error at %s: %s", e.Pos, e.Message)
}

type Parser struct {
	tokens []Token
	index  int
}

// NewParser expects the token list produced by Tokenize, terminated by EOF.
func NewParser(tokens []Token) Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		tokens = append(tokens, Token{Kind: EOF})
	}
	return Parser{
		tokens: tokens,
		index:  0,
	}
}

func (p *Parser) isEOF() bool {
	return p.peek().Kind == EOF
}

func (p *Parser) peek() Token {
	return p.tokens[p.index]
}

func (p *Parser) peekAhead(n int) Token {
	if p.index+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.index+n]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.index]

	// EOF is sticky
	if tok.Kind != EOF {
		p.index++
	}

	return tok
}

func (p *Parser) previous() Token {
	if p.index == 0 {
		return Token{Kind: UNKNOWN}
	}
	return p.tokens[p.index-1]
}

func (p *Parser) at(kind TokenKind) bool {
	return p.peek().Kind == kind
}

// sameLine reports whether the upcoming token starts on the line where the
// previous one ended; postfix operators only bind across no newline.
func (p *Parser) sameLine() bool {
	prev := p.previous()
	return prev.Kind != UNKNOWN && prev.Pos.Line == p.peek().Pos.Line
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if !p.at(kind) {
		reason := fmt.Sprintf("Expected '%s'", kind)
		if kind == IDENTIFIER {
			reason = "Expected identifier"
		}
		return Token{Kind: UNKNOWN}, &SyntaxError{Message: reason, Pos: p.peek().Pos}
	}

	return p.next(), nil
}

func (p *Parser) fail(tok Token, format string, args ...interface{}) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: tok.Pos}
}

// ParseProgram parses top-level statements until end of input.
func (p *Parser) ParseProgram() (*Block, error) {
	program := &Block{span: span{p.peek().Pos}}

	stmts, err := p.parseStatements(EOF)
	if err != nil {
		return nil, err
	}
	program.Statements = stmts

	return program, nil
}

// parseStatements reads statements until the terminator (or EOF) without
// consuming it.
func (p *Parser) parseStatements(terminators ...TokenKind) ([]Node, error) {
	stmts := []Node{}

	for {
		for p.at(SEMICOLON) {
			p.next()
		}
		if p.isEOF() {
			return stmts, nil
		}
		for _, kind := range terminators {
			if p.at(kind) {
				return stmts, nil
			}
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		switch p.peek().Kind {
		case SEMICOLON, RIGHT_BRACE, EOF, CASE_KEYWORD, DEFAULT_KEYWORD:
		default:
			if p.sameLine() {
				return nil, p.fail(p.peek(), "Consecutive statements on a line must be separated by ';'")
			}
		}
	}
}

func (p *Parser) parseBlock() (*Block, error) {
	open, err := p.expect(LEFT_BRACE)
	if err != nil {
		return nil, err
	}

	stmts, err := p.parseStatements(RIGHT_BRACE)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(RIGHT_BRACE); err != nil {
		return nil, err
	}

	return &Block{span: span{open.Pos}, Statements: stmts}, nil
}

func (p *Parser) parseStatement() (Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case LET_KEYWORD, VAR_KEYWORD:
		return p.parseVarDecl()
	case FUNC_KEYWORD:
		return p.parseFuncDecl()
	case IF_KEYWORD:
		return p.parseIf()
	case WHILE_KEYWORD:
		p.next()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &While{span: span{tok.Pos}, Cond: cond, Body: body}, nil
	case FOR_KEYWORD:
		return p.parseFor()
	case SWITCH_KEYWORD:
		return p.parseSwitch()
	case RETURN_KEYWORD:
		p.next()
		node := &Return{span: span{tok.Pos}}
		switch p.peek().Kind {
		case RIGHT_BRACE, SEMICOLON, EOF, CASE_KEYWORD, DEFAULT_KEYWORD:
			return node, nil
		}
		if !p.sameLine() {
			return node, nil
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Value = value
		return node, nil
	case BREAK_KEYWORD:
		p.next()
		return &Break{span{tok.Pos}}, nil
	case CONTINUE_KEYWORD:
		p.next()
		return &Continue{span{tok.Pos}}, nil
	case FALLTHROUGH_KEYWORD:
		p.next()
		return &Fallthrough{span{tok.Pos}}, nil
	case ELSE_KEYWORD, CASE_KEYWORD, DEFAULT_KEYWORD:
		return nil, p.fail(tok, "Unexpected '%s'", tok)
	}

	if tok.Kind == IDENTIFIER && tok.Payload == "print" && p.peekAhead(1).Kind == LEFT_PAREN {
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Print{span: span{tok.Pos}, Args: args}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	switch p.peek().Kind {
	case SET, PLUS_SET, MINUS_SET, TIMES_SET, DIVIDE_SET, MODULUS_SET:
		op := p.next()
		switch expr.(type) {
		case *Variable, *Subscript:
		default:
			return nil, p.fail(op, "Cannot assign to this expression")
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Assignment{span: span{tok.Pos}, Target: expr, Op: op.Kind, Value: value}, nil
	}

	return &ExprStmt{span: span{tok.Pos}, Expr: expr}, nil
}

func (p *Parser) parseVarDecl() (Node, error) {
	tok := p.next()
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	node := &VarDecl{
		span:     span{tok.Pos},
		Name:     name.Payload,
		Constant: tok.Kind == LET_KEYWORD,
	}

	if p.at(COLON) {
		p.next()
		if node.Type, err = p.parseType(); err != nil {
			return nil, err
		}
	}

	if p.at(SET) {
		p.next()
		if node.Value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	} else if node.Type == "" {
		return nil, p.fail(p.peek(), "Type annotation missing in pattern")
	}

	return node, nil
}

// parseType reads a type annotation such as Int, [String], [String: Int] or
// Int?. Types are recorded for display only.
func (p *Parser) parseType() (string, error) {
	var name string

	switch tok := p.next(); tok.Kind {
	case IDENTIFIER:
		name = tok.Payload
	case LEFT_BRACKET:
		elem, err := p.parseType()
		if err != nil {
			return "", err
		}
		if p.at(COLON) {
			p.next()
			val, err := p.parseType()
			if err != nil {
				return "", err
			}
			elem += ": " + val
		}
		if _, err := p.expect(RIGHT_BRACKET); err != nil {
			return "", err
		}
		name = "[" + elem + "]"
	case LEFT_PAREN:
		if _, err := p.expect(RIGHT_PAREN); err != nil {
			return "", err
		}
		name = "()"
	default:
		return "", p.fail(tok, "Expected type")
	}

	for p.at(QUESTION) || p.at(NOT) {
		name += p.next().String()
	}
	return name, nil
}

func (p *Parser) parseFuncDecl() (Node, error) {
	tok := p.next()
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}

	params := []Param{}
	for !p.at(RIGHT_PAREN) {
		first, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		param := Param{Label: first.Payload, Name: first.Payload}
		if p.at(IDENTIFIER) {
			param.Name = p.next().Payload
		}
		if p.at(COLON) {
			p.next()
			if param.Type, err = p.parseType(); err != nil {
				return nil, err
			}
		}
		params = append(params, param)

		if !p.at(COMMA) {
			break
		}
		p.next()
	}

	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}

	node := &FuncDecl{span: span{tok.Pos}, Name: name.Payload, Params: params}

	if p.at(ARROW) {
		p.next()
		if node.ReturnType, err = p.parseType(); err != nil {
			return nil, err
		}
	}

	if node.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}

	return node, nil
}

func (p *Parser) parseIf() (Node, error) {
	tok := p.next()

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	node := &If{span: span{tok.Pos}, Cond: cond, Then: then}

	if p.at(ELSE_KEYWORD) {
		p.next()
		if p.at(IF_KEYWORD) {
			node.Else, err = p.parseIf()
		} else {
			node.Else, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}

	return node, nil
}

func (p *Parser) parseFor() (Node, error) {
	tok := p.next()

	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(IN_KEYWORD); err != nil {
		return nil, err
	}

	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &For{span: span{tok.Pos}, Var: name.Payload, Iterable: iterable, Body: body}, nil
}

func (p *Parser) parseSwitch() (Node, error) {
	tok := p.next()

	subject, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LEFT_BRACE); err != nil {
		return nil, err
	}

	node := &Switch{span: span{tok.Pos}, Subject: subject}

	sawDefault := false
	for p.at(CASE_KEYWORD) || p.at(DEFAULT_KEYWORD) {
		label := p.next()
		if sawDefault {
			return nil, p.fail(label, "Additional 'case' blocks cannot appear after the 'default' block of a 'switch'")
		}
		c := &SwitchCase{At: label.Pos, Default: label.Kind == DEFAULT_KEYWORD}
		sawDefault = c.Default

		if !c.Default {
			for {
				pattern, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				c.Patterns = append(c.Patterns, pattern)
				if !p.at(COMMA) {
					break
				}
				p.next()
			}
		}

		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}

		if c.Body, err = p.parseStatements(CASE_KEYWORD, DEFAULT_KEYWORD, RIGHT_BRACE); err != nil {
			return nil, err
		}
		node.Cases = append(node.Cases, c)
	}

	if _, err := p.expect(RIGHT_BRACE); err != nil {
		return nil, err
	}

	return node, nil
}

func (p *Parser) parseExpression() (Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	if !p.at(QUESTION) {
		return cond, nil
	}

	tok := p.next()
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Ternary{span: span{tok.Pos}, Cond: cond, Then: then, Else: els}, nil
}

func infixOpPrecedence(op TokenKind) int {
	switch op {
	case TIMES, DIVIDE, MODULUS:
		return 60
	case PLUS, MINUS:
		return 50
	case CLOSED_RANGE, HALF_OPEN_RANGE:
		return 40
	case COALESCE:
		return 35
	case LESS, GREATER, LEQ, GEQ, EQ, NEQ:
		return 30
	case AND:
		return 20
	case OR:
		return 10
	default:
		return -1
	}
}

// parseBinary is a precedence-climbing loop over left-associative operators.
func (p *Parser) parseBinary(minPrec int) (Node, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek()
		prec := infixOpPrecedence(op.Kind)
		if prec <= minPrec {
			return node, nil
		}
		p.next() // eat the operator

		right, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}

		switch op.Kind {
		case CLOSED_RANGE, HALF_OPEN_RANGE:
			node = &Range{span: span{op.Pos}, Low: node, High: right, Closed: op.Kind == CLOSED_RANGE}
		default:
			node = &BinaryOp{span: span{op.Pos}, Op: op.Kind, Left: node, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (Node, error) {
	if p.at(MINUS) || p.at(NOT) {
		tok := p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{span: span{tok.Pos}, Op: tok.Kind, Operand: operand}, nil
	}

	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by call, subscript,
// member and force-unwrap suffixes.
func (p *Parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.Kind == LEFT_PAREN && p.sameLine():
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			node = &Call{span: span{node.Pos()}, Callee: node, Args: args}
		case tok.Kind == LEFT_BRACKET && p.sameLine():
			p.next()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RIGHT_BRACKET); err != nil {
				return nil, err
			}
			node = &Subscript{span: span{tok.Pos}, Target: node, Index: index}
		case tok.Kind == DOT:
			p.next()
			name, err := p.expect(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			call := &MethodCall{span: span{name.Pos}, Receiver: node, Name: name.Payload}
			if p.at(LEFT_PAREN) && p.sameLine() {
				if call.Args, err = p.parseArgs(); err != nil {
					return nil, err
				}
				call.Called = true
			}
			node = call
		case tok.Kind == NOT && p.sameLine():
			p.next()
			node = &Unwrap{span: span{tok.Pos}, Operand: node}
		default:
			return node, nil
		}
	}
}

// parseArgs parses a parenthesized, comma separated argument list with
// optional `label:` prefixes.
func (p *Parser) parseArgs() ([]Arg, error) {
	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}

	args := []Arg{}
	for !p.at(RIGHT_PAREN) {
		arg := Arg{}
		if p.at(IDENTIFIER) && p.peekAhead(1).Kind == COLON {
			arg.Label = p.next().Payload
			p.next()
		}

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arg.Value = value
		args = append(args, arg)

		if !p.at(COMMA) {
			break
		}
		p.next()
	}

	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}

	return args, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.next()
	at := span{tok.Pos}

	switch tok.Kind {
	case INT_LITERAL:
		n, err := strconv.ParseInt(tok.Payload, 10, 64)
		if err != nil {
			return nil, p.fail(tok, "Integer literal '%s' overflows when stored into 'Int'", tok.Payload)
		}
		return &Literal{span: at, Value: IntValue(n)}, nil
	case FLOAT_LITERAL:
		f, err := strconv.ParseFloat(tok.Payload, 64)
		if err != nil {
			return nil, p.fail(tok, "Invalid floating point literal '%s'", tok.Payload)
		}
		return &Literal{span: at, Value: FloatValue(f)}, nil
	case STRING_LITERAL:
		return p.parseString(tok)
	case TRUE_LITERAL:
		return &Literal{span: at, Value: BoolValue(true)}, nil
	case FALSE_LITERAL:
		return &Literal{span: at, Value: BoolValue(false)}, nil
	case NIL_LITERAL:
		return &Literal{span: at, Value: Nil}, nil
	case IDENTIFIER:
		return &Variable{span: at, Name: tok.Payload}, nil
	case LEFT_PAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_PAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case LEFT_BRACKET:
		return p.parseCollection(tok)
	case EOF:
		return nil, p.fail(tok, "Expected expression")
	}

	return nil, p.fail(tok, "Expected expression, found '%s'", tok)
}

// parseCollection parses an array literal `[a, b]`, a dictionary literal
// `[k: v]` or the empty dictionary `[:]`; the opening bracket is consumed.
func (p *Parser) parseCollection(open Token) (Node, error) {
	at := span{open.Pos}

	if p.at(COLON) {
		p.next()
		if _, err := p.expect(RIGHT_BRACKET); err != nil {
			return nil, err
		}
		return &Dictionary{span: at, Keys: []Node{}, Values: []Node{}}, nil
	}

	if p.at(RIGHT_BRACKET) {
		p.next()
		return &Array{span: at, Elements: []Node{}}, nil
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.at(COLON) {
		dict := &Dictionary{span: at}
		key := first
		for {
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			dict.Keys = append(dict.Keys, key)
			dict.Values = append(dict.Values, value)

			if !p.at(COMMA) {
				break
			}
			p.next()
			if p.at(RIGHT_BRACKET) {
				break
			}
			if key, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(RIGHT_BRACKET); err != nil {
			return nil, err
		}
		return dict, nil
	}

	array := &Array{span: at, Elements: []Node{first}}
	for p.at(COMMA) {
		p.next()
		if p.at(RIGHT_BRACKET) {
			break
		}
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		array.Elements = append(array.Elements, el)
	}
	if _, err := p.expect(RIGHT_BRACKET); err != nil {
		return nil, err
	}

	return array, nil
}

// parseString resolves escapes and splits `\(expr)` interpolations out of a
// raw string literal.
func (p *Parser) parseString(tok Token) (Node, error) {
	builder := strings.Builder{}
	parts := []Node{}
	runes := []rune(tok.Payload)
	// column of the first rune after the opening quote
	base := tok.Pos.Col + 1

	flush := func() {
		if builder.Len() > 0 {
			parts = append(parts, &Literal{span: span{tok.Pos}, Value: StringValue(builder.String())})
			builder.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch != '\\' {
			builder.WriteRune(ch)
			continue
		}

		if i+1 >= len(runes) {
			return nil, p.fail(tok, "Invalid escape sequence in literal")
		}
		i++

		switch runes[i] {
		case 'n':
			builder.WriteByte('\n')
		case 't':
			builder.WriteByte('\t')
		case 'r':
			builder.WriteByte('\r')
		case '0':
			builder.WriteByte(0)
		case '\\', '"', '\'':
			builder.WriteRune(runes[i])
		case '(':
			start := i + 1
			end, ok := matchParen(runes, start)
			if !ok {
				return nil, p.fail(tok, "Unterminated string interpolation")
			}
			expr, err := parseEmbedded(string(runes[start:end]), tok.Pos.Line, base+start)
			if err != nil {
				return nil, err
			}
			flush()
			parts = append(parts, expr)
			i = end
		default:
			return nil, p.fail(tok, "Invalid escape sequence in literal")
		}
	}

	if len(parts) == 0 {
		return &Literal{span: span{tok.Pos}, Value: StringValue(builder.String())}, nil
	}
	flush()

	return &Interpolation{span: span{tok.Pos}, Parts: parts}, nil
}

// matchParen finds the ')' closing an interpolation that starts at start.
func matchParen(runes []rune, start int) (int, bool) {
	depth := 1
	inString := false
	for i := start; i < len(runes); i++ {
		switch ch := runes[i]; {
		case ch == '\\' && inString:
			i++
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func parseEmbedded(source string, line, col int) (Node, error) {
	tokenizer := newTokenizerAt(source, line, col)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if !parser.isEOF() {
		return nil, parser.fail(parser.peek(), "Expected ')'")
	}
	return expr, nil
}
