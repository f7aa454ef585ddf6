package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/reeflective/readline"

	"github.com/ajkachnic/debugquest/core"
	"github.com/ajkachnic/debugquest/modules"
)

func repl() {
	rl := readline.NewShell()
	rl.Prompt.Primary(func() string { return "> " })
	rl.SyntaxHighlighter = highlight

	ctx := core.NewRuntime()
	modules.Load(ctx)

	for {
		text, err := rl.Readline()

		if err == io.EOF {
			break
		} else if err != nil {
			fmt.Println(err)
			break
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		program, err := core.Parse(text)

		if err != nil {
			printError(text, err)
			continue
		}

		if *debugAst {
			for _, node := range program.Statements {
				fmt.Println(node)
			}
		}

		// each line gets a fresh budget; bindings live on in the global scope
		interpreter := core.NewInterpreter(ctx, core.DefaultLimits())

		var value core.Value
		if len(program.Statements) == 1 {
			if stmt, ok := program.Statements[0].(*core.ExprStmt); ok {
				value, err = interpreter.Exec(stmt.Expr, ctx.Global())
			} else {
				err = interpreter.Run(program)
			}
		} else {
			err = interpreter.Run(program)
		}

		fmt.Fprint(stdout, ctx.Output.String())
		ctx.Output.Reset()

		if err != nil {
			printError(text, err)
			continue
		}
		if value != nil && value.Type() != core.NilType {
			fmt.Fprintln(stdout, core.Repr(value))
		}
	}
}

var (
	stringColor  = color.New(color.FgGreen).SprintFunc()
	numberColor  = color.New(color.FgMagenta).SprintFunc()
	keywordColor = color.New(color.FgBlue).SprintFunc()
)

func highlight(line []rune) string {
	tokenizer := core.NewTokenizer(string(line))
	// a half typed line still highlights up to the bad token
	tokens, _ := tokenizer.Tokenize()

	builder := strings.Builder{}

	i := 0
	for _, token := range tokens {
		if token.Kind == core.EOF {
			break
		}
		if token.Pos.Offset > i {
			builder.WriteString(string(line[i:token.Pos.Offset]))
		}

		end := token.Pos.Offset + int(token.Length)
		if end > len(line) {
			end = len(line)
		}
		text := string(line[token.Pos.Offset:end])

		switch {
		case token.Kind == core.STRING_LITERAL:
			builder.WriteString(stringColor(text))
		case token.Kind == core.INT_LITERAL || token.Kind == core.FLOAT_LITERAL:
			builder.WriteString(numberColor(text))
		case token.IsKeyword():
			builder.WriteString(keywordColor(text))
		default:
			builder.WriteString(text)
		}

		i = end
	}

	if i < len(line) {
		builder.WriteString(string(line[i:]))
	}

	return builder.String()
}
