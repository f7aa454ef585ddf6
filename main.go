package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"github.com/ajkachnic/debugquest/grader"
	"github.com/ajkachnic/debugquest/logger"
)

const version = "0.1.0"

const helpMessage = `verify checks the diagnostic each snippet produces.

Usage:
  verify -expect "Expected '{'" <file>...
  verify -builtin
  verify                 read snippets interactively (blank line ends one)
`

var expect = flag.String("expect", "", "diagnostic every file must produce")
var builtin = flag.Bool("builtin", false, "run the built-in fault string checks")
var logLevel = flag.String("log-level", "warn", "log level: debug, info, warn or error")

// builtinChecks are snippets missing one required token and the exact
// message each must produce.
var builtinChecks = []struct {
	name   string
	source string
	want   string
}{
	{"if without brace", "let x = 10\nif x > 5 print(\"big\")", "Expected '{'"},
	{"while without brace", "var i = 0\nwhile i < 3 i += 1", "Expected '{'"},
	{"case without colon", "let n = 2\nswitch n {\ncase 1 print(\"one\")\ndefault:\nprint(\"other\")\n}", "Expected ':'"},
	{"default without colon", "let n = 2\nswitch n {\ncase 1:\nprint(\"one\")\ndefault print(\"other\")\n}", "Expected ':'"},
	{"func without parens", "func greet {\nprint(\"hi\")\n}", "Expected '('"},
	{"unclosed block", "let x = 10\nif x > 5 {\nprint(\"big\")", "Expected '}'"},
	{"valid program", "let x = 10\nif x > 5 {\nprint(\"big\")\n}", ""},
}

func main() {
	flag.Usage = func() {
		fmt.Print(helpMessage)
		flag.PrintDefaults()
	}

	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg := logger.DefaultConfig()
	cfg.Level = level
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	engine := grader.New(grader.DefaultConfig())
	args := flag.Args()

	switch {
	case *builtin:
		os.Exit(runBuiltin(engine))
	case len(args) > 0:
		os.Exit(verifyFiles(engine, args))
	case isatty.IsTerminal(os.Stdin.Fd()):
		repl(engine)
	default:
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !check(engine, "<stdin>", string(content)) {
			os.Exit(1)
		}
	}
}

// check prints the diagnostic of source and reports whether it matches
// -expect (any diagnostic matches when -expect is empty).
func check(engine *grader.Engine, name, source string) bool {
	got := engine.Diagnose(source)

	if *expect == "" {
		if got == "" {
			fmt.Printf("%s: no faults\n", name)
		} else {
			fmt.Printf("%s: %s\n", name, got)
		}
		return true
	}

	if got != *expect {
		fmt.Printf("FAIL %s: got %q, want %q\n", name, got, *expect)
		return false
	}
	fmt.Printf("ok   %s\n", name)
	return true
}

func verifyFiles(engine *grader.Engine, paths []string) int {
	code := 0
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Println(err.Error())
			code = 1
			continue
		}
		if !check(engine, path, string(content)) {
			code = 1
		}
	}
	return code
}

func runBuiltin(engine *grader.Engine) int {
	code := 0
	for _, c := range builtinChecks {
		got := engine.Diagnose(c.source)
		if got != c.want {
			fmt.Printf("FAIL %s: got %q, want %q\n", c.name, got, c.want)
			code = 1
			continue
		}
		fmt.Printf("ok   %s\n", c.name)
	}
	return code
}

func repl(engine *grader.Engine) {
	rl, err := readline.New(">> ")
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	lines := []string{}
	n := 0

	for {
		text, err := rl.Readline()

		if err == io.EOF || err == readline.ErrInterrupt {
			break
		} else if err != nil {
			fmt.Println(err)
			break
		}

		if strings.TrimSpace(text) != "" {
			lines = append(lines, text)
			rl.SetPrompt(".. ")
			continue
		}
		if len(lines) == 0 {
			continue
		}

		n++
		check(engine, fmt.Sprintf("snippet %d", n), strings.Join(lines, "\n"))
		lines = lines[:0]
		rl.SetPrompt(">> ")
	}
}
