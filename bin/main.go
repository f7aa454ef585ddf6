package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/ajkachnic/debugquest/catalog"
	"github.com/ajkachnic/debugquest/core"
	"github.com/ajkachnic/debugquest/grader"
	"github.com/ajkachnic/debugquest/logger"
	"github.com/ajkachnic/debugquest/modules"
)

const version = "0.1.0"

const helpMessage = `debugquest grades fixes to broken Swift snippets.

Usage:
  debugquest [flags] <file>       run a snippet
  debugquest -catalog questions.txt -question Q3 <file>
                                  grade a snippet against a question
  debugquest -diagnose <file>     print the first fault message
  debugquest                      start a REPL (when stdin is a terminal)
`

var catalogPath = flag.String("catalog", "", "question catalog (.txt or .json)")
var questionID = flag.String("question", "", "question to grade the file against")
var attempts = flag.Int("attempts", 1, "attempt number of this submission")
var input = flag.String("input", "", "program input when running without a question")
var diagnose = flag.Bool("diagnose", false, "print only the first fault message")
var jsonOutput = flag.Bool("json", false, "print the grading result as JSON")
var debugAst = flag.Bool("debug-ast", false, "print AST")
var logLevel = flag.String("log-level", "warn", "log level: debug, info, warn or error")
var logFormat = flag.String("log-format", "text", "log format: text or json")
var showVersion = flag.Bool("version", false, "print the version")

// stdout understands ANSI colours on every platform
var stdout = colorable.NewColorableStdout()

func main() {
	flag.Usage = func() {
		fmt.Print(helpMessage)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Println("debugquest", version)
		return
	}

	if err := setupLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	args := flag.Args()

	if len(args) == 0 {
		if isTerminal(os.Stdin) {
			repl()
			return
		}
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(process("<stdin>", string(content)))
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(process(args[0], string(content)))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func setupLogging() error {
	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return err
	}

	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.Format = *logFormat
	return logger.Init(cfg)
}

// process handles one source file and returns the exit code.
func process(path, source string) int {
	engine := grader.New(grader.DefaultConfig())

	if *diagnose {
		message := engine.Diagnose(source)
		if message == "" {
			return 0
		}
		fmt.Println(message)
		return 1
	}

	if *debugAst {
		program, err := core.Parse(source)
		if err != nil {
			printError(source, err)
			return 1
		}
		for _, node := range program.Statements {
			fmt.Println(node)
		}
	}

	if *questionID == "" {
		return runFile(path, source)
	}
	return gradeFile(engine, source)
}

func runFile(path, source string) int {
	program, err := core.Parse(source)
	if err != nil {
		printError(source, err)
		return 1
	}

	ctx := core.NewRuntime()
	modules.Load(ctx)
	if err := core.BindInput(ctx, *input); err != nil {
		printError(source, err)
		return 1
	}

	err = core.Execute(ctx, program, core.DefaultLimits())
	fmt.Fprint(stdout, ctx.Output.String())
	if err != nil {
		logger.Debug("Program faulted", "file", path, "error", err)
		printError(source, err)
		return 1
	}
	return 0
}

func gradeFile(engine *grader.Engine, source string) int {
	if *catalogPath == "" {
		fmt.Fprintln(os.Stderr, "-question requires -catalog")
		return 2
	}

	questions, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	question, ok := catalog.Find(questions, *questionID)
	if !ok {
		fmt.Fprintf(os.Stderr, "no question %q in %s\n", *questionID, *catalogPath)
		return 2
	}

	result := engine.Evaluate(source, question, *attempts)

	if *jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	} else {
		printResult(question, source, result)
	}

	if result.Status != grader.StatusCorrect {
		return 1
	}
	return 0
}
