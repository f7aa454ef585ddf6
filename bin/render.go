package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/quick"
	"github.com/fatih/color"
	"github.com/rivo/uniseg"
	"golang.org/x/term"

	"github.com/ajkachnic/debugquest/core"
	"github.com/ajkachnic/debugquest/grader"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	success = color.New(color.FgGreen, color.Bold).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
)

func ruleWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 60
	}
	if width > 80 {
		return 80
	}
	return width
}

func rule() string {
	return faint(strings.Repeat("─", ruleWidth()))
}

// highlightLine colours a single line of Swift for the terminal, falling back
// to the plain text.
func highlightLine(line string) string {
	if color.NoColor {
		return line
	}
	builder := strings.Builder{}
	if err := quick.Highlight(&builder, line, "swift", "terminal256", "monokai"); err != nil {
		return line
	}
	return strings.TrimRight(builder.String(), "\n")
}

// showSource prints the offending line with a caret under column col.
func showSource(source string, line, col int) {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return
	}
	text := strings.ReplaceAll(lines[line-1], "\t", "    ")

	gutter := fmt.Sprintf("%4d | ", line)
	fmt.Fprintf(stdout, "%s%s\n", faint(gutter), highlightLine(text))

	if col < 1 {
		return
	}
	runes := []rune(text)
	if col-1 > len(runes) {
		col = len(runes) + 1
	}
	indent := uniseg.StringWidth(string(runes[:col-1]))
	fmt.Fprintf(stdout, "%s%s%s\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", indent), failure("^"))
}

// position extracts the location carried by interpreter errors.
func position(err error) (core.Position, bool) {
	var syntaxErr *core.SyntaxError
	var runtimeErr *core.RuntimeError
	switch {
	case errors.As(err, &syntaxErr):
		return syntaxErr.Pos, true
	case errors.As(err, &runtimeErr):
		return runtimeErr.Pos, true
	}
	return core.Position{}, false
}

func printError(source string, err error) {
	fmt.Fprintln(stdout, failure(err.Error()))
	if pos, ok := position(err); ok {
		showSource(source, pos.Line, pos.Col)
	}
}

func levelColor(level grader.Level) string {
	switch level {
	case grader.LevelExpert, grader.LevelAdvanced:
		return success(level)
	case grader.LevelFailed:
		return failure(level)
	}
	return warning(level)
}

func printResult(q grader.Question, source string, r *grader.Result) {
	fmt.Fprintln(stdout, rule())
	fmt.Fprintf(stdout, "%s %s\n", bold(q.ID), q.Title)

	if r.Status == grader.StatusCorrect {
		fmt.Fprintf(stdout, "%s  score %.1f  level %s  complexity %s\n", success("✓ correct"), r.Score, levelColor(r.Level), r.Complexity)
	} else {
		fmt.Fprintf(stdout, "%s  level %s\n", failure("✗ incorrect"), levelColor(r.Level))
	}
	fmt.Fprintln(stdout, r.Feedback)

	if r.Line > 0 {
		showSource(source, r.Line, r.Column)
	}

	for i, tr := range r.TestResults {
		mark := success("pass")
		if !tr.Passed {
			mark = failure("fail")
		}
		edge := ""
		if tr.Edge {
			edge = warning(" [edge]")
		}
		fmt.Fprintf(stdout, "  case %d%s: %s\n", i+1, edge, mark)
		if tr.Fault != "" {
			fmt.Fprintf(stdout, "    %s\n", faint(tr.Fault))
		}
	}

	for _, pattern := range r.PatternMisses {
		fmt.Fprintf(stdout, "  %s %s\n", warning("missing pattern"), pattern)
	}
	if r.HardcodingDetected {
		fmt.Fprintln(stdout, warning("  output looks hardcoded"))
	}

	if r.Status == grader.StatusCorrect {
		fmt.Fprintf(stdout, "+%d XP  +%d coins\n", r.Rewards.XP, r.Rewards.Coins)
	} else if q.Riddle != "" {
		fmt.Fprintf(stdout, "%s %s\n", bold("Riddle:"), q.Riddle)
	}
	fmt.Fprintln(stdout, rule())
}
