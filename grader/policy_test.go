package grader

import (
	"testing"

	"github.com/ajkachnic/debugquest/core"
)

func TestPolicyScore(t *testing.T) {
	p := DefaultPolicy()

	if got := p.Score(false, 3, 1, false, true); got != 0 {
		t.Errorf("incorrect score = %v, want 0", got)
	}
	if got := p.Score(true, 0, 0, false, true); got != 100 {
		t.Errorf("clamped score = %v, want 100", got)
	}
	if got := p.Score(true, 3, 1, false, true); got != 150 {
		t.Errorf("difficulty 3 score = %v, want 150", got)
	}

	clean := p.Score(true, 2, 2, false, true)
	if hardcoded := p.Score(true, 2, 2, true, true); hardcoded >= clean {
		t.Errorf("hardcoded %v not below clean %v", hardcoded, clean)
	}
	if missing := p.Score(true, 2, 2, false, false); missing >= clean {
		t.Errorf("missing edge %v not below clean %v", missing, clean)
	}

	previous := p.Score(true, 5, 1, false, true)
	for attempts := 2; attempts < 50; attempts++ {
		score := p.Score(true, 5, attempts, false, true)
		if score >= previous || score <= 0 {
			t.Fatalf("attempt %d: %v after %v", attempts, score, previous)
		}
		previous = score
	}
}

func TestPolicyLevel(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		correct, hardcoded, edge, misses bool
		attempts                         int
		want                             Level
	}{
		{false, false, true, false, 1, LevelFailed},
		{true, true, true, false, 1, LevelBeginner},
		{true, false, false, false, 1, LevelIntermediate},
		{true, false, true, true, 1, LevelIntermediate},
		{true, false, true, false, 1, LevelExpert},
		{true, false, true, false, 3, LevelAdvanced},
		{true, false, true, false, 4, LevelIntermediate},
	}

	for _, tt := range tests {
		if got := p.Level(tt.correct, tt.attempts, tt.hardcoded, tt.edge, tt.misses); got != tt.want {
			t.Errorf("Level(%+v) = %v, want %v", tt, got, tt.want)
		}
	}
}

func TestPolicyRewards(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Rewards(false, 50, 2); got != (Rewards{}) {
		t.Errorf("incorrect rewards = %+v", got)
	}
	if got := p.Rewards(true, 80.6, 2); got != (Rewards{XP: 81, Coins: 20}) {
		t.Errorf("rewards = %+v", got)
	}
}

func mustParse(t *testing.T, src string) *core.Block {
	t.Helper()
	program, err := core.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return program
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		src  string
		want Complexity
	}{
		{"print(1)", ComplexityConstant},
		{"for i in 0..<3 { print(i) }", ComplexityLinear},
		{"for i in 0..<3 {\n  for j in 0..<3 { print(i, j) }\n}", ComplexityQuadratic},
		{"for i in 0..<3 {\n  if i > 0 {\n    while false {\n      for j in 0..<1 {}\n    }\n  }\n}", ComplexityPolynomial},
		{"for i in 0..<3 {}\nfor j in 0..<3 {}", ComplexityLinear},
		{"func f(_ n: Int) -> Int {\n  return n == 0 ? 0 : f(n - 1)\n}\nprint(f(3))", ComplexityRecursive},
	}

	for _, tt := range tests {
		if got := complexity(mustParse(t, tt.src)); got != tt.want {
			t.Errorf("complexity(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestEdgeCasesHandled(t *testing.T) {
	tests := []struct {
		results []TestCaseResult
		want    bool
	}{
		{[]TestCaseResult{{Passed: true}, {Passed: true}}, true},
		{[]TestCaseResult{{Passed: true}, {Passed: false}}, false},
		{[]TestCaseResult{{Passed: false}, {Passed: true, Edge: true}}, true},
		{[]TestCaseResult{{Passed: true}, {Passed: false, Edge: true}}, false},
		{[]TestCaseResult{}, true},
	}

	for i, tt := range tests {
		if got := edgeCasesHandled(tt.results); got != tt.want {
			t.Errorf("case %d: got %v, want %v", i, got, tt.want)
		}
	}
}

func TestHardcoded(t *testing.T) {
	reference := mustParse(t, "print(x * 2)")

	same := []TestCaseResult{{Expected: "2", Actual: "2"}, {Expected: "4", Actual: "2"}}
	if !hardcoded(mustParse(t, "print(x)"), reference, same) {
		t.Error("identical outputs for different expectations not flagged")
	}

	literal := []TestCaseResult{{Expected: "2", Actual: "2"}}
	if !hardcoded(mustParse(t, "print(2)"), reference, literal) {
		t.Error("literal print of the expected output not flagged")
	}
	if hardcoded(mustParse(t, "print(2)"), mustParse(t, "print(2)"), literal) {
		t.Error("literal print flagged when the reference prints a literal too")
	}
	if hardcoded(mustParse(t, "print(x * 2)"), reference, literal) {
		t.Error("computed output flagged")
	}

	branching := mustParse(t, "if x > 5 {\n  print(\"big\")\n} else {\n  print(\"small\")\n}")
	ternary := mustParse(t, `print(x > 5 ? "big" : "small")`)
	split := []TestCaseResult{{Expected: "small", Actual: "small", Passed: true}, {Expected: "big", Actual: "big", Passed: true}}
	if hardcoded(branching, ternary, split) {
		t.Error("literal prints chosen by input flagged")
	}
	repeated := []TestCaseResult{{Expected: "big", Actual: "big", Passed: true}, {Expected: "big", Actual: "big", Passed: true}}
	if !hardcoded(mustParse(t, `print("big")`), ternary, repeated) {
		t.Error("one literal print for every input not flagged")
	}

	faulted := []TestCaseResult{{Expected: "2", Fault: "boom"}, {Expected: "4", Fault: "boom"}}
	if hardcoded(mustParse(t, "print(x)"), reference, faulted) {
		t.Error("faulted runs compared as outputs")
	}
}

func TestPatternMisses(t *testing.T) {
	code := "for i in 0..<n {\n  total += i\n}"
	tests := []struct {
		patterns []string
		want     int
	}{
		{nil, 0},
		{[]string{`^for\s+\w+\s+in`}, 0},
		{[]string{`^\s+total\s*\+=`}, 0},
		{[]string{`while`}, 1},
		{[]string{`(?<=for )i\b`, `reduce\(`}, 1},
		{[]string{`(unclosed`}, 0},
	}

	for _, tt := range tests {
		if got := patternMisses(code, tt.patterns); len(got) != tt.want {
			t.Errorf("patternMisses(%q) = %v, want %d misses", tt.patterns, got, tt.want)
		}
	}
}
