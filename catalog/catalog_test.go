package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ajkachnic/debugquest/grader"
)

const sample = "Q2 — Factorial\n" +
	"Broken Code:\n" +
	"```swift\n" +
	"func factorial(_ n: Int) -> Int {\n" +
	"  return n * factorial(n - 1)\n" +
	"}\n" +
	"```\n" +
	"Correct Code:\n" +
	"```swift\n" +
	"func factorial(_ n: Int) -> Int {\n" +
	"  if n <= 1 {\n" +
	"    return 1\n" +
	"  }\n" +
	"  return n * factorial(n - 1)\n" +
	"}\n" +
	"print(factorial(Int(readLine()!)!))\n" +
	"```\n" +
	"Error: The recursion never stops.\n" +
	"Riddle: I call myself forever.\n" +
	"Answer: Every recursion needs a base case.\n" +
	"Hidden Test Cases (Logic-validated):\n" +
	"- 5 => 120\n" +
	"- [edge] 0 => 1\n" +
	"- 3\n" +
	"Regex / Token Rules:\n" +
	`if\s+n\s*<=\s*1` + "\n" +
	"Difficulty: 2\n" +
	"\n" +
	"Q1: Braces\n" +
	"Broken Code\n" +
	"if x > 5 print(\"big\")\n" +
	"Correct Code\n" +
	"if x > 5 {\n" +
	"  print(\"big\")\n" +
	"}\n" +
	"Hidden Test Cases\n" +
	"x = 3 =>\n" +
	"x = 10 => big\n" +
	"\n" +
	`x = 7\ny = 1 => big` + "\n"

func TestParseText(t *testing.T) {
	questions, err := ParseText(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}

	q := questions[0]
	if q.ID != "Q2" || q.Title != "Factorial" || q.Difficulty != 2 {
		t.Errorf("header = %q %q difficulty %d", q.ID, q.Title, q.Difficulty)
	}
	if strings.Contains(q.InitialCode, "```") || !strings.HasPrefix(q.InitialCode, "func factorial") {
		t.Errorf("initial code = %q", q.InitialCode)
	}
	if !strings.HasSuffix(q.CorrectCode, "print(factorial(Int(readLine()!)!))") {
		t.Errorf("correct code = %q", q.CorrectCode)
	}
	if q.Description != "The recursion never stops." || q.Riddle != "I call myself forever." || q.ConceptExplanation != "Every recursion needs a base case." {
		t.Errorf("text sections = %q / %q / %q", q.Description, q.Riddle, q.ConceptExplanation)
	}
	if !reflect.DeepEqual(q.ExpectedPatterns, []string{`if\s+n\s*<=\s*1`}) {
		t.Errorf("patterns = %q", q.ExpectedPatterns)
	}

	wantCases := []grader.TestCase{
		{Input: "5", Expected: "120"},
		{Input: "0", Expected: "1", Edge: true},
		{Input: "3", FromReference: true},
	}
	if !reflect.DeepEqual(q.TestCases, wantCases) {
		t.Errorf("test cases = %+v", q.TestCases)
	}

	q = questions[1]
	if q.ID != "Q1" || q.Title != "Braces" || q.Difficulty != 1 {
		t.Errorf("header = %q %q difficulty %d", q.ID, q.Title, q.Difficulty)
	}
	if q.CorrectCode != "if x > 5 {\n  print(\"big\")\n}" {
		t.Errorf("correct code = %q", q.CorrectCode)
	}
	wantCases = []grader.TestCase{
		{Input: "x = 3", Expected: ""},
		{Input: "x = 10", Expected: "big"},
		{Input: "x = 7\ny = 1", Expected: "big"},
	}
	if !reflect.DeepEqual(q.TestCases, wantCases) {
		t.Errorf("test cases = %+v", q.TestCases)
	}
}

func TestUnescape(t *testing.T) {
	tests := map[string]string{
		`plain`:     "plain",
		`a\tb`:      "a\tb",
		`one\ntwo`:  "one\ntwo",
		`back\\n`:   `back\n`,
		`keep\q`:    `keep\q`,
		`trailing\`: `trailing\`,
	}
	for in, want := range tests {
		if got := unescape(in); got != want {
			t.Errorf("unescape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTextQuestionsGradeTheirReference(t *testing.T) {
	questions, err := ParseText(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}

	engine := grader.New(grader.DefaultConfig())
	for _, q := range questions {
		if result := engine.Evaluate(q.CorrectCode, q, 1); result.Status != grader.StatusCorrect {
			t.Errorf("%s: %s", q.ID, result.Feedback)
		}
		if result := engine.Evaluate(q.InitialCode, q, 1); result.Status != grader.StatusIncorrect {
			t.Errorf("%s: broken code graded correct", q.ID)
		}
	}
}

func TestParseTextErrors(t *testing.T) {
	tests := []struct {
		src  string
		line int
	}{
		{"stray text\nQ1 — Title\n", 1},
		{"\nQ1 — Title\nDifficulty: hard\n", 2},
	}

	for _, tt := range tests {
		_, err := ParseText(strings.NewReader(tt.src))
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("ParseText(%q) error = %v, want *ParseError", tt.src, err)
			continue
		}
		if parseErr.Line != tt.line {
			t.Errorf("ParseText(%q) line = %d, want %d", tt.src, parseErr.Line, tt.line)
		}
	}

	if _, err := ParseText(strings.NewReader("Q1 — A\nQ1 — B\n")); err == nil {
		t.Error("duplicate ids accepted")
	}
}

func TestLoadJSON(t *testing.T) {
	wrapped := `{"questions": [{"id": "Q3", "title": "Loop", "correctCode": "print(1)", "testCases": [{"input": "", "expected": "1", "edge": true}]}]}`
	questions, err := LoadJSON(strings.NewReader(wrapped))
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 || questions[0].Difficulty != 1 || !questions[0].TestCases[0].Edge {
		t.Errorf("questions = %+v", questions)
	}

	bare := `[{"id": "Q1", "difficulty": 3}, {"id": "Q2"}]`
	if questions, err = LoadJSON(strings.NewReader(bare)); err != nil || len(questions) != 2 {
		t.Errorf("bare array: %v, %+v", err, questions)
	}

	if _, err := LoadJSON(strings.NewReader(`[{"title": "no id"}]`)); err == nil {
		t.Error("question without id accepted")
	}
	if _, err := LoadJSON(strings.NewReader(`{"questions": 5}`)); err == nil {
		t.Error("malformed document accepted")
	}
}

func TestLoadChoosesFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "questions.txt")
	if err := os.WriteFile(text, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	questions, err := Load(text)
	if err != nil {
		t.Fatal(err)
	}
	if ids := []string{questions[0].ID, questions[1].ID}; !reflect.DeepEqual(ids, []string{"Q1", "Q2"}) {
		t.Errorf("sorted ids = %v", ids)
	}

	js := filepath.Join(dir, "questions.JSON")
	if err := os.WriteFile(js, []byte(`[{"id": "Q7"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if questions, err := Load(js); err != nil || questions[0].ID != "Q7" {
		t.Errorf("json load: %v, %+v", err, questions)
	}

	if _, err := Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestSortFindDifficulties(t *testing.T) {
	questions := []grader.Question{
		{ID: "Q10", Difficulty: 1},
		{ID: "Q2", Difficulty: 2},
		{ID: "Q3", Difficulty: 1},
		{ID: "bonus", Difficulty: 1},
		{ID: "Q1", Difficulty: 1},
	}
	Sort(questions)

	ids := []string{}
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	if want := []string{"Q1", "Q3", "Q10", "bonus", "Q2"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("sorted = %v, want %v", ids, want)
	}

	for _, id := range []string{"Q3", "q3", "3"} {
		if q, ok := Find(questions, id); !ok || q.ID != "Q3" {
			t.Errorf("Find(%q) = %q, %v", id, q.ID, ok)
		}
	}
	if _, ok := Find(questions, "Q99"); ok {
		t.Error("Find(Q99) succeeded")
	}

	if got := Difficulties(questions); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Difficulties = %v", got)
	}
	if got := ByDifficulty(questions)[1]; len(got) != 4 {
		t.Errorf("difficulty 1 ids = %v", got)
	}
}
