package grader

import (
	"fmt"
)

type Status int

const (
	StatusIncorrect Status = iota
	StatusCorrect
)

func (s Status) String() string {
	if s == StatusCorrect {
		return "correct"
	}
	return "incorrect"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorSyntax
	ErrorRuntime
	ErrorLogic
	ErrorUnknown
)

func (e ErrorType) String() string {
	switch e {
	case ErrorNone:
		return "none"
	case ErrorSyntax:
		return "syntax"
	case ErrorRuntime:
		return "runtime"
	case ErrorLogic:
		return "logic"
	}
	return "unknown"
}

// Label is the prefix used in feedback text.
func (e ErrorType) Label() string {
	switch e {
	case ErrorSyntax:
		return "Syntax Error"
	case ErrorRuntime:
		return "Runtime Error"
	case ErrorLogic:
		return "Logic Error"
	case ErrorUnknown:
		return "Unknown Error"
	}
	return ""
}

func (e ErrorType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

type Level int

const (
	LevelFailed Level = iota
	LevelBeginner
	LevelIntermediate
	LevelAdvanced
	LevelExpert
)

var levelNames = [...]string{
	LevelFailed:       "failed",
	LevelBeginner:     "beginner",
	LevelIntermediate: "intermediate",
	LevelAdvanced:     "advanced",
	LevelExpert:       "expert",
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

type Complexity int

const (
	ComplexityConstant Complexity = iota
	ComplexityLinear
	ComplexityQuadratic
	ComplexityPolynomial
	ComplexityRecursive
)

func (c Complexity) String() string {
	switch c {
	case ComplexityConstant:
		return "constant"
	case ComplexityLinear:
		return "linear"
	case ComplexityQuadratic:
		return "quadratic"
	case ComplexityPolynomial:
		return "polynomial"
	}
	return "recursive"
}

func (c Complexity) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type TestCase struct {
	// Input is fed to the program: `name = literal` lines become variables,
	// other lines are returned by readLine().
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Edge     bool   `json:"edge,omitempty"`

	// FromReference takes the expected output from running the question's
	// correct code instead of Expected.
	FromReference bool `json:"fromReference,omitempty"`
}

type Question struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	InitialCode        string     `json:"initialCode"`
	CorrectCode        string     `json:"correctCode"`
	Difficulty         int        `json:"difficulty"`
	Riddle             string     `json:"riddle,omitempty"`
	ConceptExplanation string     `json:"conceptExplanation,omitempty"`
	ExpectedPatterns   []string   `json:"expectedPatterns,omitempty"`
	TestCases          []TestCase `json:"testCases,omitempty"`
}

type TestCaseResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
	Edge     bool   `json:"edge,omitempty"`
	Fault    string `json:"fault,omitempty"`
}

type Rewards struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

type Result struct {
	QuestionID         string           `json:"questionId"`
	Status             Status           `json:"status"`
	Score              float64          `json:"score"`
	Level              Level            `json:"level"`
	Complexity         Complexity       `json:"complexity"`
	EdgeCaseHandled    bool             `json:"edgeCaseHandled"`
	HardcodingDetected bool             `json:"hardcodingDetected"`
	ErrorType          ErrorType        `json:"errorType"`
	Feedback           string           `json:"feedback"`
	Line               int              `json:"line,omitempty"` // 1-based line of the first fault, 0 when unknown
	Column             int              `json:"column,omitempty"`
	Difficulty         int              `json:"difficulty"`
	TestResults        []TestCaseResult `json:"testResults"`
	PatternMisses      []string         `json:"patternMisses,omitempty"`
	Rewards            Rewards          `json:"rewards"`
}

// Failures returns the test results that did not pass.
func (r *Result) Failures() []TestCaseResult {
	failures := []TestCaseResult{}
	for _, tr := range r.TestResults {
		if !tr.Passed {
			failures = append(failures, tr)
		}
	}
	return failures
}
