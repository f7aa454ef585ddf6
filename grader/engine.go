package grader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ajkachnic/debugquest/core"
	"github.com/ajkachnic/debugquest/logger"
	"github.com/ajkachnic/debugquest/modules"
)

type state int

const (
	stateIdle state = iota
	stateParsing
	stateParsed
	stateExecuting
	stateAllCasesRun
	stateGrading
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateParsing:
		return "Parsing"
	case stateParsed:
		return "Parsed"
	case stateExecuting:
		return "Executing"
	case stateAllCasesRun:
		return "AllCasesRun"
	case stateGrading:
		return "Grading"
	}
	return "Done"
}

// Engine grades submissions. It holds only configuration, so one Engine may
// serve concurrent Evaluate calls.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// evaluation is the state of a single Evaluate call.
type evaluation struct {
	question *Question
	state    state
}

func (ev *evaluation) enter(next state) {
	logger.LogTransition(ev.question.ID, ev.state, next)
	ev.state = next
}

// fault is the first failure of a run, reduced to what feedback needs.
type fault struct {
	kind    ErrorType
	message string
	line    int
	column  int
}

func classify(err error) fault {
	var syntaxErr *core.SyntaxError
	var runtimeErr *core.RuntimeError

	switch {
	case errors.As(err, &syntaxErr):
		return fault{kind: ErrorSyntax, message: syntaxErr.Message, line: syntaxErr.Pos.Line, column: syntaxErr.Pos.Col}
	case errors.As(err, &runtimeErr):
		return fault{kind: ErrorRuntime, message: runtimeErr.Reason, line: runtimeErr.Pos.Line, column: runtimeErr.Pos.Col}
	}
	return fault{kind: ErrorUnknown, message: err.Error()}
}

func (f fault) feedback() string {
	if f.line > 0 {
		return fmt.Sprintf("%s (line %d): %s", f.kind.Label(), f.line, f.message)
	}
	return fmt.Sprintf("%s: %s", f.kind.Label(), f.message)
}

// run executes program against one input in a fresh context and returns the
// captured output with its final newline removed.
func (e *Engine) run(program *core.Block, input string) (string, error) {
	ctx := core.NewRuntime()
	ctx.Assign = e.cfg.Assign
	modules.Load(ctx)

	if err := core.BindInput(ctx, input); err != nil {
		return "", err
	}
	err := core.Execute(ctx, program, e.cfg.Limits)
	return strings.TrimSuffix(ctx.Output.String(), "\n"), err
}

// Evaluate grades code against q. attempts counts this submission, starting
// at 1. It never panics; unexpected failures become ErrorUnknown results.
func (e *Engine) Evaluate(code string, q Question, attempts int) (result *Result) {
	ev := &evaluation{question: &q, state: stateIdle}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Evaluation panicked", "question", q.ID, "panic", r)
			result = e.failure(q, fault{kind: ErrorUnknown, message: fmt.Sprint(r)})
		}
	}()

	ev.enter(stateParsing)
	program, err := core.Parse(code)
	if err != nil {
		ev.enter(stateDone)
		return e.failure(q, classify(err))
	}
	ev.enter(stateParsed)

	var reference *core.Block
	if q.CorrectCode != "" {
		if reference, err = core.Parse(q.CorrectCode); err != nil {
			logger.LogReferenceFailure(q.ID, err)
			reference = nil
		}
	}

	cases := q.TestCases
	if len(cases) == 0 {
		cases = []TestCase{{FromReference: true}}
	}

	results := make([]TestCaseResult, 0, len(cases))
	var first *fault

	ev.enter(stateExecuting)
	for i, tc := range cases {
		expected := tc.Expected
		if tc.FromReference {
			if reference == nil {
				ev.enter(stateDone)
				return e.failure(q, fault{kind: ErrorUnknown, message: "the reference solution for this question does not parse"})
			}
			out, err := e.run(reference, tc.Input)
			if err != nil {
				logger.LogReferenceFailure(q.ID, err)
				ev.enter(stateDone)
				return e.failure(q, fault{kind: ErrorUnknown, message: "the reference solution for this question does not run: " + classify(err).message})
			}
			expected = out
		}

		actual, err := e.run(program, tc.Input)
		tr := TestCaseResult{
			Input:    tc.Input,
			Expected: expected,
			Actual:   actual,
			Edge:     tc.Edge,
		}
		if err != nil {
			f := classify(err)
			tr.Fault = f.message
			if first == nil {
				first = &f
			}
		} else {
			tr.Passed = actual == expected
		}

		logger.LogCase(q.ID, i, tr.Passed, tr.Fault)
		results = append(results, tr)
	}
	ev.enter(stateAllCasesRun)

	ev.enter(stateGrading)
	result = e.grade(q, code, program, reference, results, first, attempts)
	ev.enter(stateDone)

	logger.LogVerdict(q.ID, result.Status.String(), result.Score, result.Level.String())
	return result
}

func (e *Engine) grade(q Question, code string, program, reference *core.Block, results []TestCaseResult, first *fault, attempts int) *Result {
	policy := e.cfg.Policy

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	correct := first == nil && passed == len(results)

	result := &Result{
		QuestionID:         q.ID,
		Complexity:         complexity(program),
		EdgeCaseHandled:    edgeCasesHandled(results),
		HardcodingDetected: hardcoded(program, reference, results),
		Difficulty:         clampDifficulty(q.Difficulty),
		TestResults:        results,
		PatternMisses:      patternMisses(code, q.ExpectedPatterns),
	}

	switch {
	case first != nil:
		result.ErrorType = first.kind
		result.Line = first.line
		result.Column = first.column
		result.Feedback = first.feedback()
	case !correct:
		result.ErrorType = ErrorLogic
		result.Feedback = fmt.Sprintf("%s: output did not match on %d of %d test cases", ErrorLogic.Label(), len(results)-passed, len(results))
	default:
		result.Status = StatusCorrect
		result.ErrorType = ErrorNone
		result.Feedback = correctFeedback(result)
	}

	result.Score = policy.Score(correct, q.Difficulty, attempts, result.HardcodingDetected, result.EdgeCaseHandled)
	result.Level = policy.Level(correct, attempts, result.HardcodingDetected, result.EdgeCaseHandled, len(result.PatternMisses) > 0)
	result.Rewards = policy.Rewards(correct, result.Score, q.Difficulty)
	return result
}

func correctFeedback(r *Result) string {
	notes := []string{"All test cases passed."}
	if r.HardcodingDetected {
		notes = append(notes, "The output does not depend on the input; compute it instead of printing it directly.")
	}
	if !r.EdgeCaseHandled {
		notes = append(notes, "Some edge cases are not handled.")
	}
	if len(r.PatternMisses) > 0 {
		notes = append(notes, fmt.Sprintf("The fix does not use the expected construct (%d pattern(s) missed).", len(r.PatternMisses)))
	}
	return strings.Join(notes, " ")
}

func (e *Engine) failure(q Question, f fault) *Result {
	return &Result{
		QuestionID:  q.ID,
		Status:      StatusIncorrect,
		Level:       LevelFailed,
		ErrorType:   f.kind,
		Feedback:    f.feedback(),
		Line:        f.line,
		Column:      f.column,
		Difficulty:  clampDifficulty(q.Difficulty),
		TestResults: []TestCaseResult{},
	}
}

// Diagnose returns the first fault message of code: the syntax fault if it
// does not parse, else the runtime fault of a run without input, else "".
func (e *Engine) Diagnose(code string) (message string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Diagnose panicked", "panic", r)
			message = fmt.Sprint(r)
		}
	}()

	program, err := core.Parse(code)
	if err != nil {
		return classify(err).message
	}
	if _, err := e.run(program, ""); err != nil {
		return classify(err).message
	}
	return ""
}
