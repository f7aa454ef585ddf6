package grader

import (
	"strings"

	"github.com/ajkachnic/debugquest/core"
)

// complexity classifies a program by its deepest loop nesting, or as
// recursive when any function calls itself.
func complexity(program *core.Block) Complexity {
	if isRecursive(program) {
		return ComplexityRecursive
	}

	switch depth := loopDepth(program); {
	case depth == 0:
		return ComplexityConstant
	case depth == 1:
		return ComplexityLinear
	case depth == 2:
		return ComplexityQuadratic
	}
	return ComplexityPolynomial
}

func loopDepth(root core.Node) int {
	deepest := 0
	core.Walk(root, func(n core.Node) bool {
		if n == root {
			return true
		}
		switch n.(type) {
		case *core.While, *core.For:
			if d := 1 + loopDepth(n); d > deepest {
				deepest = d
			}
			return false
		}
		return true
	})
	return deepest
}

func isRecursive(program *core.Block) bool {
	recursive := false
	core.Walk(program, func(n core.Node) bool {
		decl, ok := n.(*core.FuncDecl)
		if !ok || recursive {
			return !recursive
		}
		core.Walk(decl.Body, func(inner core.Node) bool {
			if call, ok := inner.(*core.Call); ok {
				if callee, ok := call.Callee.(*core.Variable); ok && callee.Name == decl.Name {
					recursive = true
				}
			}
			return !recursive
		})
		return true
	})
	return recursive
}

// identicalOutputs reports two completed runs whose expected outputs differ
// but whose actual outputs are the same: the program did not depend on its
// input.
func identicalOutputs(results []TestCaseResult) bool {
	for i := range results {
		if results[i].Fault != "" {
			continue
		}
		for j := i + 1; j < len(results); j++ {
			if results[j].Fault != "" {
				continue
			}
			if results[i].Expected != results[j].Expected && results[i].Actual == results[j].Actual {
				return true
			}
		}
	}
	return false
}

// printArgs collects the positional arguments of every print statement.
func printArgs(program *core.Block) []core.Node {
	args := []core.Node{}
	core.Walk(program, func(n core.Node) bool {
		if p, ok := n.(*core.Print); ok {
			for _, arg := range p.Args {
				if arg.Label == "" {
					args = append(args, arg.Value)
				}
			}
		}
		return true
	})
	return args
}

func isLiteral(n core.Node) bool {
	_, ok := n.(*core.Literal)
	return ok
}

// computesOutput reports whether any printed value is built from something
// other than a literal.
func computesOutput(program *core.Block) bool {
	for _, arg := range printArgs(program) {
		if !isLiteral(arg) {
			return true
		}
	}
	return false
}

// literalOutputs reports a program whose prints are all literals that
// reproduce expected output text.
func literalOutputs(program *core.Block, results []TestCaseResult) bool {
	args := printArgs(program)
	if len(args) == 0 {
		return false
	}

	for _, arg := range args {
		if !isLiteral(arg) {
			return false
		}
		text := arg.(*core.Literal).Value.String()
		found := false
		for _, r := range results {
			if text != "" && strings.Contains(r.Expected, text) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// uniformOutputs reports whether every completed run printed the same text.
func uniformOutputs(results []TestCaseResult) bool {
	first := ""
	seen := false
	for _, r := range results {
		if r.Fault != "" {
			continue
		}
		if seen && r.Actual != first {
			return false
		}
		first, seen = r.Actual, true
	}
	return true
}

// hardcoded combines the two signals. The literal check only applies when
// the reference solution computes its output and the submission printed the
// same thing for every input; literals chosen by branching on the input are
// not hardcoding.
func hardcoded(submission, reference *core.Block, results []TestCaseResult) bool {
	if identicalOutputs(results) {
		return true
	}
	return reference != nil && computesOutput(reference) && uniformOutputs(results) && literalOutputs(submission, results)
}

// edgeCasesHandled requires every edge-tagged case to pass. Without tagged
// cases it is true when every case passed.
func edgeCasesHandled(results []TestCaseResult) bool {
	tagged := false
	for _, r := range results {
		if r.Edge {
			tagged = true
			if !r.Passed {
				return false
			}
		}
	}
	if tagged {
		return true
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
