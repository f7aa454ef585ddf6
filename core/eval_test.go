package core

import (
	"errors"
	"testing"
)

func execute(t *testing.T, src string, input string, configure ...func(*Context)) (string, error) {
	t.Helper()
	program := parse(t, src)

	ctx := NewRuntime()
	for _, fn := range configure {
		fn(ctx)
	}
	if err := BindInput(ctx, input); err != nil {
		t.Fatalf("BindInput(%q) error: %v", input, err)
	}
	err := Execute(ctx, program, DefaultLimits())
	return ctx.Output.String(), err
}

func expectOutput(t *testing.T, src, input, want string) {
	t.Helper()
	got, err := execute(t, src, input)
	if err != nil {
		t.Fatalf("run error: %v\nsource:\n%s", err, src)
	}
	if got != want {
		t.Errorf("output mismatch\nsource:\n%s\nwant %q\n got %q", src, want, got)
	}
}

func expectFault(t *testing.T, src, input string, kind FaultKind, reason string) *RuntimeError {
	t.Helper()
	_, err := execute(t, src, input)
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) {
		t.Fatalf("error = %v, want *RuntimeError\nsource:\n%s", err, src)
	}
	if runtimeErr.Kind != kind {
		t.Errorf("fault kind = %v, want %v (%s)", runtimeErr.Kind, kind, runtimeErr.Reason)
	}
	if reason != "" && runtimeErr.Reason != reason {
		t.Errorf("fault reason = %q, want %q", runtimeErr.Reason, reason)
	}
	return runtimeErr
}

func TestPrint(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`print("hello")`, "hello\n"},
		{`print(1, 2, 3)`, "1 2 3\n"},
		{`print(1, 2, separator: "-")`, "1-2\n"},
		{`print("a", terminator: ""); print("b")`, "ab\n"},
		{`print()`, "\n"},
		{`print(true, nil)`, "true nil\n"},
		{`print([1, 2], ["a"])`, "[1, 2] [\"a\"]\n"},
		{`print(["k": 1])`, "[\"k\": 1]\n"},
		{`let d: [String: Int] = [:]
print(d)`, "[:]\n"},
	}

	for _, tt := range tests {
		expectOutput(t, tt.src, "", tt.want)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"print(7 / 2)", "3\n"},
		{"print(-7 / 2)", "-3\n"},
		{"print(7 % 3)", "1\n"},
		{"print(7.0 / 2)", "3.5\n"},
		{"print(1 + 2.0)", "3.0\n"},
		{"print(2 * 3 + 4)", "10\n"},
		{"print(2 * (3 + 4))", "14\n"},
		{"print(0.1 + 0.2)", "0.30000000000000004\n"},
		{`print("ab" + "cd")`, "abcd\n"},
		{"print([1] + [2, 3])", "[1, 2, 3]\n"},
		{"print(3 > 2, 2 >= 3, 1 == 1.0)", "true false true\n"},
		{`print("apple" < "banana")`, "true\n"},
		{"print(true && !false, false || false)", "true false\n"},
		{"let x = 5\nprint(x > 3 ? \"big\" : \"small\")", "big\n"},
		{"var n = 10\nn += 5\nn *= 2\nn -= 1\nn /= 3\nn %= 4\nprint(n)", "1\n"},
	}

	for _, tt := range tests {
		expectOutput(t, tt.src, "", tt.want)
	}
}

func TestArithmeticFaults(t *testing.T) {
	expectFault(t, "print(1 / 0)", "", DivisionByZero, "Division by zero")
	expectFault(t, "print(1 % 0)", "", DivisionByZero, "Division by zero in remainder operation")
	expectFault(t, `print(1 + "a")`, "", TypeMismatch, "Binary operator '+' cannot be applied to operands of type 'Int' and 'String'")
	expectFault(t, "print(9223372036854775807 + 1)", "", InvalidOperation, "Arithmetic overflow")
	expectFault(t, "if 1 { print(1) }", "", TypeMismatch, "Cannot convert value of type 'Int' to expected condition type 'Bool'")
}

func TestStringInterpolation(t *testing.T) {
	expectOutput(t, `let name = "Ada"
let n = 3
print("Hi \(name), \(n + 1) items, \(n > 2 ? "many" : "few")")`, "", "Hi Ada, 4 items, many\n")
	expectOutput(t, `print("tab\tquote\" slash\\")`, "", "tab\tquote\" slash\\\n")
}

func TestScopingImplicitDeclarationDoesNotLeak(t *testing.T) {
	fault := expectFault(t, "if true {\n  y = 5\n}\nprint(y)", "", UndefinedVariable, "Cannot find 'y' in scope")
	if fault.Pos.Line != 4 {
		t.Errorf("fault line = %d, want 4", fault.Pos.Line)
	}
}

func TestScopingShadowedAssignmentMutatesOuter(t *testing.T) {
	expectOutput(t, "var x = 1\nif true {\n  x = 2\n}\nprint(x)", "", "2\n")
	expectOutput(t, "var total = 0\nfor i in 1...3 {\n  total += i\n}\nprint(total)", "", "6\n")
}

func TestScopingDeclarationShadows(t *testing.T) {
	expectOutput(t, "let x = 1\nif true {\n  let x = 2\n  print(x)\n}\nprint(x)", "", "2\n1\n")
}

func TestAssignStrictPolicy(t *testing.T) {
	_, err := execute(t, "y = 5", "", func(ctx *Context) { ctx.Assign = AssignStrict })
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Kind != UndefinedVariable {
		t.Fatalf("error = %v, want UndefinedVariable", err)
	}

	got, err := execute(t, "y = 5\nprint(y)", "")
	if err != nil || got != "5\n" {
		t.Fatalf("default policy: output %q, error %v", got, err)
	}
}

func TestConstantAssignment(t *testing.T) {
	expectFault(t, "let x = 1\nx = 2", "", ConstantAssignment, "Cannot assign to value: 'x' is a 'let' constant")
	expectFault(t, "let a = [1]\na.append(2)", "", ConstantAssignment, "")
	expectOutput(t, "let x: Int\nx = 4\nprint(x)", "", "4\n")
}

func TestLoops(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"for i in 0..<3 { print(i) }", "0\n1\n2\n"},
		{"for i in 1...3 { print(i) }", "1\n2\n3\n"},
		{"for i in 3..<3 { print(i) }", ""},
		{`for c in "abc" { print(c) }`, "a\nb\nc\n"},
		{"for x in [10, 20] { print(x) }", "10\n20\n"},
		{`let d = ["b": 2, "a": 1]
for k in d { print(k) }`, "b\na\n"},
		{"var i = 0\nwhile i < 3 {\n  i += 1\n}\nprint(i)", "3\n"},
		{"for i in 0..<10 {\n  if i == 3 { break }\n  if i % 2 == 0 { continue }\n  print(i)\n}", "1\n"},
		{"for _ in 1...2 { print(\"x\") }", "x\nx\n"},
		{"for i in stride(from: 10, to: 0, by: -3) { print(i) }", "10\n7\n4\n1\n"},
		{"for i in stride(from: 0, through: 4, by: 2) { print(i) }", "0\n2\n4\n"},
	}

	for _, tt := range tests {
		expectOutput(t, tt.src, "", tt.want)
	}
}

func TestForIteratesSnapshot(t *testing.T) {
	expectOutput(t, "var a = [1, 2]\nfor x in a {\n  a.append(x)\n}\nprint(a)", "", "[1, 2, 1, 2]\n")
}

func TestInvalidRange(t *testing.T) {
	expectFault(t, "for i in 5...1 { print(i) }", "", InvalidOperation, "Range requires lowerBound <= upperBound")
}

func TestIterationLimit(t *testing.T) {
	expectFault(t, "while true {\n}", "", IterationLimit, "iteration limit exceeded")
	expectFault(t, "var i = 0\nwhile i < 10 {\n  print(i)\n}", "", IterationLimit, "iteration limit exceeded")
}

func TestSizeLimits(t *testing.T) {
	tests := []string{
		"print((0..<9000000000000).count)",
		"print((0...9223372036854775807).count)",
		"for i in 0...9223372036854775807 {\n}",
		`print(String(repeating: "a", count: 4000000000))`,
		"print(Array(repeating: [1, 2, 3], count: 500000))",
		"var s = \"ab\"\nwhile true {\n  s = s + s\n}",
		"var s = \"ab\"\nwhile true {\n  s += s\n}",
		"var s = \"ab\"\nwhile true {\n  s = \"\\(s)\\(s)\"\n}",
		"var a = [1]\nwhile true {\n  a = a + a\n}",
		"var a = [1]\nwhile true {\n  a = [a, a]\n}",
		"var a = [1]\nwhile true {\n  a.append(contentsOf: a)\n}",
		"let s = String(repeating: \"x\", count: 1000000)\nwhile true {\n  print(s)\n}",
	}

	for _, src := range tests {
		expectFault(t, src, "", IterationLimit, "iteration limit exceeded")
	}

	expectFault(t, "let a = [1, 2]\nprint(a[0...9223372036854775807])", "", IndexOutOfBounds, "Index out of range")
	expectOutput(t, "print((1...3).count, (5..<5).count)", "", "3 0\n")
}

func TestSwitchRangePatterns(t *testing.T) {
	src := `switch v {
case 1...5:
  print("closed")
case 6..<8:
  print("half-open")
default:
  print("other")
}`
	tests := []struct {
		input string
		want  string
	}{
		{"v = 5", "closed\n"},
		{"v = 5.0", "closed\n"},
		{"v = 5.5", "other\n"},
		{"v = 0.5", "other\n"},
		{"v = 7.9", "half-open\n"},
		{"v = 8", "other\n"},
		{"v = 8.0", "other\n"},
	}

	for _, tt := range tests {
		expectOutput(t, src, tt.input, tt.want)
	}
}

func TestSwitchDefaultIsLastResort(t *testing.T) {
	// built directly since the parser rejects a default before other cases
	program := &Block{Statements: []Node{
		&Switch{
			Subject: &Literal{Value: IntValue(2)},
			Cases: []*SwitchCase{
				{Default: true, Body: []Node{&Print{Args: []Arg{{Value: &Literal{Value: StringValue("default")}}}}}},
				{Patterns: []Node{&Literal{Value: IntValue(2)}}, Body: []Node{&Print{Args: []Arg{{Value: &Literal{Value: StringValue("two")}}}}}},
			},
		},
	}}

	ctx := NewRuntime()
	if err := NewInterpreter(ctx, DefaultLimits()).Run(program); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ctx.Output.String(); got != "two\n" {
		t.Errorf("output = %q, want %q", got, "two\n")
	}
}

func TestSwitch(t *testing.T) {
	src := `switch n {
case 1:
  print("one")
case 2, 3:
  print("two or three")
case 4...6:
  print("four to six")
  fallthrough
case 7:
  print("seven")
default:
  print("other")
}`
	tests := []struct {
		input string
		want  string
	}{
		{"n = 1", "one\n"},
		{"n = 3", "two or three\n"},
		{"n = 5", "four to six\nseven\n"},
		{"n = 7", "seven\n"},
		{"n = 42", "other\n"},
	}

	for _, tt := range tests {
		expectOutput(t, src, tt.input, tt.want)
	}

	expectOutput(t, "switch \"b\" {\ncase \"a\":\n  print(1)\ncase \"b\":\n  break\n  print(2)\ndefault:\n  print(3)\n}\nprint(\"done\")", "", "done\n")
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"func greet() {\n  print(\"hi\")\n}\ngreet()", "hi\n"},
		{"func add(_ a: Int, _ b: Int) -> Int {\n  return a + b\n}\nprint(add(2, 3))", "5\n"},
		{"func area(width w: Int, height h: Int) -> Int {\n  return w * h\n}\nprint(area(width: 2, height: 4))", "8\n"},
		{"print(twice(4))\nfunc twice(_ n: Int) -> Int {\n  return n * 2\n}", "8\n"},
		{"func sign(_ n: Int) -> String {\n  if n < 0 {\n    return \"neg\"\n  }\n  for _ in 0..<1 {\n    if n == 0 { return \"zero\" }\n  }\n  return \"pos\"\n}\nprint(sign(-1), sign(0), sign(1))", "neg zero pos\n"},
	}

	for _, tt := range tests {
		expectOutput(t, tt.src, "", tt.want)
	}
}

func TestRecursiveFactorial(t *testing.T) {
	src := `func factorial(_ n: Int) -> Int {
  if n <= 1 {
    return 1
  }
  return n * factorial(n - 1)
}
let n = Int(readLine()!)!
print(factorial(n))`

	expectOutput(t, src, "5", "120\n")
}

func TestFunctionParametersAreCopies(t *testing.T) {
	expectOutput(t, "func grow(_ a: [Int]) -> [Int] {\n  var b = a\n  b.append(9)\n  return b\n}\nlet a = [1]\nprint(grow(a), a)", "", "[1, 9] [1]\n")
	expectFault(t, "func bump(_ n: Int) {\n  n += 1\n}\nbump(1)", "", ConstantAssignment, "")
}

func TestCallFaults(t *testing.T) {
	expectFault(t, "missing()", "", UndefinedFunction, "Cannot find 'missing' in scope")
	expectFault(t, "func f(_ a: Int) {}\nf()", "", ArityMismatch, "")
	expectFault(t, "func f(_ a: Int) {}\nf(1, 2)", "", ArityMismatch, "Extra argument in call")

	fault := expectFault(t, "func f(_ n: Int) -> Int {\n  return f(n + 1)\n}\nprint(f(0))", "", RecursionLimit, "maximum recursion depth exceeded")
	if len(fault.stackTrace) == 0 {
		t.Error("recursion fault has no stack trace")
	}
}

func TestCollections(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"var a = [3, 1, 2]\na.append(4)\nprint(a.count, a[0], a.first!, a.last!)", "4 3 3 4\n"},
		{"var a = [1, 2, 3]\na[1] = 20\na.insert(0, at: 0)\nprint(a)", "[0, 1, 20, 3]\n"},
		{"var a = [1, 2, 3]\nlet r = a.remove(at: 1)\nprint(r, a, a.removeLast(), a)", "2 [1, 3] 3 [1]\n"},
		{"let a = [3, 1, 2]\nprint(a.sorted(), a.reversed(), a.contains(2), a.min()!, a.max()!)", "[1, 2, 3] [2, 1, 3] true 1 3\n"},
		{`print(["a", "b"].joined(separator: ", "))`, "a, b\n"},
		{"let a: [Int] = []\nprint(a.isEmpty, a.first ?? -1)", "true -1\n"},
		{"var grid = [[1, 2], [3, 4]]\ngrid[1][0] = 9\nprint(grid)", "[[1, 2], [9, 4]]\n"},
		{"let a = [1, 2, 3, 4]\nprint(a[1...2], a[0..<0])", "[2, 3] []\n"},
		{`var d = ["a": 1]
d["b"] = 2
d["a"] = 10
print(d, d.count, d.keys, d.values)`, "[\"a\": 10, \"b\": 2] 2 [\"a\", \"b\"] [10, 2]\n"},
		{`var d = ["a": 1, "b": 2]
print(d.removeValue(forKey: "a")!, d)
d["b"] = nil
print(d.isEmpty)`, "1 [\"b\": 2]\ntrue\n"},
		{`let s = "Hello"
print(s.count, s.uppercased(), s.lowercased(), s.hasPrefix("He"), s.contains("ll"), String(s.reversed()))`, "5 HELLO hello true true olleH\n"},
		{"print(String(repeating: \"ab\", count: 3), Array(repeating: 0, count: 2))", "ababab [0, 0]\n"},
		{"print(42.description, 2.5.description)", "42 2.5\n"},
	}

	for _, tt := range tests {
		expectOutput(t, tt.src, "", tt.want)
	}
}

func TestValueSemantics(t *testing.T) {
	expectOutput(t, "var a = [1, 2]\nvar b = a\nb.append(3)\nprint(a, b)", "", "[1, 2] [1, 2, 3]\n")
	expectOutput(t, "var d = [\"k\": [1]]\nvar e = d\ne[\"k\"] = [2]\nprint(d, e)", "", "[\"k\": [1]] [\"k\": [2]]\n")
}

func TestDictionaryMissingKeyIsNil(t *testing.T) {
	expectOutput(t, `let d = ["a": 1]
let v = d["zzz"]
print(v == nil, d["zzz"] ?? 0)`, "", "true 0\n")
	expectFault(t, `let d = ["a": 1]
print(d["zzz"]!)`, "", NilUnwrap, "Unexpectedly found nil while unwrapping an Optional value")
}

func TestIndexOutOfRange(t *testing.T) {
	fault := expectFault(t, "let a = [1, 2]\nprint(a[2])", "", IndexOutOfBounds, "Index out of range")
	if fault.Pos.Line != 2 {
		t.Errorf("fault line = %d, want 2", fault.Pos.Line)
	}
	expectFault(t, "var a = [1]\na[-1] = 0", "", IndexOutOfBounds, "Index out of range")
	expectFault(t, "var a: [Int] = []\na.removeLast()", "", IndexOutOfBounds, "")
}

func TestConversions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`print(Int("42")!, Int("x") ?? -1, Int(3.9))`, "42 -1 3\n"},
		{`print(Double("2.5")!, Double(2))`, "2.5 2.0\n"},
		{`print(String(12) + "!", String(true))`, "12! true\n"},
		{"print(abs(-4), abs(-2.5), min(3, 1, 2), max(1.5, 2.5))", "4 2.5 1 2.5\n"},
		{`print(Array("hi"), Bool("true")!)`, "[\"h\", \"i\"] true\n"},
	}

	for _, tt := range tests {
		expectOutput(t, tt.src, "", tt.want)
	}
}

func TestReadLineInput(t *testing.T) {
	src := `let a = Int(readLine()!)!
let b = Int(readLine()!)!
print(a + b)
print(readLine() == nil)`
	expectOutput(t, src, "2\n3", "5\ntrue\n")
}

func TestBindInputVariables(t *testing.T) {
	src := "if x > 5 {\n  print(\"big\")\n}"
	expectOutput(t, src, "x = 3", "")
	expectOutput(t, src, "x = 10", "big\n")

	expectOutput(t, "print(name, nums.count, -n)", "name = \"Ada\"\nnums = [1, 2, 3]\nn = -4", "Ada 3 4\n")

	// lines that are not literal bindings go to readLine()
	expectOutput(t, "print(readLine()!)", "x = y", "x = y\n")
}

func TestBindInputFaults(t *testing.T) {
	ctx := NewRuntime()
	err := BindInput(ctx, "a = [1: 2, [3]: 4]")
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Kind != TypeMismatch {
		t.Fatalf("BindInput error = %v, want unhashable key fault", err)
	}
}

func TestStepsCountsIterationsAndCalls(t *testing.T) {
	ctx := NewRuntime()
	program := parse(t, "func f() {}\nfor _ in 0..<3 {\n  f()\n}\nprint(abs(1))")
	interpreter := NewInterpreter(ctx, DefaultLimits())
	if err := interpreter.Run(program); err != nil {
		t.Fatal(err)
	}
	if got := interpreter.Steps(); got != 7 {
		t.Errorf("Steps() = %d, want 7", got)
	}
}

func TestLimitsOverride(t *testing.T) {
	ctx := NewRuntime()
	program := parse(t, "for i in 0..<10 { print(i) }")
	err := Execute(ctx, program, Limits{MaxIterations: 5})
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Kind != IterationLimit {
		t.Fatalf("error = %v, want iteration limit", err)
	}
	if got := ctx.Output.String(); got != "0\n1\n2\n3\n4\n" {
		t.Errorf("output before the limit = %q", got)
	}
}

func TestExecRejectsStrayBreak(t *testing.T) {
	_, err := execute(t, "break", "")
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) || runtimeErr.Reason != "'break' is only allowed inside a loop or switch" {
		t.Fatalf("error = %v", err)
	}
}
