package core

import (
	"strings"
)

// Limits bound a single run so that no submission can hang its caller.
type Limits struct {
	// MaxIterations caps loop iterations plus function calls.
	MaxIterations int
	MaxCallDepth  int
}

func DefaultLimits() Limits {
	return Limits{
		MaxIterations: 100000,
		MaxCallDepth:  256,
	}
}

type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
	sigReturn
	sigFallthrough
)

type Interpreter struct {
	ctx    *Context
	limits Limits

	steps  int
	depth  int
	stored int
}

func NewInterpreter(ctx *Context, limits Limits) *Interpreter {
	if limits.MaxIterations <= 0 {
		limits.MaxIterations = DefaultLimits().MaxIterations
	}
	if limits.MaxCallDepth <= 0 {
		limits.MaxCallDepth = DefaultLimits().MaxCallDepth
	}
	return &Interpreter{ctx: ctx, limits: limits}
}

// Steps is the number of loop iterations and calls consumed so far.
func (in *Interpreter) Steps() int {
	return in.steps
}

// Run executes a program in the global scope.
func (in *Interpreter) Run(program *Block) error {
	_, sig, err := in.execStatements(program.Statements, in.ctx.Global())
	if err != nil {
		return err
	}
	switch sig {
	case sigBreak, sigContinue, sigFallthrough:
		return misplaced(program, sig)
	}
	return nil
}

// Exec evaluates node in scope s. Statements yield Nil.
func (in *Interpreter) Exec(node Node, s Scope) (Value, error) {
	value, sig, err := in.exec(node, s)
	if err != nil {
		return nil, err
	}
	if sig != sigNone && sig != sigReturn {
		return nil, misplaced(node, sig)
	}
	return value, nil
}

func misplaced(node Node, sig signal) error {
	word := map[signal]string{
		sigBreak:       "break",
		sigContinue:    "continue",
		sigFallthrough: "fallthrough",
	}[sig]
	return at(node, fault(InvalidOperation, "'%s' is only allowed inside a loop or switch", word))
}

// at attaches the node position to a fault that has none yet.
func at(node Node, err *RuntimeError) error {
	if err.Pos.Line == 0 {
		err.Pos = node.Pos()
	}
	return err
}

func (in *Interpreter) tick(node Node) error {
	in.steps++
	if in.steps > in.limits.MaxIterations {
		return at(node, fault(IterationLimit, "iteration limit exceeded"))
	}
	return nil
}

// store accounts for a value appended or assigned into a collection.
func (in *Interpreter) store(node Node, v Value) error {
	in.stored += weight(v, maxStored)
	if in.stored > maxStored {
		return at(node, sizeLimit())
	}
	return nil
}

func (in *Interpreter) eval(node Node, s Scope) (Value, error) {
	value, _, err := in.exec(node, s)
	return value, err
}

func (in *Interpreter) evalBool(node Node, s Scope) (bool, error) {
	value, err := in.eval(node, s)
	if err != nil {
		return false, err
	}
	b, ok := value.(BoolValue)
	if !ok {
		return false, at(node, fault(TypeMismatch, "Cannot convert value of type '%s' to expected condition type 'Bool'", value.Type()))
	}
	return bool(b), nil
}

func (in *Interpreter) evalInt(node Node, s Scope) (int64, error) {
	value, err := in.eval(node, s)
	if err != nil {
		return 0, err
	}
	i, ok := value.(IntValue)
	if !ok {
		return 0, at(node, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'Int'", value.Type()))
	}
	return int64(i), nil
}

// execStatements hoists the function declarations of a statement list into s
// and runs the statements until one raises a control signal.
func (in *Interpreter) execStatements(stmts []Node, s Scope) (Value, signal, error) {
	for _, stmt := range stmts {
		if decl, ok := stmt.(*FuncDecl); ok {
			in.ctx.DefineFunction(s, decl)
		}
	}

	for _, stmt := range stmts {
		value, sig, err := in.exec(stmt, s)
		if err != nil || sig != sigNone {
			return value, sig, err
		}
	}
	return Nil, sigNone, nil
}

func (in *Interpreter) exec(node Node, s Scope) (Value, signal, error) {
	switch n := node.(type) {
	case *Block:
		child := in.ctx.Push(s)
		value, sig, err := in.execStatements(n.Statements, child)
		in.ctx.Pop(child)
		return value, sig, err

	case *VarDecl:
		var value Value = Nil
		if n.Value != nil {
			v, err := in.eval(n.Value, s)
			if err != nil {
				return nil, sigNone, err
			}
			value = Copy(v)
		}
		// a `let x: Int` without initializer is assigned later
		in.ctx.Define(s, n.Name, value, n.Constant && n.Value != nil)
		return Nil, sigNone, nil

	case *Assignment:
		return Nil, sigNone, in.execAssignment(n, s)

	case *Print:
		return Nil, sigNone, in.execPrint(n, s)

	case *If:
		cond, err := in.evalBool(n.Cond, s)
		if err != nil {
			return nil, sigNone, err
		}
		if cond {
			return in.exec(n.Then, s)
		}
		if n.Else != nil {
			return in.exec(n.Else, s)
		}
		return Nil, sigNone, nil

	case *Switch:
		return in.execSwitch(n, s)

	case *While:
		for {
			if err := in.tick(n); err != nil {
				return nil, sigNone, err
			}
			cond, err := in.evalBool(n.Cond, s)
			if err != nil {
				return nil, sigNone, err
			}
			if !cond {
				return Nil, sigNone, nil
			}
			value, sig, err := in.exec(n.Body, s)
			if err != nil {
				return nil, sigNone, err
			}
			switch sig {
			case sigBreak:
				return Nil, sigNone, nil
			case sigReturn, sigFallthrough:
				return value, sig, nil
			}
		}

	case *For:
		return in.execFor(n, s)

	case *BinaryOp:
		value, err := in.evalBinary(n, s)
		return value, sigNone, err

	case *Unary:
		operand, err := in.eval(n.Operand, s)
		if err != nil {
			return nil, sigNone, err
		}
		value, rerr := unaryOp(n.Op, operand)
		if rerr != nil {
			return nil, sigNone, at(n, rerr)
		}
		return value, sigNone, nil

	case *Ternary:
		cond, err := in.evalBool(n.Cond, s)
		if err != nil {
			return nil, sigNone, err
		}
		if cond {
			value, err := in.eval(n.Then, s)
			return value, sigNone, err
		}
		value, err := in.eval(n.Else, s)
		return value, sigNone, err

	case *Range:
		low, high, err := in.evalBounds(n, s)
		if err != nil {
			return nil, sigNone, err
		}
		count := rangeCount(low, high, n.Closed, maxMaterialized)
		if count > maxMaterialized {
			return nil, sigNone, at(n, sizeLimit())
		}
		items := make([]Value, count)
		for i := range items {
			items[i] = IntValue(low + int64(i))
		}
		return NewArray(items...), sigNone, nil

	case *Literal:
		return n.Value, sigNone, nil

	case *Interpolation:
		builder := strings.Builder{}
		for _, part := range n.Parts {
			value, err := in.eval(part, s)
			if err != nil {
				return nil, sigNone, err
			}
			builder.WriteString(value.String())
			if builder.Len() > maxMaterialized {
				return nil, sigNone, at(n, sizeLimit())
			}
		}
		return StringValue(builder.String()), sigNone, nil

	case *Variable:
		value, rerr := in.ctx.Get(s, n.Name)
		if rerr != nil {
			return nil, sigNone, at(n, rerr)
		}
		return value, sigNone, nil

	case *FuncDecl:
		// hoisted by execStatements
		return Nil, sigNone, nil

	case *Call:
		value, err := in.execCall(n, s)
		return value, sigNone, err

	case *Return:
		if n.Value == nil {
			return Nil, sigReturn, nil
		}
		value, err := in.eval(n.Value, s)
		if err != nil {
			return nil, sigNone, err
		}
		return value, sigReturn, nil

	case *Break:
		return Nil, sigBreak, nil

	case *Continue:
		return Nil, sigContinue, nil

	case *Fallthrough:
		return Nil, sigFallthrough, nil

	case *ExprStmt:
		_, err := in.eval(n.Expr, s)
		return Nil, sigNone, err

	case *Array:
		items := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			value, err := in.eval(el, s)
			if err != nil {
				return nil, sigNone, err
			}
			items[i] = Copy(value)
		}
		array := NewArray(items...)
		if weight(array, maxMaterialized) > maxMaterialized {
			return nil, sigNone, at(n, sizeLimit())
		}
		return array, sigNone, nil

	case *Dictionary:
		dict := NewDict()
		for i := range n.Keys {
			key, err := in.eval(n.Keys[i], s)
			if err != nil {
				return nil, sigNone, err
			}
			value, err := in.eval(n.Values[i], s)
			if err != nil {
				return nil, sigNone, err
			}
			if !dict.Set(key, Copy(value)) {
				return nil, sigNone, at(n.Keys[i], fault(TypeMismatch, "Type '%s' does not conform to protocol 'Hashable'", key.Type()))
			}
		}
		if weight(dict, maxMaterialized) > maxMaterialized {
			return nil, sigNone, at(n, sizeLimit())
		}
		return dict, sigNone, nil

	case *Subscript:
		target, err := in.eval(n.Target, s)
		if err != nil {
			return nil, sigNone, err
		}
		value, err := in.subscript(n, target, s)
		return value, sigNone, err

	case *MethodCall:
		value, err := in.execMethod(n, s)
		return value, sigNone, err

	case *Unwrap:
		value, err := in.eval(n.Operand, s)
		if err != nil {
			return nil, sigNone, err
		}
		if value.Type() == NilType {
			return nil, sigNone, at(n, fault(NilUnwrap, "Unexpectedly found nil while unwrapping an Optional value"))
		}
		return value, sigNone, nil
	}

	return nil, sigNone, at(node, fault(InvalidOperation, "Unsupported node %s", node.Kind()))
}

func (in *Interpreter) evalBinary(n *BinaryOp, s Scope) (Value, error) {
	switch n.Op {
	case AND, OR:
		left, err := in.evalBool(n.Left, s)
		if err != nil {
			return nil, err
		}
		if (n.Op == AND && !left) || (n.Op == OR && left) {
			return BoolValue(left), nil
		}
		right, err := in.evalBool(n.Right, s)
		return BoolValue(right), err
	case COALESCE:
		left, err := in.eval(n.Left, s)
		if err != nil {
			return nil, err
		}
		if left.Type() != NilType {
			return left, nil
		}
		return in.eval(n.Right, s)
	}

	left, err := in.eval(n.Left, s)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(n.Right, s)
	if err != nil {
		return nil, err
	}

	value, rerr := binaryOp(n.Op, left, right)
	if rerr != nil {
		return nil, at(n, rerr)
	}
	return value, nil
}

// evalBounds returns the bounds of a range as written. The upper bound is
// included only when n.Closed.
func (in *Interpreter) evalBounds(n *Range, s Scope) (int64, int64, error) {
	low, err := in.evalInt(n.Low, s)
	if err != nil {
		return 0, 0, err
	}
	high, err := in.evalInt(n.High, s)
	if err != nil {
		return 0, 0, err
	}
	if high < low {
		return 0, 0, at(n, fault(InvalidOperation, "Range requires lowerBound <= upperBound"))
	}
	return low, high, nil
}

// rangeCount is the number of integers in a range, saturating at limit+1.
func rangeCount(low, high int64, closed bool, limit uint64) uint64 {
	n := uint64(high) - uint64(low)
	if n > limit {
		return limit + 1
	}
	if closed {
		n++
	}
	return n
}

func (in *Interpreter) execAssignment(n *Assignment, s Scope) error {
	value, err := in.eval(n.Value, s)
	if err != nil {
		return err
	}

	if op := compoundOp(n.Op); op != UNKNOWN {
		current, err := in.eval(n.Target, s)
		if err != nil {
			return err
		}
		var rerr *RuntimeError
		if value, rerr = binaryOp(op, current, value); rerr != nil {
			return at(n, rerr)
		}
	}

	return in.assignTo(n.Target, Copy(value), s)
}

// assignTo stores value into a Variable or Subscript target.
func (in *Interpreter) assignTo(target Node, value Value, s Scope) error {
	switch t := target.(type) {
	case *Variable:
		if rerr := in.ctx.Set(s, t.Name, value); rerr != nil {
			return at(t, rerr)
		}
		return nil
	case *Subscript:
		container, err := in.place(t.Target, s)
		if err != nil {
			return err
		}
		index, err := in.eval(t.Index, s)
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *ArrayValue:
			i, ok := index.(IntValue)
			if !ok {
				return at(t.Index, fault(TypeMismatch, "Cannot subscript a value of type 'Array' with an argument of type '%s'", index.Type()))
			}
			if i < 0 || int(i) >= len(c.Items) {
				return at(t, fault(IndexOutOfBounds, "Index out of range"))
			}
			if err := in.store(t, value); err != nil {
				return err
			}
			c.Items[i] = value
			return nil
		case *DictValue:
			if value.Type() == NilType {
				c.Delete(index)
				return nil
			}
			if err := in.store(t, value); err != nil {
				return err
			}
			if !c.Set(index, value) {
				return at(t.Index, fault(TypeMismatch, "Type '%s' does not conform to protocol 'Hashable'", index.Type()))
			}
			return nil
		}
		return at(t, fault(TypeMismatch, "Value of type '%s' has no subscripts", container.Type()))
	}
	return at(target, fault(InvalidOperation, "Cannot assign to this expression"))
}

// place resolves an expression to the stored value it names, without copying,
// so collection mutations land in the binding itself.
func (in *Interpreter) place(node Node, s Scope) (Value, error) {
	switch n := node.(type) {
	case *Variable:
		value, rerr := in.ctx.Binding(s, n.Name)
		if rerr != nil {
			return nil, at(n, rerr)
		}
		return value, nil
	case *Subscript:
		target, err := in.place(n.Target, s)
		if err != nil {
			return nil, err
		}
		return in.subscript(n, target, s)
	}
	return in.eval(node, s)
}

func (in *Interpreter) subscript(n *Subscript, target Value, s Scope) (Value, error) {
	if r, ok := n.Index.(*Range); ok {
		arr, ok := target.(*ArrayValue)
		if !ok {
			return nil, at(n, fault(TypeMismatch, "Value of type '%s' cannot be sliced", target.Type()))
		}
		low, high, err := in.evalBounds(r, s)
		if err != nil {
			return nil, err
		}
		count := rangeCount(low, high, r.Closed, uint64(len(arr.Items)))
		if low < 0 || low > int64(len(arr.Items)) || low+int64(count) > int64(len(arr.Items)) {
			return nil, at(n, fault(IndexOutOfBounds, "Index out of range"))
		}
		return Copy(NewArray(arr.Items[low : low+int64(count)]...)), nil
	}

	index, err := in.eval(n.Index, s)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case *ArrayValue:
		i, ok := index.(IntValue)
		if !ok {
			return nil, at(n.Index, fault(TypeMismatch, "Cannot subscript a value of type 'Array' with an argument of type '%s'", index.Type()))
		}
		if i < 0 || int(i) >= len(t.Items) {
			return nil, at(n, fault(IndexOutOfBounds, "Index out of range"))
		}
		return t.Items[i], nil
	case *DictValue:
		value, ok := t.Get(index)
		if !ok {
			return Nil, nil
		}
		return value, nil
	case StringValue:
		return nil, at(n, fault(TypeMismatch, "'subscript(_:)' is unavailable: cannot subscript String with an Int"))
	}

	return nil, at(n, fault(TypeMismatch, "Value of type '%s' has no subscripts", target.Type()))
}

func (in *Interpreter) execPrint(n *Print, s Scope) error {
	separator, terminator := " ", "\n"
	parts := []string{}

	for _, arg := range n.Args {
		value, err := in.eval(arg.Value, s)
		if err != nil {
			return err
		}
		switch arg.Label {
		case "separator", "terminator":
			str, ok := value.(StringValue)
			if !ok {
				return at(arg.Value, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'String'", value.Type()))
			}
			if arg.Label == "separator" {
				separator = string(str)
			} else {
				terminator = string(str)
			}
		case "":
			parts = append(parts, value.String())
		default:
			return at(arg.Value, fault(ArityMismatch, "Extra argument '%s' in call", arg.Label))
		}
	}

	line := strings.Join(parts, separator) + terminator
	if in.ctx.Output.Len()+len(line) > maxOutput {
		return at(n, sizeLimit())
	}
	in.ctx.Output.WriteString(line)
	return nil
}

func (in *Interpreter) execSwitch(n *Switch, s Scope) (Value, signal, error) {
	subject, err := in.eval(n.Subject, s)
	if err != nil {
		return nil, sigNone, err
	}

	matched, fallback := -1, -1
	for i, c := range n.Cases {
		if c.Default {
			fallback = i
			continue
		}
		ok, err := in.matchCase(c, subject, s)
		if err != nil {
			return nil, sigNone, err
		}
		if ok {
			matched = i
			break
		}
	}
	if matched < 0 {
		matched = fallback
	}

	for i := matched; i >= 0 && i < len(n.Cases); i++ {
		child := in.ctx.Push(s)
		value, sig, err := in.execStatements(n.Cases[i].Body, child)
		in.ctx.Pop(child)
		if err != nil {
			return nil, sigNone, err
		}
		switch sig {
		case sigFallthrough:
			continue
		case sigBreak, sigNone:
			return Nil, sigNone, nil
		}
		return value, sig, nil
	}

	return Nil, sigNone, nil
}

func (in *Interpreter) matchCase(c *SwitchCase, subject Value, s Scope) (bool, error) {
	for _, pattern := range c.Patterns {
		if r, ok := pattern.(*Range); ok {
			low, high, err := in.evalBounds(r, s)
			if err != nil {
				return false, err
			}
			var below, above bool
			switch v := subject.(type) {
			case IntValue:
				below, above = int64(v) < low, int64(v) > high || !r.Closed && int64(v) == high
			case FloatValue:
				f := float64(v)
				below, above = f < float64(low), f > float64(high) || !r.Closed && f == float64(high)
			default:
				return false, at(r, fault(TypeMismatch, "Expression pattern of type 'Range' cannot match values of type '%s'", subject.Type()))
			}
			if !below && !above {
				return true, nil
			}
			continue
		}

		value, err := in.eval(pattern, s)
		if err != nil {
			return false, err
		}
		if !sameKind(subject, value) {
			return false, at(pattern, fault(TypeMismatch, "Expression pattern of type '%s' cannot match values of type '%s'", value.Type(), subject.Type()))
		}
		if subject.Eq(value) {
			return true, nil
		}
	}
	return false, nil
}

func (in *Interpreter) execFor(n *For, s Scope) (Value, signal, error) {
	var items []Value

	if r, ok := n.Iterable.(*Range); ok {
		low, high, err := in.evalBounds(r, s)
		if err != nil {
			return nil, sigNone, err
		}
		// the step budget faults before a saturated count is reached
		count := rangeCount(low, high, r.Closed, uint64(in.limits.MaxIterations))
		return in.loop(n, s, int(count), func(i int) Value { return IntValue(low + int64(i)) })
	}

	iterable, err := in.eval(n.Iterable, s)
	if err != nil {
		return nil, sigNone, err
	}

	switch it := iterable.(type) {
	case *ArrayValue:
		items = append([]Value(nil), it.Items...)
	case *DictValue:
		for _, entry := range it.Entries() {
			items = append(items, entry.Key)
		}
	case StringValue:
		for _, ch := range string(it) {
			items = append(items, StringValue(string(ch)))
		}
	default:
		return nil, sigNone, at(n.Iterable, fault(TypeMismatch, "For-in loop requires '%s' to conform to 'Sequence'", iterable.Type()))
	}

	return in.loop(n, s, len(items), func(i int) Value { return items[i] })
}

func (in *Interpreter) loop(n *For, s Scope, count int, item func(int) Value) (Value, signal, error) {
	for i := 0; i < count; i++ {
		if err := in.tick(n); err != nil {
			return nil, sigNone, err
		}

		child := in.ctx.Push(s)
		if n.Var != "_" {
			in.ctx.Define(child, n.Var, Copy(item(i)), true)
		}
		value, sig, err := in.exec(n.Body, child)
		in.ctx.Pop(child)

		if err != nil {
			return nil, sigNone, err
		}
		switch sig {
		case sigBreak:
			return Nil, sigNone, nil
		case sigReturn, sigFallthrough:
			return value, sig, nil
		}
	}
	return Nil, sigNone, nil
}

func (in *Interpreter) evalArgs(args []Arg, s Scope) ([]Value, []string, error) {
	values := make([]Value, len(args))
	labels := make([]string, len(args))
	for i, arg := range args {
		value, err := in.eval(arg.Value, s)
		if err != nil {
			return nil, nil, err
		}
		values[i] = value
		labels[i] = arg.Label
	}
	return values, labels, nil
}

func (in *Interpreter) execCall(n *Call, s Scope) (Value, error) {
	callee, ok := n.Callee.(*Variable)
	if !ok {
		return nil, at(n, fault(InvalidOperation, "Cannot call value of non-function type"))
	}

	args, labels, err := in.evalArgs(n.Args, s)
	if err != nil {
		return nil, err
	}

	if decl, declScope, ok := in.ctx.GetFunction(s, callee.Name); ok {
		return in.callFunction(n, decl, declScope, args, labels)
	}

	if builtin, ok := in.ctx.Builtins[callee.Name]; ok {
		if err := in.tick(n); err != nil {
			return nil, err
		}
		value, rerr := builtin.Fn(args, labels)
		if rerr != nil {
			return nil, at(n, rerr)
		}
		return value, nil
	}

	return nil, at(n, fault(UndefinedFunction, "Cannot find '%s' in scope", callee.Name))
}

func (in *Interpreter) callFunction(n *Call, decl *FuncDecl, declScope Scope, args []Value, labels []string) (Value, error) {
	if len(args) < len(decl.Params) {
		return nil, at(n, fault(ArityMismatch, "Missing argument for parameter '%s' in call", decl.Params[len(args)].Name))
	}
	if len(args) > len(decl.Params) {
		return nil, at(n, fault(ArityMismatch, "Extra argument in call"))
	}
	for i, param := range decl.Params {
		if labels[i] != "" && labels[i] != param.Label {
			return nil, at(n, fault(ArityMismatch, "Incorrect argument label in call (have '%s:', expected '%s:')", labels[i], param.Label))
		}
	}

	if err := in.tick(n); err != nil {
		return nil, err
	}
	if in.depth >= in.limits.MaxCallDepth {
		return nil, at(n, fault(RecursionLimit, "maximum recursion depth exceeded"))
	}

	in.depth++
	callScope := in.ctx.Push(declScope)
	for i, param := range decl.Params {
		in.ctx.Define(callScope, param.Name, Copy(args[i]), true)
	}
	value, sig, err := in.execStatements(decl.Body.Statements, callScope)
	in.ctx.Pop(callScope)
	in.depth--

	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok {
			rerr.stackTrace = append(rerr.stackTrace, stackEntry{name: decl.Name, Position: n.Pos()})
		}
		return nil, err
	}

	switch sig {
	case sigReturn:
		return value, nil
	case sigBreak, sigContinue, sigFallthrough:
		return nil, misplaced(decl, sig)
	}
	return Nil, nil
}
