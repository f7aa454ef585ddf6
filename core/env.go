package core

import (
	"fmt"
	"strings"
)

type FaultKind int

const (
	InvalidOperation FaultKind = iota
	UndefinedVariable
	UndefinedFunction
	TypeMismatch
	IndexOutOfBounds
	DivisionByZero
	ArityMismatch
	IterationLimit
	RecursionLimit
	ConstantAssignment
	NilUnwrap
)

func (k FaultKind) String() string {
	switch k {
	case UndefinedVariable:
		return "undefined variable"
	case UndefinedFunction:
		return "undefined function"
	case TypeMismatch:
		return "type mismatch"
	case IndexOutOfBounds:
		return "index out of bounds"
	case DivisionByZero:
		return "division by zero"
	case ArityMismatch:
		return "arity mismatch"
	case IterationLimit:
		return "iteration limit"
	case RecursionLimit:
		return "recursion limit"
	case ConstantAssignment:
		return "constant assignment"
	case NilUnwrap:
		return "nil unwrap"
	}
	return "invalid operation"
}

type stackEntry struct {
	name string
	Position
}

func (e stackEntry) String() string {
	return fmt.Sprintf("  in func %s %s", e.name, e.Position)
}

type RuntimeError struct {
	Kind   FaultKind
	Reason string
	Pos    Position

	stackTrace []stackEntry
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("Runtime error %s: %s", e.Pos, e.Reason)
	if len(e.stackTrace) == 0 {
		return msg
	}
	trace := make([]string, len(e.stackTrace))
	for i, entry := range e.stackTrace {
		trace[i] = entry.String()
	}
	return msg + "\n" + strings.Join(trace, "\n")
}

func fault(kind FaultKind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// AssignPolicy decides what assigning to an undeclared name does.
type AssignPolicy int

const (
	// AssignOrDeclare implicitly declares the name in the current scope.
	AssignOrDeclare AssignPolicy = iota
	// AssignStrict faults with UndefinedVariable.
	AssignStrict
)

// Scope is a handle into the Context's scope arena.
type Scope int

const NoScope Scope = -1

type binding struct {
	value    Value
	constant bool
}

type scope struct {
	parent Scope
	vars   map[string]*binding
	funcs  map[string]*FuncDecl
}

type BuiltinFn func(args []Value, labels []string) (Value, *RuntimeError)

type BuiltinFnValue struct {
	Name string
	Fn   BuiltinFn
}

type module struct {
	name  string
	items []string
}

// Context is the runtime state of one program run: the scope arena, the
// builtin functions, the queued input lines and the captured output.
type Context struct {
	Builtins map[string]BuiltinFnValue
	Modules  []module
	Assign   AssignPolicy

	// Input holds the lines readLine() hands out, front first.
	Input  []string
	Output strings.Builder

	scopes []scope
}

func NewContext() *Context {
	c := &Context{
		Builtins: make(map[string]BuiltinFnValue),
		Modules:  []module{},
	}
	c.Push(NoScope)
	return c
}

// Global is the outermost scope, created with the Context.
func (c *Context) Global() Scope {
	return 0
}

// Push allocates a scope whose parent is parent. Scopes are released in LIFO
// order with Pop.
func (c *Context) Push(parent Scope) Scope {
	c.scopes = append(c.scopes, scope{parent: parent})
	return Scope(len(c.scopes) - 1)
}

// Pop releases s and every scope allocated after it.
func (c *Context) Pop(s Scope) {
	for i := int(s); i < len(c.scopes); i++ {
		c.scopes[i] = scope{}
	}
	c.scopes = c.scopes[:s]
}

// Depth is the number of live scopes.
func (c *Context) Depth() int {
	return len(c.scopes)
}

func (c *Context) lookup(s Scope, name string) *binding {
	for s != NoScope {
		sc := &c.scopes[s]
		if b, ok := sc.vars[name]; ok {
			return b
		}
		s = sc.parent
	}
	return nil
}

func (c *Context) Get(s Scope, name string) (Value, *RuntimeError) {
	if b := c.lookup(s, name); b != nil {
		return b.value, nil
	}
	return nil, fault(UndefinedVariable, "Cannot find '%s' in scope", name)
}

// Define binds name in s, shadowing any outer binding.
func (c *Context) Define(s Scope, name string, value Value, constant bool) {
	sc := &c.scopes[s]
	if sc.vars == nil {
		sc.vars = make(map[string]*binding)
	}
	sc.vars[name] = &binding{value: value, constant: constant}
}

// Set assigns to the nearest existing binding of name. When there is none the
// Context's AssignPolicy decides between declaring it in s and faulting.
func (c *Context) Set(s Scope, name string, value Value) *RuntimeError {
	b := c.lookup(s, name)
	if b == nil {
		if c.Assign == AssignStrict {
			return fault(UndefinedVariable, "Cannot find '%s' in scope", name)
		}
		c.Define(s, name, value, false)
		return nil
	}
	if b.constant {
		return fault(ConstantAssignment, "Cannot assign to value: '%s' is a 'let' constant", name)
	}
	b.value = value
	return nil
}

// Binding returns the value stored for name so collection mutations can be
// applied in place, checking that the binding is mutable.
func (c *Context) Binding(s Scope, name string) (Value, *RuntimeError) {
	b := c.lookup(s, name)
	if b == nil {
		return nil, fault(UndefinedVariable, "Cannot find '%s' in scope", name)
	}
	if b.constant {
		return nil, fault(ConstantAssignment, "Cannot use mutating member on immutable value: '%s' is a 'let' constant", name)
	}
	return b.value, nil
}

func (c *Context) DefineFunction(s Scope, decl *FuncDecl) {
	sc := &c.scopes[s]
	if sc.funcs == nil {
		sc.funcs = make(map[string]*FuncDecl)
	}
	sc.funcs[decl.Name] = decl
}

// GetFunction finds the nearest declaration of name and the scope it was
// declared in.
func (c *Context) GetFunction(s Scope, name string) (*FuncDecl, Scope, bool) {
	for s != NoScope {
		sc := &c.scopes[s]
		if decl, ok := sc.funcs[name]; ok {
			return decl, s, true
		}
		s = sc.parent
	}
	return nil, NoScope, false
}

func (c *Context) RequireArgLen(fnName string, args []Value, count int) *RuntimeError {
	if len(args) < count {
		return fault(ArityMismatch, "Missing argument for parameter #%d in call to '%s'", len(args)+1, fnName)
	}
	if len(args) > count {
		return fault(ArityMismatch, "Extra argument in call to '%s'", fnName)
	}

	return nil
}

func (c *Context) LoadFunc(name string, fn BuiltinFn) {
	c.Builtins[name] = BuiltinFnValue{
		Name: name,
		Fn:   fn,
	}
}

func (c *Context) LoadModule(name string, items map[string]BuiltinFn) {
	m := module{name: name}
	for fnName, fn := range items {
		c.LoadFunc(fnName, fn)
		m.items = append(m.items, fnName)
	}
	c.Modules = append(c.Modules, m)
}

// HasModule reports whether a module with the given name was loaded.
func (c *Context) HasModule(name string) bool {
	for _, m := range c.Modules {
		if m.name == name {
			return true
		}
	}
	return false
}

// QueueInput splits text into lines for readLine().
func (c *Context) QueueInput(lines ...string) {
	c.Input = append(c.Input, lines...)
}
