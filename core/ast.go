package core

import (
	"fmt"
	"strings"
)

type NodeKind int

const (
	BlockNode NodeKind = iota
	VarDeclNode
	AssignmentNode
	PrintNode
	IfNode
	SwitchNode
	WhileNode
	ForNode
	BinaryOpNode
	UnaryNode
	TernaryNode
	RangeNode
	LiteralNode
	InterpolationNode
	VariableNode
	FuncDeclNode
	CallNode
	ReturnNode
	BreakNode
	ContinueNode
	FallthroughNode
	ExprStmtNode
	ArrayNode
	DictionaryNode
	SubscriptNode
	MethodCallNode
	UnwrapNode
)

var nodeKindNames = [...]string{
	BlockNode:         "Block",
	VarDeclNode:       "VariableDecl",
	AssignmentNode:    "Assignment",
	PrintNode:         "Print",
	IfNode:            "If",
	SwitchNode:        "Switch",
	WhileNode:         "While",
	ForNode:           "For",
	BinaryOpNode:      "BinaryOp",
	UnaryNode:         "Unary",
	TernaryNode:       "Ternary",
	RangeNode:         "Range",
	LiteralNode:       "Literal",
	InterpolationNode: "Interpolation",
	VariableNode:      "Variable",
	FuncDeclNode:      "FuncDecl",
	CallNode:          "Call",
	ReturnNode:        "Return",
	BreakNode:         "Break",
	ContinueNode:      "Continue",
	FallthroughNode:   "Fallthrough",
	ExprStmtNode:      "ExprStmt",
	ArrayNode:         "Array",
	DictionaryNode:    "Dictionary",
	SubscriptNode:     "Subscript",
	MethodCallNode:    "MethodCall",
	UnwrapNode:        "Unwrap",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is implemented only by the node types in this file; the executor
// switches over them exhaustively.
type Node interface {
	Kind() NodeKind
	Pos() Position
	String() string
	node()
}

type span struct {
	at Position
}

func (s span) Pos() Position { return s.at }
func (span) node()           {}

// Arg is a call argument with its optional Swift label (`f(n: 5)`).
type Arg struct {
	Label string
	Value Node
}

func (a Arg) String() string {
	if a.Label != "" {
		return a.Label + ": " + a.Value.String()
	}
	return a.Value.String()
}

func joinArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, ", ")
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

type Block struct {
	span
	Statements []Node
}

func (n *Block) Kind() NodeKind { return BlockNode }
func (n *Block) String() string {
	if len(n.Statements) == 0 {
		return "{ }"
	}
	return "{ " + joinNodes(n.Statements, "; ") + " }"
}

type VarDecl struct {
	span
	Name     string
	Constant bool
	Type     string
	Value    Node // nil when only a type annotation is given
}

func (n *VarDecl) Kind() NodeKind { return VarDeclNode }
func (n *VarDecl) String() string {
	keyword := "var"
	if n.Constant {
		keyword = "let"
	}
	out := keyword + " " + n.Name
	if n.Type != "" {
		out += ": " + n.Type
	}
	if n.Value != nil {
		out += " = " + n.Value.String()
	}
	return out
}

// Assignment targets a Variable or a Subscript. Op is SET or one of the
// compound assignment kinds.
type Assignment struct {
	span
	Target Node
	Op     TokenKind
	Value  Node
}

func (n *Assignment) Kind() NodeKind { return AssignmentNode }
func (n *Assignment) String() string {
	return fmt.Sprintf("%s %s %s", n.Target, n.Op, n.Value)
}

type Print struct {
	span
	Args []Arg
}

func (n *Print) Kind() NodeKind { return PrintNode }
func (n *Print) String() string { return "print(" + joinArgs(n.Args) + ")" }

type If struct {
	span
	Cond Node
	Then *Block
	Else Node // nil, *Block or *If
}

func (n *If) Kind() NodeKind { return IfNode }
func (n *If) String() string {
	if n.Else == nil {
		return fmt.Sprintf("if %s %s", n.Cond, n.Then)
	}
	return fmt.Sprintf("if %s %s else %s", n.Cond, n.Then, n.Else)
}

type SwitchCase struct {
	At       Position
	Patterns []Node // empty for default
	Default  bool
	Body     []Node
}

func (c *SwitchCase) String() string {
	if c.Default {
		return "default: " + joinNodes(c.Body, "; ")
	}
	return "case " + joinNodes(c.Patterns, ", ") + ": " + joinNodes(c.Body, "; ")
}

type Switch struct {
	span
	Subject Node
	Cases   []*SwitchCase
}

func (n *Switch) Kind() NodeKind { return SwitchNode }
func (n *Switch) String() string {
	cases := make([]string, len(n.Cases))
	for i, c := range n.Cases {
		cases[i] = c.String()
	}
	return fmt.Sprintf("switch %s { %s }", n.Subject, strings.Join(cases, " "))
}

type While struct {
	span
	Cond Node
	Body *Block
}

func (n *While) Kind() NodeKind { return WhileNode }
func (n *While) String() string { return fmt.Sprintf("while %s %s", n.Cond, n.Body) }

type For struct {
	span
	Var      string // "_" discards the element
	Iterable Node
	Body     *Block
}

func (n *For) Kind() NodeKind { return ForNode }
func (n *For) String() string {
	return fmt.Sprintf("for %s in %s %s", n.Var, n.Iterable, n.Body)
}

type BinaryOp struct {
	span
	Op    TokenKind
	Left  Node
	Right Node
}

func (n *BinaryOp) Kind() NodeKind { return BinaryOpNode }
func (n *BinaryOp) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

type Unary struct {
	span
	Op      TokenKind
	Operand Node
}

func (n *Unary) Kind() NodeKind { return UnaryNode }
func (n *Unary) String() string { return n.Op.String() + n.Operand.String() }

type Ternary struct {
	span
	Cond Node
	Then Node
	Else Node
}

func (n *Ternary) Kind() NodeKind { return TernaryNode }
func (n *Ternary) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond, n.Then, n.Else)
}

type Range struct {
	span
	Low    Node
	High   Node
	Closed bool
}

func (n *Range) Kind() NodeKind { return RangeNode }
func (n *Range) String() string {
	op := "..<"
	if n.Closed {
		op = "..."
	}
	return n.Low.String() + op + n.High.String()
}

type Literal struct {
	span
	Value Value
}

func (n *Literal) Kind() NodeKind { return LiteralNode }
func (n *Literal) String() string { return Repr(n.Value) }

// Interpolation is a string literal with embedded `\(expr)` segments.
type Interpolation struct {
	span
	Parts []Node
}

func (n *Interpolation) Kind() NodeKind { return InterpolationNode }
func (n *Interpolation) String() string {
	builder := strings.Builder{}
	builder.WriteByte('"')
	for _, part := range n.Parts {
		if lit, ok := part.(*Literal); ok {
			if s, ok := lit.Value.(StringValue); ok {
				builder.WriteString(string(s))
				continue
			}
		}
		builder.WriteString(`\(` + part.String() + ")")
	}
	builder.WriteByte('"')
	return builder.String()
}

type Variable struct {
	span
	Name string
}

func (n *Variable) Kind() NodeKind { return VariableNode }
func (n *Variable) String() string { return n.Name }

type Param struct {
	Label string // external label; "_" when omitted at call sites
	Name  string
	Type  string
}

type FuncDecl struct {
	span
	Name       string
	Params     []Param
	ReturnType string
	Body       *Block
}

func (n *FuncDecl) Kind() NodeKind { return FuncDeclNode }
func (n *FuncDecl) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Name
		if p.Label != p.Name {
			params[i] = p.Label + " " + p.Name
		}
		if p.Type != "" {
			params[i] += ": " + p.Type
		}
	}
	out := "func " + n.Name + "(" + strings.Join(params, ", ") + ")"
	if n.ReturnType != "" {
		out += " -> " + n.ReturnType
	}
	return out + " " + n.Body.String()
}

type Call struct {
	span
	Callee Node
	Args   []Arg
}

func (n *Call) Kind() NodeKind { return CallNode }
func (n *Call) String() string { return n.Callee.String() + "(" + joinArgs(n.Args) + ")" }

type Return struct {
	span
	Value Node // nil for a bare return
}

func (n *Return) Kind() NodeKind { return ReturnNode }
func (n *Return) String() string {
	if n.Value == nil {
		return "return"
	}
	return "return " + n.Value.String()
}

type Break struct{ span }

func (n *Break) Kind() NodeKind { return BreakNode }
func (n *Break) String() string { return "break" }

type Continue struct{ span }

func (n *Continue) Kind() NodeKind { return ContinueNode }
func (n *Continue) String() string { return "continue" }

type Fallthrough struct{ span }

func (n *Fallthrough) Kind() NodeKind { return FallthroughNode }
func (n *Fallthrough) String() string { return "fallthrough" }

type ExprStmt struct {
	span
	Expr Node
}

func (n *ExprStmt) Kind() NodeKind { return ExprStmtNode }
func (n *ExprStmt) String() string { return n.Expr.String() }

type Array struct {
	span
	Elements []Node
}

func (n *Array) Kind() NodeKind { return ArrayNode }
func (n *Array) String() string { return "[" + joinNodes(n.Elements, ", ") + "]" }

type Dictionary struct {
	span
	Keys   []Node
	Values []Node
}

func (n *Dictionary) Kind() NodeKind { return DictionaryNode }
func (n *Dictionary) String() string {
	if len(n.Keys) == 0 {
		return "[:]"
	}
	entries := make([]string, len(n.Keys))
	for i := range n.Keys {
		entries[i] = n.Keys[i].String() + ": " + n.Values[i].String()
	}
	return "[" + strings.Join(entries, ", ") + "]"
}

type Subscript struct {
	span
	Target Node
	Index  Node
}

func (n *Subscript) Kind() NodeKind { return SubscriptNode }
func (n *Subscript) String() string { return n.Target.String() + "[" + n.Index.String() + "]" }

// MethodCall is `receiver.name` or `receiver.name(args)`; Called records
// whether an argument list was present.
type MethodCall struct {
	span
	Receiver Node
	Name     string
	Args     []Arg
	Called   bool
}

func (n *MethodCall) Kind() NodeKind { return MethodCallNode }
func (n *MethodCall) String() string {
	if !n.Called {
		return n.Receiver.String() + "." + n.Name
	}
	return n.Receiver.String() + "." + n.Name + "(" + joinArgs(n.Args) + ")"
}

type Unwrap struct {
	span
	Operand Node
}

func (n *Unwrap) Kind() NodeKind { return UnwrapNode }
func (n *Unwrap) String() string { return n.Operand.String() + "!" }

// Walk calls fn for node and every node below it in source order. Returning
// false from fn skips the node's children.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	walkArgs := func(args []Arg) {
		for _, arg := range args {
			Walk(arg.Value, fn)
		}
	}

	switch n := node.(type) {
	case *Block:
		for _, stmt := range n.Statements {
			Walk(stmt, fn)
		}
	case *VarDecl:
		Walk(n.Value, fn)
	case *Assignment:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *Print:
		walkArgs(n.Args)
	case *If:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Switch:
		Walk(n.Subject, fn)
		for _, c := range n.Cases {
			for _, p := range c.Patterns {
				Walk(p, fn)
			}
			for _, stmt := range c.Body {
				Walk(stmt, fn)
			}
		}
	case *While:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)
	case *For:
		Walk(n.Iterable, fn)
		Walk(n.Body, fn)
	case *BinaryOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Unary:
		Walk(n.Operand, fn)
	case *Ternary:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Range:
		Walk(n.Low, fn)
		Walk(n.High, fn)
	case *Interpolation:
		for _, part := range n.Parts {
			Walk(part, fn)
		}
	case *FuncDecl:
		Walk(n.Body, fn)
	case *Call:
		Walk(n.Callee, fn)
		walkArgs(n.Args)
	case *Return:
		Walk(n.Value, fn)
	case *ExprStmt:
		Walk(n.Expr, fn)
	case *Array:
		for _, el := range n.Elements {
			Walk(el, fn)
		}
	case *Dictionary:
		for i := range n.Keys {
			Walk(n.Keys[i], fn)
			Walk(n.Values[i], fn)
		}
	case *Subscript:
		Walk(n.Target, fn)
		Walk(n.Index, fn)
	case *MethodCall:
		Walk(n.Receiver, fn)
		walkArgs(n.Args)
	case *Unwrap:
		Walk(n.Operand, fn)
	case *Literal, *Variable, *Break, *Continue, *Fallthrough:
	}
}
