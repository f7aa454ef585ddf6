package core

import (
	"math"
	"strconv"
	"strings"
)

const (
	// largest string or collection a single operation may build
	maxMaterialized = 1 << 20
	// total weight a run may append or store into collections
	maxStored = 1 << 22
	maxOutput = 1 << 24
)

func sizeLimit() *RuntimeError {
	return fault(IterationLimit, "iteration limit exceeded")
}

// weight approximates the storage behind v: one unit per value plus the
// bytes of every string. Counting stops once limit is passed.
func weight(v Value, limit int) int {
	switch v := v.(type) {
	case StringValue:
		return 1 + len(v)
	case *ArrayValue:
		total := 1
		for _, item := range v.Items {
			if total += weight(item, limit-total); total > limit {
				break
			}
		}
		return total
	case *DictValue:
		total := 1
		for _, entry := range v.Entries() {
			if total += weight(entry.Key, limit-total) + weight(entry.Value, limit-total); total > limit {
				break
			}
		}
		return total
	}
	return 1
}

type builtins struct {
	ctx *Context
}

// LoadBuiltins registers the global functions every program can call.
func LoadBuiltins(ctx *Context) {
	b := &builtins{ctx: ctx}

	ctx.LoadFunc("readLine", b.readLine)
	ctx.LoadFunc("Int", b.toInt)
	ctx.LoadFunc("Double", b.toDouble)
	ctx.LoadFunc("String", b.toString)
	ctx.LoadFunc("Bool", b.toBool)
	ctx.LoadFunc("abs", b.abs)
	ctx.LoadFunc("min", b.min)
	ctx.LoadFunc("max", b.max)
	ctx.LoadFunc("stride", b.stride)
	ctx.LoadFunc("Array", b.array)
}

func argTypeError(fnName string, v Value) *RuntimeError {
	return fault(TypeMismatch, "No exact matches in call to initializer '%s' for argument of type '%s'", fnName, v.Type())
}

// labelled pairs call arguments with the labels a builtin expects, faulting on
// any mismatch.
func labelled(fnName string, args []Value, labels []string, want ...string) *RuntimeError {
	if len(args) != len(want) {
		if len(args) < len(want) {
			return fault(ArityMismatch, "Missing argument for parameter '%s' in call to '%s'", want[len(args)], fnName)
		}
		return fault(ArityMismatch, "Extra argument in call to '%s'", fnName)
	}
	for i, label := range want {
		if labels[i] != label {
			return fault(ArityMismatch, "Incorrect argument label in call to '%s' (have '%s:', expected '%s:')", fnName, labels[i], label)
		}
	}
	return nil
}

func (b *builtins) readLine(args []Value, labels []string) (Value, *RuntimeError) {
	if err := b.ctx.RequireArgLen("readLine", args, 0); err != nil {
		return nil, err
	}
	if len(b.ctx.Input) == 0 {
		return Nil, nil
	}
	line := b.ctx.Input[0]
	b.ctx.Input = b.ctx.Input[1:]
	return StringValue(line), nil
}

// toInt converts like Swift's failable Int(_:) initializer: unparsable
// strings give nil, doubles truncate toward zero.
func (b *builtins) toInt(args []Value, labels []string) (Value, *RuntimeError) {
	if err := b.ctx.RequireArgLen("Int", args, 1); err != nil {
		return nil, err
	}

	switch arg := args[0].(type) {
	case IntValue:
		return arg, nil
	case FloatValue:
		f := float64(arg)
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, fault(InvalidOperation, "Double value cannot be converted to Int because it is either infinite or NaN")
		}
		return IntValue(int64(f)), nil
	case StringValue:
		i, err := strconv.ParseInt(strings.TrimPrefix(string(arg), "+"), 10, 64)
		if err != nil {
			return Nil, nil
		}
		return IntValue(i), nil
	case BoolValue:
		if arg {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	}
	return nil, argTypeError("Int", args[0])
}

func (b *builtins) toDouble(args []Value, labels []string) (Value, *RuntimeError) {
	if err := b.ctx.RequireArgLen("Double", args, 1); err != nil {
		return nil, err
	}

	switch arg := args[0].(type) {
	case IntValue:
		return FloatValue(arg), nil
	case FloatValue:
		return arg, nil
	case StringValue:
		f, err := strconv.ParseFloat(string(arg), 64)
		if err != nil {
			return Nil, nil
		}
		return FloatValue(f), nil
	}
	return nil, argTypeError("Double", args[0])
}

func (b *builtins) toString(args []Value, labels []string) (Value, *RuntimeError) {
	if len(labels) == 2 && labels[0] == "repeating" {
		if err := labelled("String", args, labels, "repeating", "count"); err != nil {
			return nil, err
		}
		str, ok := args[0].(StringValue)
		if !ok {
			return nil, argTypeError("String", args[0])
		}
		count, ok := args[1].(IntValue)
		if !ok || count < 0 {
			return nil, fault(InvalidOperation, "Negative count not allowed")
		}
		if len(str) > 0 && int64(count) > int64(maxMaterialized/len(str)) {
			return nil, sizeLimit()
		}
		return StringValue(strings.Repeat(string(str), int(count))), nil
	}

	if err := b.ctx.RequireArgLen("String", args, 1); err != nil {
		return nil, err
	}
	return StringValue(args[0].String()), nil
}

func (b *builtins) toBool(args []Value, labels []string) (Value, *RuntimeError) {
	if err := b.ctx.RequireArgLen("Bool", args, 1); err != nil {
		return nil, err
	}

	switch arg := args[0].(type) {
	case BoolValue:
		return arg, nil
	case StringValue:
		switch arg {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return Nil, nil
	}
	return nil, argTypeError("Bool", args[0])
}

func (b *builtins) abs(args []Value, labels []string) (Value, *RuntimeError) {
	if err := b.ctx.RequireArgLen("abs", args, 1); err != nil {
		return nil, err
	}

	switch arg := args[0].(type) {
	case IntValue:
		if arg == math.MinInt64 {
			return nil, fault(InvalidOperation, "Arithmetic overflow")
		}
		if arg < 0 {
			return -arg, nil
		}
		return arg, nil
	case FloatValue:
		return FloatValue(math.Abs(float64(arg))), nil
	}
	return nil, fault(TypeMismatch, "Global function 'abs' requires that '%s' conform to 'Comparable'", args[0].Type())
}

func (b *builtins) extreme(fnName string, args []Value, max bool) (Value, *RuntimeError) {
	if len(args) < 2 {
		return nil, fault(ArityMismatch, "Missing argument for parameter #%d in call to '%s'", len(args)+1, fnName)
	}

	best := args[0]
	for _, arg := range args[1:] {
		cmp, ok := compareValues(arg, best)
		if !ok {
			return nil, fault(TypeMismatch, "Global function '%s' requires that '%s' conform to 'Comparable'", fnName, arg.Type())
		}
		if (max && cmp > 0) || (!max && cmp < 0) {
			best = arg
		}
	}
	return best, nil
}

func (b *builtins) min(args []Value, labels []string) (Value, *RuntimeError) {
	return b.extreme("min", args, false)
}

func (b *builtins) max(args []Value, labels []string) (Value, *RuntimeError) {
	return b.extreme("max", args, true)
}

// stride materializes stride(from:to:by:) and stride(from:through:by:) as an
// array.
func (b *builtins) stride(args []Value, labels []string) (Value, *RuntimeError) {
	through := len(labels) > 1 && labels[1] == "through"
	want := []string{"from", "to", "by"}
	if through {
		want[1] = "through"
	}
	if err := labelled("stride", args, labels, want...); err != nil {
		return nil, err
	}

	for _, arg := range args {
		if !isNumeric(arg) {
			return nil, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'Int'", arg.Type())
		}
	}
	if toFloat(args[2]) == 0 {
		return nil, fault(InvalidOperation, "Stride size must not be zero")
	}

	from, to, by := args[0], args[1], args[2]
	_, intFrom := from.(IntValue)
	_, intTo := to.(IntValue)
	_, intBy := by.(IntValue)

	items := []Value{}
	if intFrom && intTo && intBy {
		f, t, s := int64(from.(IntValue)), int64(to.(IntValue)), int64(by.(IntValue))
		for i := f; (s > 0 && (i < t || through && i == t)) || (s < 0 && (i > t || through && i == t)); i += s {
			items = append(items, IntValue(i))
			if len(items) > maxMaterialized {
				return nil, sizeLimit()
			}
		}
		return NewArray(items...), nil
	}

	f, t, s := toFloat(from), toFloat(to), toFloat(by)
	for i := 0; ; i++ {
		x := f + float64(i)*s
		if (s > 0 && (x > t || !through && x == t)) || (s < 0 && (x < t || !through && x == t)) {
			break
		}
		items = append(items, FloatValue(x))
		if len(items) > maxMaterialized {
			return nil, sizeLimit()
		}
	}
	return NewArray(items...), nil
}

// array implements Array(repeating:count:).
func (b *builtins) array(args []Value, labels []string) (Value, *RuntimeError) {
	if len(args) == 0 {
		return NewArray(), nil
	}
	if len(args) == 1 && labels[0] == "" {
		switch arg := args[0].(type) {
		case *ArrayValue:
			return Copy(arg), nil
		case StringValue:
			items := []Value{}
			for _, ch := range string(arg) {
				items = append(items, StringValue(string(ch)))
			}
			return NewArray(items...), nil
		}
		return nil, argTypeError("Array", args[0])
	}

	if err := labelled("Array", args, labels, "repeating", "count"); err != nil {
		return nil, err
	}
	count, ok := args[1].(IntValue)
	if !ok || count < 0 {
		return nil, fault(InvalidOperation, "Can't construct Array with count < 0")
	}
	if int64(count) > int64(maxMaterialized/weight(args[0], maxMaterialized)) {
		return nil, sizeLimit()
	}
	items := make([]Value, count)
	for i := range items {
		items[i] = Copy(args[0])
	}
	return NewArray(items...), nil
}
