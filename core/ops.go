package core

import (
	"math"
	"strings"
)

func isNumeric(v Value) bool {
	switch v.(type) {
	case IntValue, FloatValue:
		return true
	}
	return false
}

func toFloat(v Value) float64 {
	switch v := v.(type) {
	case IntValue:
		return float64(v)
	case FloatValue:
		return float64(v)
	}
	return math.NaN()
}

// sameKind treats Int and Double as one numeric kind and lets nil be
// compared with anything (optionals).
func sameKind(a, b Value) bool {
	if isNumeric(a) && isNumeric(b) {
		return true
	}
	if a.Type() == NilType || b.Type() == NilType {
		return true
	}
	return a.Type() == b.Type()
}

func operandMismatch(op TokenKind, l, r Value) *RuntimeError {
	return fault(TypeMismatch, "Binary operator '%s' cannot be applied to operands of type '%s' and '%s'", op, l.Type(), r.Type())
}

// compareValues orders numbers and strings; ok is false for other kinds.
func compareValues(a, b Value) (int, bool) {
	if isNumeric(a) && isNumeric(b) {
		if ai, ok := a.(IntValue); ok {
			if bi, ok := b.(IntValue); ok {
				switch {
				case ai < bi:
					return -1, true
				case ai > bi:
					return 1, true
				}
				return 0, true
			}
		}
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	as, aok := a.(StringValue)
	bs, bok := b.(StringValue)
	if aok && bok {
		return strings.Compare(string(as), string(bs)), true
	}
	return 0, false
}

func binaryOp(op TokenKind, l, r Value) (Value, *RuntimeError) {
	switch op {
	case EQ, NEQ:
		if !sameKind(l, r) {
			return nil, operandMismatch(op, l, r)
		}
		eq := l.Eq(r)
		if op == NEQ {
			eq = !eq
		}
		return BoolValue(eq), nil
	case LESS, GREATER, LEQ, GEQ:
		cmp, ok := compareValues(l, r)
		if !ok {
			return nil, operandMismatch(op, l, r)
		}
		switch op {
		case LESS:
			return BoolValue(cmp < 0), nil
		case GREATER:
			return BoolValue(cmp > 0), nil
		case LEQ:
			return BoolValue(cmp <= 0), nil
		}
		return BoolValue(cmp >= 0), nil
	case PLUS:
		switch lv := l.(type) {
		case StringValue:
			if rv, ok := r.(StringValue); ok {
				if len(lv)+len(rv) > maxMaterialized {
					return nil, sizeLimit()
				}
				return lv + rv, nil
			}
		case *ArrayValue:
			if rv, ok := r.(*ArrayValue); ok {
				if weight(lv, maxMaterialized)+weight(rv, maxMaterialized) > maxMaterialized {
					return nil, sizeLimit()
				}
				items := make([]Value, 0, len(lv.Items)+len(rv.Items))
				items = append(items, Copy(lv).(*ArrayValue).Items...)
				items = append(items, Copy(rv).(*ArrayValue).Items...)
				return NewArray(items...), nil
			}
		}
		return arithmetic(op, l, r)
	case MINUS, TIMES, DIVIDE, MODULUS:
		return arithmetic(op, l, r)
	}

	return nil, fault(InvalidOperation, "Unsupported operator '%s'", op)
}

func arithmetic(op TokenKind, l, r Value) (Value, *RuntimeError) {
	if !isNumeric(l) || !isNumeric(r) {
		return nil, operandMismatch(op, l, r)
	}

	li, lok := l.(IntValue)
	ri, rok := r.(IntValue)
	if lok && rok {
		return intArithmetic(op, int64(li), int64(ri))
	}

	if op == MODULUS {
		return nil, fault(TypeMismatch, "'%%' is unavailable: For floating point numbers use truncatingRemainder instead")
	}

	lf, rf := toFloat(l), toFloat(r)
	switch op {
	case PLUS:
		return FloatValue(lf + rf), nil
	case MINUS:
		return FloatValue(lf - rf), nil
	case TIMES:
		return FloatValue(lf * rf), nil
	}
	return FloatValue(lf / rf), nil
}

func intArithmetic(op TokenKind, a, b int64) (Value, *RuntimeError) {
	overflow := fault(InvalidOperation, "Arithmetic overflow")

	switch op {
	case PLUS:
		sum := a + b
		if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
			return nil, overflow
		}
		return IntValue(sum), nil
	case MINUS:
		diff := a - b
		if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
			return nil, overflow
		}
		return IntValue(diff), nil
	case TIMES:
		if a == 0 || b == 0 {
			return IntValue(0), nil
		}
		product := a * b
		if product/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return nil, overflow
		}
		return IntValue(product), nil
	case DIVIDE:
		if b == 0 {
			return nil, fault(DivisionByZero, "Division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow
		}
		return IntValue(a / b), nil
	case MODULUS:
		if b == 0 {
			return nil, fault(DivisionByZero, "Division by zero in remainder operation")
		}
		if b == -1 {
			return IntValue(0), nil
		}
		return IntValue(a % b), nil
	}

	return nil, fault(InvalidOperation, "Unsupported operator '%s'", op)
}

func unaryOp(op TokenKind, v Value) (Value, *RuntimeError) {
	switch op {
	case MINUS:
		switch v := v.(type) {
		case IntValue:
			if v == math.MinInt64 {
				return nil, fault(InvalidOperation, "Arithmetic overflow")
			}
			return -v, nil
		case FloatValue:
			return -v, nil
		}
	case NOT:
		if b, ok := v.(BoolValue); ok {
			return !b, nil
		}
	}

	return nil, fault(TypeMismatch, "Unary operator '%s' cannot be applied to an operand of type '%s'", op, v.Type())
}

func compoundOp(op TokenKind) TokenKind {
	switch op {
	case PLUS_SET:
		return PLUS
	case MINUS_SET:
		return MINUS
	case TIMES_SET:
		return TIMES
	case DIVIDE_SET:
		return DIVIDE
	case MODULUS_SET:
		return MODULUS
	}
	return UNKNOWN
}
