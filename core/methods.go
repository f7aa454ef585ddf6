package core

import (
	"sort"
	"strings"
)

var mutatingMethods = map[string]bool{
	"append":      true,
	"insert":      true,
	"remove":      true,
	"removeLast":  true,
	"removeFirst": true,
	"removeAll":   true,
	"removeValue": true,
	"sort":        true,
	"reverse":     true,
}

func (in *Interpreter) execMethod(n *MethodCall, s Scope) (Value, error) {
	var receiver Value
	var err error
	if mutatingMethods[n.Name] && n.Called {
		receiver, err = in.place(n.Receiver, s)
	} else {
		receiver, err = in.eval(n.Receiver, s)
	}
	if err != nil {
		return nil, err
	}

	args, labels, err := in.evalArgs(n.Args, s)
	if err != nil {
		return nil, err
	}

	var value Value
	var rerr *RuntimeError
	switch r := receiver.(type) {
	case *ArrayValue:
		if n.Name == "append" || n.Name == "insert" {
			for _, arg := range args {
				if err := in.store(n, arg); err != nil {
					return nil, err
				}
			}
		}
		value, rerr = arrayMethod(r, n, args, labels)
	case StringValue:
		value, rerr = stringMethod(r, n, args)
	case *DictValue:
		value, rerr = dictMethod(r, n, args, labels)
	case IntValue, FloatValue, BoolValue:
		value, rerr = scalarMethod(r, n)
	default:
		rerr = noMember(receiver, n.Name)
	}

	if rerr != nil {
		return nil, at(n, rerr)
	}
	return value, nil
}

func noMember(v Value, name string) *RuntimeError {
	return fault(InvalidOperation, "Value of type '%s' has no member '%s'", v.Type(), name)
}

// member checks that a property is used without parentheses and a method
// with the expected number of arguments.
func member(n *MethodCall, args []Value, method bool, count int) *RuntimeError {
	if !method {
		if n.Called {
			return fault(InvalidOperation, "Cannot call value of non-function type")
		}
		return nil
	}
	if !n.Called {
		return fault(InvalidOperation, "Function '%s' was used as a property; add () to call it", n.Name)
	}
	if len(args) < count {
		return fault(ArityMismatch, "Missing argument for parameter #%d in call to '%s'", len(args)+1, n.Name)
	}
	if len(args) > count {
		return fault(ArityMismatch, "Extra argument in call to '%s'", n.Name)
	}
	return nil
}

func requireLabel(labels []string, i int, label string) *RuntimeError {
	if labels[i] != label {
		if label == "" {
			return fault(ArityMismatch, "Extraneous argument label '%s:' in call", labels[i])
		}
		return fault(ArityMismatch, "Missing argument label '%s:' in call", label)
	}
	return nil
}

func requireIndex(v Value, length int, inclusive bool) (int, *RuntimeError) {
	i, ok := v.(IntValue)
	if !ok {
		return 0, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'Int'", v.Type())
	}
	limit := length
	if inclusive {
		limit++
	}
	if i < 0 || int(i) >= limit {
		return 0, fault(IndexOutOfBounds, "Index out of range")
	}
	return int(i), nil
}

func firstOr(items []Value, last bool) Value {
	if len(items) == 0 {
		return Nil
	}
	if last {
		return items[len(items)-1]
	}
	return items[0]
}

// sortValues orders items ascending, faulting on elements that cannot be
// compared with each other.
func sortValues(items []Value) *RuntimeError {
	var rerr *RuntimeError
	sort.SliceStable(items, func(i, j int) bool {
		cmp, ok := compareValues(items[i], items[j])
		if !ok && rerr == nil {
			rerr = fault(TypeMismatch, "Referencing instance method 'sorted()' requires that '%s' conform to 'Comparable'", items[i].Type())
		}
		return cmp < 0
	})
	return rerr
}

func extreme(items []Value, max bool) (Value, *RuntimeError) {
	if len(items) == 0 {
		return Nil, nil
	}
	best := items[0]
	for _, item := range items[1:] {
		cmp, ok := compareValues(item, best)
		if !ok {
			return nil, fault(TypeMismatch, "Referencing instance method 'min()' requires that '%s' conform to 'Comparable'", item.Type())
		}
		if (max && cmp > 0) || (!max && cmp < 0) {
			best = item
		}
	}
	return best, nil
}

func arrayMethod(arr *ArrayValue, n *MethodCall, args []Value, labels []string) (Value, *RuntimeError) {
	switch n.Name {
	case "count":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return IntValue(len(arr.Items)), nil
	case "isEmpty":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return BoolValue(len(arr.Items) == 0), nil
	case "first", "last":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return firstOr(arr.Items, n.Name == "last"), nil
	case "append":
		if err := member(n, args, true, 1); err != nil {
			return nil, err
		}
		if labels[0] == "contentsOf" {
			other, ok := args[0].(*ArrayValue)
			if !ok {
				return nil, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'Array'", args[0].Type())
			}
			arr.Items = append(arr.Items, Copy(other).(*ArrayValue).Items...)
			return Nil, nil
		}
		if err := requireLabel(labels, 0, ""); err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, Copy(args[0]))
		return Nil, nil
	case "insert":
		if err := member(n, args, true, 2); err != nil {
			return nil, err
		}
		if err := requireLabel(labels, 1, "at"); err != nil {
			return nil, err
		}
		i, err := requireIndex(args[1], len(arr.Items), true)
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, nil)
		copy(arr.Items[i+1:], arr.Items[i:])
		arr.Items[i] = Copy(args[0])
		return Nil, nil
	case "remove":
		if err := member(n, args, true, 1); err != nil {
			return nil, err
		}
		if err := requireLabel(labels, 0, "at"); err != nil {
			return nil, err
		}
		i, err := requireIndex(args[0], len(arr.Items), false)
		if err != nil {
			return nil, err
		}
		removed := arr.Items[i]
		arr.Items = append(arr.Items[:i], arr.Items[i+1:]...)
		return removed, nil
	case "removeLast", "removeFirst":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		if len(arr.Items) == 0 {
			return nil, fault(IndexOutOfBounds, "Can't remove from an empty collection")
		}
		if n.Name == "removeLast" {
			removed := arr.Items[len(arr.Items)-1]
			arr.Items = arr.Items[:len(arr.Items)-1]
			return removed, nil
		}
		removed := arr.Items[0]
		arr.Items = arr.Items[1:]
		return removed, nil
	case "removeAll":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		arr.Items = []Value{}
		return Nil, nil
	case "contains":
		if err := member(n, args, true, 1); err != nil {
			return nil, err
		}
		for _, item := range arr.Items {
			if item.Eq(args[0]) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	case "firstIndex":
		if err := member(n, args, true, 1); err != nil {
			return nil, err
		}
		if err := requireLabel(labels, 0, "of"); err != nil {
			return nil, err
		}
		for i, item := range arr.Items {
			if item.Eq(args[0]) {
				return IntValue(i), nil
			}
		}
		return Nil, nil
	case "reversed":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		items := make([]Value, len(arr.Items))
		for i, item := range arr.Items {
			items[len(items)-1-i] = Copy(item)
		}
		return NewArray(items...), nil
	case "reverse":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		for i, j := 0, len(arr.Items)-1; i < j; i, j = i+1, j-1 {
			arr.Items[i], arr.Items[j] = arr.Items[j], arr.Items[i]
		}
		return Nil, nil
	case "sorted", "sort":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		target := arr
		if n.Name == "sorted" {
			target = Copy(arr).(*ArrayValue)
		}
		if err := sortValues(target.Items); err != nil {
			return nil, err
		}
		if n.Name == "sort" {
			return Nil, nil
		}
		return target, nil
	case "joined":
		if !n.Called {
			return nil, member(n, args, true, 0)
		}
		separator := ""
		if len(args) == 1 {
			if err := requireLabel(labels, 0, "separator"); err != nil {
				return nil, err
			}
			sep, ok := args[0].(StringValue)
			if !ok {
				return nil, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'String'", args[0].Type())
			}
			separator = string(sep)
		} else if len(args) > 1 {
			return nil, fault(ArityMismatch, "Extra argument in call to 'joined'")
		}
		parts := make([]string, len(arr.Items))
		size := 0
		for i, item := range arr.Items {
			str, ok := item.(StringValue)
			if !ok {
				return nil, fault(TypeMismatch, "Referencing instance method 'joined(separator:)' requires the types '%s' and 'String' be equivalent", item.Type())
			}
			parts[i] = string(str)
			if size += len(str) + len(separator); size > maxMaterialized {
				return nil, sizeLimit()
			}
		}
		return StringValue(strings.Join(parts, separator)), nil
	case "min", "max":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		return extreme(arr.Items, n.Name == "max")
	case "description":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return StringValue(arr.String()), nil
	}

	return nil, noMember(arr, n.Name)
}

func stringMethod(str StringValue, n *MethodCall, args []Value) (Value, *RuntimeError) {
	switch n.Name {
	case "count":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return IntValue(len([]rune(string(str)))), nil
	case "isEmpty":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return BoolValue(len(str) == 0), nil
	case "description":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return str, nil
	case "uppercased", "lowercased", "reversed":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		switch n.Name {
		case "uppercased":
			return StringValue(strings.ToUpper(string(str))), nil
		case "lowercased":
			return StringValue(strings.ToLower(string(str))), nil
		}
		runes := []rune(string(str))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return StringValue(runes), nil
	case "contains", "hasPrefix", "hasSuffix":
		if err := member(n, args, true, 1); err != nil {
			return nil, err
		}
		other, ok := args[0].(StringValue)
		if !ok {
			return nil, fault(TypeMismatch, "Cannot convert value of type '%s' to expected argument type 'String'", args[0].Type())
		}
		switch n.Name {
		case "contains":
			return BoolValue(strings.Contains(string(str), string(other))), nil
		case "hasPrefix":
			return BoolValue(strings.HasPrefix(string(str), string(other))), nil
		}
		return BoolValue(strings.HasSuffix(string(str), string(other))), nil
	}

	return nil, noMember(str, n.Name)
}

func dictMethod(dict *DictValue, n *MethodCall, args []Value, labels []string) (Value, *RuntimeError) {
	switch n.Name {
	case "count":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return IntValue(dict.Len()), nil
	case "isEmpty":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return BoolValue(dict.Len() == 0), nil
	case "keys", "values":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		items := []Value{}
		for _, entry := range dict.Entries() {
			if n.Name == "keys" {
				items = append(items, entry.Key)
			} else {
				items = append(items, Copy(entry.Value))
			}
		}
		return NewArray(items...), nil
	case "removeValue":
		if err := member(n, args, true, 1); err != nil {
			return nil, err
		}
		if err := requireLabel(labels, 0, "forKey"); err != nil {
			return nil, err
		}
		removed, ok := dict.Delete(args[0])
		if !ok {
			return Nil, nil
		}
		return removed, nil
	case "removeAll":
		if err := member(n, args, true, 0); err != nil {
			return nil, err
		}
		for _, entry := range dict.Entries() {
			dict.Delete(entry.Key)
		}
		return Nil, nil
	case "description":
		if err := member(n, args, false, 0); err != nil {
			return nil, err
		}
		return StringValue(dict.String()), nil
	}

	return nil, noMember(dict, n.Name)
}

func scalarMethod(v Value, n *MethodCall) (Value, *RuntimeError) {
	switch n.Name {
	case "description":
		if err := member(n, nil, false, 0); err != nil {
			return nil, err
		}
		return StringValue(v.String()), nil
	case "magnitude":
		if i, ok := v.(IntValue); ok && !n.Called {
			if i < 0 {
				return -i, nil
			}
			return i, nil
		}
	}

	return nil, noMember(v, n.Name)
}
