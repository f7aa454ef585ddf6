package core

import (
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

type ValueType int

const (
	NilType ValueType = iota
	BoolType
	IntType
	FloatType
	StringType
	ArrayType
	DictType
)

func (t ValueType) String() string {
	switch t {
	case NilType:
		return "nil"
	case BoolType:
		return "Bool"
	case IntType:
		return "Int"
	case FloatType:
		return "Double"
	case StringType:
		return "String"
	case ArrayType:
		return "Array"
	case DictType:
		return "Dictionary"
	}
	return "<unknown>"
}

// Value is a runtime datum. The set of implementations is closed: NilValue,
// BoolValue, IntValue, FloatValue, StringValue, *ArrayValue and *DictValue.
type Value interface {
	Type() ValueType
	// String is the text print() writes for the value.
	String() string
	Eq(v Value) bool
	value()
}

type NilValue struct{}

func (v NilValue) Type() ValueType { return NilType }
func (v NilValue) String() string  { return "nil" }
func (v NilValue) value()          {}

func (v NilValue) Eq(other Value) bool {
	_, ok := other.(NilValue)
	return ok
}

var Nil = NilValue{}

type BoolValue bool

func (v BoolValue) Type() ValueType { return BoolType }
func (v BoolValue) value()          {}

func (v BoolValue) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v BoolValue) Eq(u Value) bool {
	w, ok := u.(BoolValue)
	return ok && v == w
}

type IntValue int64

func (v IntValue) Type() ValueType { return IntType }
func (v IntValue) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v IntValue) value()          {}

func (v IntValue) Eq(u Value) bool {
	if w, ok := u.(IntValue); ok {
		return v == w
	} else if w, ok := u.(FloatValue); ok {
		return FloatValue(v) == w
	}

	return false
}

type FloatValue float64

func (v FloatValue) Type() ValueType { return FloatType }
func (v FloatValue) value()          {}

// String follows Swift's Double description: whole numbers keep a ".0".
func (v FloatValue) String() string {
	f := float64(v)
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func (v FloatValue) Eq(u Value) bool {
	if w, ok := u.(FloatValue); ok {
		return v == w
	} else if w, ok := u.(IntValue); ok {
		return v == FloatValue(w)
	}

	return false
}

type StringValue string

func (v StringValue) Type() ValueType { return StringType }
func (v StringValue) String() string  { return string(v) }
func (v StringValue) value()          {}

func (v StringValue) Eq(other Value) bool {
	w, ok := other.(StringValue)
	return ok && v == w
}

type ArrayValue struct {
	Items []Value
}

func NewArray(items ...Value) *ArrayValue {
	if items == nil {
		items = []Value{}
	}
	return &ArrayValue{Items: items}
}

func (v *ArrayValue) Type() ValueType { return ArrayType }
func (v *ArrayValue) value()          {}

func (v *ArrayValue) String() string {
	items := make([]string, len(v.Items))
	for i, item := range v.Items {
		items[i] = Repr(item)
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func (v *ArrayValue) Eq(u Value) bool {
	w, ok := u.(*ArrayValue)
	if !ok || len(v.Items) != len(w.Items) {
		return false
	}
	for i, value := range v.Items {
		if !value.Eq(w.Items[i]) {
			return false
		}
	}

	return true
}

type HashKey struct {
	kind  ValueType
	value uint64
}

// Hash returns the dictionary key for v; only Bool, Int, Double and String
// are hashable.
func Hash(v Value) (HashKey, bool) {
	switch v := v.(type) {
	case BoolValue:
		if v {
			return HashKey{BoolType, 1}, true
		}
		return HashKey{BoolType, 0}, true
	case IntValue:
		return HashKey{IntType, uint64(v)}, true
	case FloatValue:
		return HashKey{FloatType, math.Float64bits(float64(v))}, true
	case StringValue:
		hash := fnv.New64a()
		hash.Write([]byte(v))
		return HashKey{StringType, hash.Sum64()}, true
	}
	return HashKey{}, false
}

type DictEntry struct {
	Key   Value
	Value Value
}

// DictValue keeps insertion order so printing and iteration are
// deterministic.
type DictValue struct {
	order   []HashKey
	entries map[HashKey]DictEntry
}

func NewDict() *DictValue {
	return &DictValue{entries: make(map[HashKey]DictEntry)}
}

func (v *DictValue) Type() ValueType { return DictType }
func (v *DictValue) value()          {}
func (v *DictValue) Len() int        { return len(v.order) }

func (v *DictValue) Get(key Value) (Value, bool) {
	hk, ok := Hash(key)
	if !ok {
		return nil, false
	}
	entry, ok := v.entries[hk]
	return entry.Value, ok
}

// Set stores value under key, reporting false when key is not hashable.
func (v *DictValue) Set(key, value Value) bool {
	hk, ok := Hash(key)
	if !ok {
		return false
	}
	if _, exists := v.entries[hk]; !exists {
		v.order = append(v.order, hk)
	}
	v.entries[hk] = DictEntry{Key: key, Value: value}
	return true
}

// Delete removes key and returns the value it held.
func (v *DictValue) Delete(key Value) (Value, bool) {
	hk, ok := Hash(key)
	if !ok {
		return nil, false
	}
	entry, exists := v.entries[hk]
	if !exists {
		return nil, false
	}
	delete(v.entries, hk)
	for i, k := range v.order {
		if k == hk {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return entry.Value, true
}

func (v *DictValue) Entries() []DictEntry {
	entries := make([]DictEntry, len(v.order))
	for i, hk := range v.order {
		entries[i] = v.entries[hk]
	}
	return entries
}

func (v *DictValue) String() string {
	if len(v.order) == 0 {
		return "[:]"
	}
	entryStrings := make([]string, 0, len(v.order))
	for _, entry := range v.Entries() {
		entryStrings = append(entryStrings, Repr(entry.Key)+": "+Repr(entry.Value))
	}
	return "[" + strings.Join(entryStrings, ", ") + "]"
}

func (v *DictValue) Eq(u Value) bool {
	w, ok := u.(*DictValue)
	if !ok || len(v.order) != len(w.order) {
		return false
	}
	for key, entry := range v.entries {
		if wentry, ok := w.entries[key]; !ok || !entry.Value.Eq(wentry.Value) {
			return false
		}
	}

	return true
}

// Repr is the description of a value nested inside a collection, where
// strings are quoted.
func Repr(v Value) string {
	if s, ok := v.(StringValue); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// Copy gives arrays and dictionaries value semantics: every binding owns its
// own collection.
func Copy(v Value) Value {
	switch v := v.(type) {
	case *ArrayValue:
		items := make([]Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = Copy(item)
		}
		return &ArrayValue{Items: items}
	case *DictValue:
		dict := &DictValue{
			order:   append([]HashKey(nil), v.order...),
			entries: make(map[HashKey]DictEntry, len(v.entries)),
		}
		for k, entry := range v.entries {
			dict.entries[k] = DictEntry{Key: entry.Key, Value: Copy(entry.Value)}
		}
		return dict
	}
	return v
}
