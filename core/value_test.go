package core

import "testing"

func TestFloatDescription(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{-0.5, "-0.5"},
		{2.25, "2.25"},
		{0, "0.0"},
		{1e20, "1e+20"},
		{0.00001, "1e-05"},
	}

	for _, tt := range tests {
		if got := FloatValue(tt.in).String(); got != tt.want {
			t.Errorf("FloatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	inner := NewArray(IntValue(1))
	outer := NewArray(inner)
	dict := NewDict()
	dict.Set(StringValue("k"), outer)

	copied := Copy(dict).(*DictValue)
	value, _ := copied.Get(StringValue("k"))
	value.(*ArrayValue).Items[0].(*ArrayValue).Items[0] = IntValue(9)

	if inner.Items[0] != IntValue(1) {
		t.Errorf("copy shares nested storage: %s", dict)
	}
	if !Copy(outer).Eq(outer) {
		t.Error("copy is not equal to the original")
	}
}

func TestDictKeepsInsertionOrder(t *testing.T) {
	dict := NewDict()
	for _, key := range []string{"z", "a", "m"} {
		dict.Set(StringValue(key), IntValue(len(key)))
	}
	dict.Delete(StringValue("a"))
	dict.Set(StringValue("a"), IntValue(2))

	if got, want := dict.String(), `["z": 1, "m": 1, "a": 2]`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if ok := dict.Set(NewArray(), IntValue(1)); ok {
		t.Error("array accepted as dictionary key")
	}
}

func TestNumericEquality(t *testing.T) {
	if !IntValue(2).Eq(FloatValue(2)) || !FloatValue(2).Eq(IntValue(2)) {
		t.Error("2 != 2.0")
	}
	if StringValue("1").Eq(IntValue(1)) {
		t.Error(`"1" == 1`)
	}
	if !Nil.Eq(Nil) || Nil.Eq(BoolValue(false)) {
		t.Error("nil equality")
	}
}
