package modules

import (
	"errors"
	"testing"

	"github.com/ajkachnic/debugquest/core"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	ctx := core.NewRuntime()
	Load(ctx)
	err := core.Interpret(ctx, src)
	return ctx.Output.String(), err
}

func TestMathFunctions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"print(sqrt(16.0))", "4.0\n"},
		{"print(sqrt(2))", "1.4142135623730951\n"},
		{"print(pow(2, 10))", "1024.0\n"},
		{"print(floor(2.7), ceil(2.1), round(2.5))", "2.0 3.0 3.0\n"},
		{"print(sin(0), cos(0))", "0.0 1.0\n"},
		{"print(Int(sqrt(49.0)))", "7\n"},
	}

	for _, tt := range tests {
		got, err := run(t, tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestMathArgumentFaults(t *testing.T) {
	for _, src := range []string{`print(sqrt("4"))`, "print(pow(2))", "print(floor(1, 2))"} {
		_, err := run(t, src)
		var runtimeErr *core.RuntimeError
		if !errors.As(err, &runtimeErr) {
			t.Errorf("%s: error = %v, want *core.RuntimeError", src, err)
		}
	}
}

func TestLoadRegistersModule(t *testing.T) {
	ctx := core.NewRuntime()
	if ctx.HasModule("math") {
		t.Fatal("math loaded before Load")
	}
	Load(ctx)
	if !ctx.HasModule("math") {
		t.Error("math not registered")
	}
}
