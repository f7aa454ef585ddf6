package modules

import (
	"math"

	"github.com/ajkachnic/debugquest/core"
)

type _math struct {
	ctx *core.Context
}

// LoadMath registers the Foundation math functions snippets commonly call.
func LoadMath(ctx *core.Context) {
	// wrapper struct to allow access to the context
	c := &_math{ctx: ctx}

	ctx.LoadModule("math", map[string]core.BuiltinFn{
		"sqrt":  c.unary("sqrt", math.Sqrt),
		"floor": c.unary("floor", math.Floor),
		"ceil":  c.unary("ceil", math.Ceil),
		"round": c.unary("round", math.Round),
		"sin":   c.unary("sin", math.Sin),
		"cos":   c.unary("cos", math.Cos),
		"pow":   c.pow,
	})
}

// Load registers every module.
func Load(ctx *core.Context) {
	LoadMath(ctx)
}

func toDouble(fnName string, v core.Value) (float64, *core.RuntimeError) {
	switch arg := v.(type) {
	case core.IntValue:
		return float64(arg), nil
	case core.FloatValue:
		return float64(arg), nil
	}
	return 0, &core.RuntimeError{
		Kind:   core.TypeMismatch,
		Reason: "Cannot convert value of type '" + v.Type().String() + "' to expected argument type 'Double' in call to '" + fnName + "'",
	}
}

func (c *_math) unary(name string, fn func(float64) float64) core.BuiltinFn {
	return func(args []core.Value, labels []string) (core.Value, *core.RuntimeError) {
		if err := c.ctx.RequireArgLen(name, args, 1); err != nil {
			return nil, err
		}

		x, err := toDouble(name, args[0])
		if err != nil {
			return nil, err
		}
		return core.FloatValue(fn(x)), nil
	}
}

func (c *_math) pow(args []core.Value, labels []string) (core.Value, *core.RuntimeError) {
	if err := c.ctx.RequireArgLen("pow", args, 2); err != nil {
		return nil, err
	}

	x, err := toDouble("pow", args[0])
	if err != nil {
		return nil, err
	}
	y, err := toDouble("pow", args[1])
	if err != nil {
		return nil, err
	}
	return core.FloatValue(math.Pow(x, y)), nil
}
