package object

import (
	"fmt"
	"math"
	"strings"
)

// Builtins returns a namespace with the standard entry points every server
// exposes by default: "math", "builtins" and "strings".
func Builtins() *Namespace {
	ns := NewNamespace()
	ns.Register("math", MathModule())
	ns.Register("builtins", BuiltinsModule())
	ns.Register("strings", StringsModule())
	return ns
}

// MathModule exposes common floating point operations and constants.
func MathModule() *Module {
	return NewModule("math").
		Define("pi", math.Pi).
		Define("e", math.E).
		Define("sqrt", unaryFloat("sqrt", math.Sqrt)).
		Define("floor", unaryFloat("floor", math.Floor)).
		Define("ceil", unaryFloat("ceil", math.Ceil)).
		Define("log", unaryFloat("log", math.Log)).
		Define("exp", unaryFloat("exp", math.Exp)).
		Define("abs", unaryFloat("abs", math.Abs)).
		Define("pow", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("pow", args, kwargs, 2); err != nil {
				return nil, err
			}
			base, err := asFloat(args[0])
			if err != nil {
				return nil, fmt.Errorf("pow: %v", err)
			}
			exp, err := asFloat(args[1])
			if err != nil {
				return nil, fmt.Errorf("pow: %v", err)
			}
			return math.Pow(base, exp), nil
		}))
}

// BuiltinsModule exposes generic helpers over sequences and numbers.
func BuiltinsModule() *Module {
	return NewModule("builtins").
		Define("len", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("len", args, kwargs, 1); err != nil {
				return nil, err
			}
			n, err := seqLen(args[0])
			if err != nil {
				return nil, fmt.Errorf("len: %v", err)
			}
			return int64(n), nil
		})).
		Define("abs", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("abs", args, kwargs, 1); err != nil {
				return nil, err
			}
			switch x := args[0].(type) {
			case int64:
				if x < 0 {
					return -x, nil
				}
				return x, nil
			case float64:
				return math.Abs(x), nil
			default:
				return nil, fmt.Errorf("abs: expected a number, got %T", args[0])
			}
		})).
		Define("min", reduceNumbers("min", func(acc, x float64) float64 { return math.Min(acc, x) })).
		Define("max", reduceNumbers("max", func(acc, x float64) float64 { return math.Max(acc, x) })).
		Define("sum", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("sum", args, kwargs, 1); err != nil {
				return nil, err
			}
			// Integer inputs accumulate in int64: going through float64
			// would round magnitudes beyond 2^53
			switch x := args[0].(type) {
			case []int64:
				var total int64
				for _, n := range x {
					total += n
				}
				return total, nil
			case []float64:
				total := 0.0
				for _, n := range x {
					total += n
				}
				return total, nil
			case []any:
				var intTotal int64
				var floatTotal float64
				allInt := true
				for i, item := range x {
					switch n := item.(type) {
					case int64:
						if allInt {
							intTotal += n
						} else {
							floatTotal += float64(n)
						}
					case float64:
						if allInt {
							// First float promotes the running total
							floatTotal = float64(intTotal)
							allInt = false
						}
						floatTotal += n
					default:
						return nil, fmt.Errorf("sum: element %d is %T, not a number", i, item)
					}
				}
				if allInt {
					return intTotal, nil
				}
				return floatTotal, nil
			default:
				return nil, fmt.Errorf("sum: expected a numeric sequence, got %T", args[0])
			}
		})).
		Define("range", Func(func(args []any, kwargs map[string]any) (any, error) {
			if len(kwargs) != 0 {
				return nil, fmt.Errorf("range: takes no named arguments")
			}
			if len(args) < 1 || len(args) > 3 {
				return nil, fmt.Errorf("range: expected 1 to 3 arguments, got %d", len(args))
			}
			bounds := make([]int64, len(args))
			for i, a := range args {
				n, ok := a.(int64)
				if !ok {
					return nil, fmt.Errorf("range: expected an integer, got %T", a)
				}
				bounds[i] = n
			}

			start, stop, step := int64(0), int64(0), int64(1)
			switch len(bounds) {
			case 1:
				stop = bounds[0]
			case 2:
				start, stop = bounds[0], bounds[1]
			case 3:
				start, stop, step = bounds[0], bounds[1], bounds[2]
			}
			if step == 0 {
				return nil, fmt.Errorf("range: step cannot be zero")
			}

			var out []int64
			if step > 0 {
				for i := start; i < stop; i += step {
					out = append(out, i)
				}
			} else {
				for i := start; i > stop; i += step {
					out = append(out, i)
				}
			}
			return out, nil
		}))
}

// StringsModule exposes text helpers.
func StringsModule() *Module {
	return NewModule("strings").
		Define("upper", unaryString("upper", strings.ToUpper)).
		Define("lower", unaryString("lower", strings.ToLower)).
		Define("trim", unaryString("trim", strings.TrimSpace)).
		Define("split", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("split", args, kwargs, 2); err != nil {
				return nil, err
			}
			s, sep, err := twoStrings("split", args)
			if err != nil {
				return nil, err
			}
			parts := strings.Split(s, sep)
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		})).
		Define("join", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("join", args, kwargs, 2); err != nil {
				return nil, err
			}
			items, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("join: expected a sequence, got %T", args[0])
			}
			sep, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("join: expected a string separator, got %T", args[1])
			}
			parts := make([]string, len(items))
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("join: sequence item %d is %T, not a string", i, item)
				}
				parts[i] = s
			}
			return strings.Join(parts, sep), nil
		})).
		Define("contains", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("contains", args, kwargs, 2); err != nil {
				return nil, err
			}
			s, sub, err := twoStrings("contains", args)
			if err != nil {
				return nil, err
			}
			return strings.Contains(s, sub), nil
		})).
		Define("replace", Func(func(args []any, kwargs map[string]any) (any, error) {
			if err := exactArgs("replace", args, kwargs, 3); err != nil {
				return nil, err
			}
			s, old, err := twoStrings("replace", args)
			if err != nil {
				return nil, err
			}
			repl, ok := args[2].(string)
			if !ok {
				return nil, fmt.Errorf("replace: expected a string, got %T", args[2])
			}
			return strings.ReplaceAll(s, old, repl), nil
		}))
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func exactArgs(name string, args []any, kwargs map[string]any, n int) error {
	if len(kwargs) != 0 {
		return fmt.Errorf("%s: takes no named arguments", name)
	}
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func unaryFloat(name string, f func(float64) float64) Func {
	return func(args []any, kwargs map[string]any) (any, error) {
		if err := exactArgs(name, args, kwargs, 1); err != nil {
			return nil, err
		}
		x, err := asFloat(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
		return f(x), nil
	}
}

func unaryString(name string, f func(string) string) Func {
	return func(args []any, kwargs map[string]any) (any, error) {
		if err := exactArgs(name, args, kwargs, 1); err != nil {
			return nil, err
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected a string, got %T", name, args[0])
		}
		return f(s), nil
	}
}

func twoStrings(name string, args []any) (string, string, error) {
	a, ok := args[0].(string)
	if !ok {
		return "", "", fmt.Errorf("%s: expected a string, got %T", name, args[0])
	}
	b, ok := args[1].(string)
	if !ok {
		return "", "", fmt.Errorf("%s: expected a string, got %T", name, args[1])
	}
	return a, b, nil
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func seqLen(v any) (int, error) {
	switch x := v.(type) {
	case string:
		return len(x), nil
	case []byte:
		return len(x), nil
	case []any:
		return len(x), nil
	case []int64:
		return len(x), nil
	case []float64:
		return len(x), nil
	case map[string]any:
		return len(x), nil
	default:
		return 0, fmt.Errorf("object of type %T has no length", v)
	}
}

// asNumbers flattens a numeric argument list or sequence into floats and
// reports whether every element was an integer.
func asNumbers(v any) ([]float64, bool, error) {
	switch x := v.(type) {
	case []int64:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true, nil
	case []float64:
		return x, false, nil
	case []any:
		out := make([]float64, len(x))
		allInt := true
		for i, item := range x {
			switch n := item.(type) {
			case int64:
				out[i] = float64(n)
			case float64:
				out[i] = n
				allInt = false
			default:
				return nil, false, fmt.Errorf("element %d is %T, not a number", i, item)
			}
		}
		return out, allInt, nil
	default:
		return nil, false, fmt.Errorf("expected a numeric sequence, got %T", v)
	}
}

// reduceNumbers builds a callable that folds its arguments (or a single
// sequence argument) with the given combiner.
func reduceNumbers(name string, combine func(acc, x float64) float64) Func {
	return func(args []any, kwargs map[string]any) (any, error) {
		if len(kwargs) != 0 {
			return nil, fmt.Errorf("%s: takes no named arguments", name)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: expected at least one argument", name)
		}

		// A single sequence argument is folded element-wise
		input := any(args)
		if len(args) == 1 {
			switch args[0].(type) {
			case []any, []int64, []float64:
				input = args[0]
			}
		}

		nums, allInt, err := asNumbers(input)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
		if len(nums) == 0 {
			return nil, fmt.Errorf("%s: empty sequence", name)
		}

		acc := nums[0]
		for _, n := range nums[1:] {
			acc = combine(acc, n)
		}
		if allInt {
			return int64(acc), nil
		}
		return acc, nil
	}
}
