package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// toStarlark converts a Go cell value into a Starlark value for the
// row context. Nulls become None.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case string:
		return starlark.String(val), nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// rowEnv builds the evaluation environment for one row: every column
// whose name is a valid identifier is bound directly, and the whole
// row is additionally exposed as the "row" dict.
func rowEnv(row map[string]any) (starlark.StringDict, error) {
	env := make(starlark.StringDict, len(row)+1)
	rowDict := starlark.NewDict(len(row))

	for name, value := range row {
		sv, err := toStarlark(value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if err := rowDict.SetKey(starlark.String(name), sv); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if isIdentifier(name) {
			env[name] = sv
		}
	}

	env["row"] = rowDict
	return env, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
