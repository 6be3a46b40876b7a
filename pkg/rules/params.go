package rules

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// ParamError reports a rule parameter that failed to decode or validate.
type ParamError struct {
	RuleID string
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("rule %s: parameter %q: %s", e.RuleID, e.Param, e.Reason)
}

// UnknownKindError reports a rule whose kind has no registered validator.
type UnknownKindError struct {
	RuleID string
	Kind   core.RuleKind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("rule %s: unknown validator kind %q", e.RuleID, e.Kind)
}

// DecodeParams maps a rule's raw parameter map onto a typed params
// struct. Numeric values decode weakly (YAML ints into float64 fields
// and vice versa) so rule files do not need exact literal forms.
func DecodeParams(rule core.Rule, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "param",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building params decoder: %w", err)
	}
	if err := dec.Decode(rule.Params); err != nil {
		return &ParamError{RuleID: rule.ID, Param: "params", Reason: err.Error()}
	}
	return nil
}

func toStringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return []string{vv}, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}
