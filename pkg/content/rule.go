package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Rule kinds understood by Compile.
const (
	RuleCategory = "category"
	RuleRank     = "rank"
	RuleID       = "id"
	RuleAny      = "any"
)

// ErrUnknownRule is returned for a rule kind Compile does not know.
var ErrUnknownRule = errors.New("unknown acceptance rule")

// Rule is the declarative form of a Predicate, as written in lesson files.
// Values lists alternatives; any match accepts.
type Rule struct {
	Kind   string   `toml:"kind"`
	Values []string `toml:"values"`
}

// Compile turns a rule into a predicate.
func (r Rule) Compile() (Predicate, error) {
	kind := strings.ToLower(strings.TrimSpace(r.Kind))
	if kind == RuleAny {
		return func(Item) bool { return true }, nil
	}
	if len(r.Values) == 0 {
		return nil, fmt.Errorf("rule %q: no values", r.Kind)
	}
	preds := make([]Predicate, 0, len(r.Values))
	for _, v := range r.Values {
		switch kind {
		case RuleCategory:
			preds = append(preds, CategoryIs(v))
		case RuleID:
			preds = append(preds, IDIs(v))
		case RuleRank:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("rule %q: rank %q: %w", r.Kind, v, err)
			}
			preds = append(preds, RankIs(n))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownRule, r.Kind)
		}
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return AnyOf(preds...), nil
}

// String renders the rule for diagnostics.
func (r Rule) String() string {
	if len(r.Values) == 0 {
		return r.Kind
	}
	return r.Kind + "=" + strings.Join(r.Values, "|")
}
