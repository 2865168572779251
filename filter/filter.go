// Package filter decides which connections an event is routed to and how
// its payload is reshaped on the way out.
package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator names a filter comparison. Unknown operators fail their rule.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
	OpRegex       Operator = "regex"
	OpGT          Operator = "gt"
	OpLT          Operator = "lt"
	OpGTE         Operator = "gte"
	OpLTE         Operator = "lte"
)

// Rule is one filter condition on a connection. Rules are ANDed.
type Rule struct {
	Path     string   `json:"path"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Validate checks the rule is well formed at write time
func (r Rule) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("filter path cannot be empty")
	}
	switch r.Operator {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpExists, OpNotExists, OpGT, OpLT, OpGTE, OpLTE:
		return nil
	case OpRegex:
		pattern, ok := r.Value.(string)
		if !ok {
			return fmt.Errorf("regex filter value must be a string")
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("compiling filter regex: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown filter operator: %s", r.Operator)
	}
}

// Evaluate applies all rules to a JSON body, AND semantics.
// A body that does not parse as JSON passes every rule: malformed but
// intentional payloads must still reach their destinations.
func Evaluate(body []byte, rules []Rule) bool {
	if len(rules) == 0 {
		return true
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return true
	}

	for _, rule := range rules {
		if !matches(doc, rule) {
			return false
		}
	}
	return true
}

func matches(doc any, rule Rule) bool {
	value, found := Resolve(doc, rule.Path)

	switch rule.Operator {
	case OpExists:
		return found
	case OpNotExists:
		return !found
	case OpEquals:
		return found && equalValues(value, rule.Value)
	case OpNotEquals:
		return !found || !equalValues(value, rule.Value)
	case OpContains:
		s, ok := value.(string)
		return ok && strings.Contains(s, stringify(rule.Value))
	case OpNotContains:
		s, ok := value.(string)
		if !ok {
			return true
		}
		return !strings.Contains(s, stringify(rule.Value))
	case OpRegex:
		s, ok := value.(string)
		if !ok {
			return false
		}
		matched, err := regexp.MatchString(stringify(rule.Value), s)
		return err == nil && matched
	case OpGT, OpLT, OpGTE, OpLTE:
		return compareNumeric(value, rule.Value, rule.Operator)
	default:
		return false
	}
}

func compareNumeric(value, ruleValue any, op Operator) bool {
	n, ok := value.(float64)
	if !ok {
		return false
	}
	limit, ok := asNumber(ruleValue)
	if !ok {
		return false
	}

	switch op {
	case OpGT:
		return n > limit
	case OpLT:
		return n < limit
	case OpGTE:
		return n >= limit
	case OpLTE:
		return n <= limit
	default:
		return false
	}
}

/* JSON equality: numbers decode to float64 on both sides, everything
 * else is directly comparable. Strings never coerce to numbers here, so
 * "5" and 5 stay unequal.
 */
func equalValues(a, b any) bool {
	if an, ok := strictNumber(a); ok {
		bn, ok := strictNumber(b)
		return ok && an == bn
	}
	return a == b
}

func strictNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
