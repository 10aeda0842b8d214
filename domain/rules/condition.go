package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// Operator is a comparison operator in a rule condition
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
)

// conditionPattern matches one conjunct of oracle-authored rule text. The
// feature name is delimited by $ markers on both sides so names may contain
// spaces, brackets and comparison characters (e.g. "Total no. compaction
// cycles with p>150 bar"). The trailing unit is optional and decorative.
// Compound operators come first in the alternation so ">=" is not read as
// ">" followed by garbage.
var conditionPattern = regexp.MustCompile(`\$(.*?)\$\s*(>=|<=|>|<|==)\s*([\d.]+)\s*(km/h|bar|km|h|dm3|l|kg|t|rpm|liters|kilograms|tons)?`)

// ifPrefixPattern strips a stray leading IF token from a conjunct fragment
var ifPrefixPattern = regexp.MustCompile(`(?i)^IF\s*(.*)`)

// Condition is one parsed comparison of a feature value against a threshold.
// RawThreshold keeps the threshold exactly as written so re-rendered rule
// text never reformats numbers.
type Condition struct {
	Feature      string   `json:"feature"`
	Operator     Operator `json:"operator"`
	Threshold    float64  `json:"threshold"`
	RawThreshold string   `json:"raw_threshold,omitempty"`
	Unit         string   `json:"unit,omitempty"`
}

// ParseCondition extracts a condition from one conjunct of rule text.
// Parsing is best effort: fragments without a $feature$ marker, a known
// operator and a numeric threshold report ok=false, and callers skip them
// rather than fail.
func ParseCondition(fragment string) (Condition, bool) {
	c := strings.TrimSpace(fragment)
	if m := ifPrefixPattern.FindStringSubmatch(c); m != nil {
		c = strings.TrimSpace(m[1])
	}

	m := conditionPattern.FindStringSubmatch(c)
	if m == nil {
		return Condition{}, false
	}

	threshold, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		// [\d.]+ admits shapes like "1.2.3" that are not numbers
		return Condition{}, false
	}

	return Condition{
		Feature:      strings.TrimSpace(m[1]),
		Operator:     Operator(m[2]),
		Threshold:    threshold,
		RawThreshold: m[3],
		Unit:         m[4],
	}, true
}

// Evaluate reports whether a value satisfies the condition
func (c Condition) Evaluate(value float64) bool {
	switch c.Operator {
	case OpGreater:
		return value > c.Threshold
	case OpLess:
		return value < c.Threshold
	case OpGreaterEqual:
		return value >= c.Threshold
	case OpLessEqual:
		return value <= c.Threshold
	case OpEqual:
		return value == c.Threshold
	default:
		return false
	}
}

// String renders the condition the way tree parsers emit it: the feature
// name bare, one space around the operator, the threshold as written.
func (c Condition) String() string {
	threshold := c.RawThreshold
	if threshold == "" {
		threshold = strconv.FormatFloat(c.Threshold, 'g', -1, 64)
	}
	s := c.Feature + " " + string(c.Operator) + " " + threshold
	if c.Unit != "" {
		s += " " + c.Unit
	}
	return s
}
