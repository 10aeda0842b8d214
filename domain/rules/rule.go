package rules

import (
	"encoding/json"
	"strings"
)

// Label is the verdict a rule assigns to rows matching its conditions
type Label string

const (
	LabelOutlier Label = "OUTLIER"
	LabelInlier  Label = "INLIER"
)

// Markers inside canonical rule text
const (
	rulePrefix   = "IF "
	thenOutlier  = "THEN OUTLIER"
	thenInlier   = "THEN INLIER"
	conjunction  = " AND "
	noConditions = "<no conditions>"
)

// Rule pairs a conjunction of conditions with a verdict label. Text is the
// canonical form and the source of truth for validation and application;
// Conditions is populated only when the rule came from a structured tree
// parse. Oracle-authored rules carry text alone and are re-parsed lazily.
type Rule struct {
	Conditions []Condition `json:"conditions,omitempty"`
	Label      Label       `json:"label"`
	Text       string      `json:"text"`
}

// NewRule builds a rule from parsed conditions and renders its canonical
// text. A rule with no conditions renders the unconditional form
// "IF <no conditions> THEN <label>".
func NewRule(conditions []Condition, label Label) Rule {
	return Rule{
		Conditions: conditions,
		Label:      label,
		Text:       renderRuleText(conditions, label),
	}
}

// FromText wraps raw rule text, deriving the label from the THEN clause.
// Text without a recognizable THEN clause keeps the zero label; such rules
// are never consulted during application.
func FromText(text string) Rule {
	r := Rule{Text: text}
	switch {
	case strings.Contains(text, thenOutlier):
		r.Label = LabelOutlier
	case strings.Contains(text, thenInlier):
		r.Label = LabelInlier
	}
	return r
}

// IsOutlier reports whether the rule carries an OUTLIER verdict
func (r Rule) IsOutlier() bool {
	return r.Label == LabelOutlier
}

func renderRuleText(conditions []Condition, label Label) string {
	if len(conditions) == 0 {
		return rulePrefix + noConditions + " THEN " + string(label)
	}
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = c.String()
	}
	return rulePrefix + strings.Join(parts, conjunction) + " THEN " + string(label)
}

// RuleSet is an ordered sequence of rules. Parsers emit rules in traversal
// order and the order is preserved through rename, merge and serialization.
type RuleSet []Rule

// FromTexts wraps raw rule texts in order
func FromTexts(texts []string) RuleSet {
	set := make(RuleSet, 0, len(texts))
	for _, t := range texts {
		set = append(set, FromText(t))
	}
	return set
}

// Texts returns the canonical text of every rule in order
func (s RuleSet) Texts() []string {
	texts := make([]string, len(s))
	for i, r := range s {
		texts[i] = r.Text
	}
	return texts
}

// Outliers returns the rules whose text carries an OUTLIER verdict
func (s RuleSet) Outliers() RuleSet {
	out := make(RuleSet, 0, len(s))
	for _, r := range s {
		if strings.Contains(r.Text, thenOutlier) {
			out = append(out, r)
		}
	}
	return out
}

// MarshalJSON serializes the set as a plain array of rule texts, the wire
// form shared with the oracle
func (s RuleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Texts())
}

// UnmarshalJSON accepts a plain array of rule texts
func (s *RuleSet) UnmarshalJSON(data []byte) error {
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return err
	}
	*s = FromTexts(texts)
	return nil
}
