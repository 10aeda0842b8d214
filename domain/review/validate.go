package review

import (
	"fmt"
	"strings"
)

// ValidationReport carries the outcome of one validation pass
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator checks merged rule output against the merge contract: every
// rule a string of the form IF ... THEN OUTLIER, no disjunctions, no
// INLIER verdicts, and not drastically fewer rules than the source sets
// supplied.
type Validator struct {
	SourceSets [][]string
}

// NewValidator builds a validator holding the rule sets the merge started
// from, used for the completeness check.
func NewValidator(sourceSets ...[]string) *Validator {
	return &Validator{SourceSets: sourceSets}
}

// Validate runs every policy check over the output. Structural failures
// (not a list, empty list) short-circuit; per-rule failures accumulate so
// one report names everything wrong. The completeness warning fires only
// on otherwise clean output.
func (v *Validator) Validate(output interface{}) ValidationReport {
	errors := []string{}

	rules, ok := asList(output)
	if !ok {
		errors = append(errors, "Output must be a list of rules.")
		return ValidationReport{Valid: false, Errors: errors}
	}
	if len(rules) == 0 {
		errors = append(errors, "No rules found in the output.")
		return ValidationReport{Valid: false, Errors: errors}
	}

	for i, item := range rules {
		rule, ok := item.(string)
		if !ok {
			errors = append(errors, fmt.Sprintf("Rule %d must be a string, got %T.", i+1, item))
			continue
		}
		if strings.Contains(rule, "THEN INLIER") {
			errors = append(errors, fmt.Sprintf("Rule %d contains INLIER but should only contain OUTLIER: %s", i+1, rule))
		}
		if !(strings.HasPrefix(rule, "IF ") && strings.Contains(rule, "THEN OUTLIER")) {
			errors = append(errors, fmt.Sprintf("Rule %d does not follow pattern 'IF ... THEN OUTLIER': %s", i+1, rule))
		}
		if strings.Contains(rule, " OR ") {
			errors = append(errors, fmt.Sprintf("Rule %d contains 'OR' which is not allowed: %s", i+1, rule))
		}
	}

	if len(errors) == 0 {
		expected := v.expectedRuleCount()
		if float64(len(rules)) < float64(expected)*0.5 && expected > 2 {
			errors = append(errors, fmt.Sprintf("Warning: Output has significantly fewer rules (%d) than expected. Make sure no valid rules were skipped.", len(rules)))
		}
	}

	return ValidationReport{Valid: len(errors) == 0, Errors: errors}
}

// expectedRuleCount totals the OUTLIER rules across all source sets
func (v *Validator) expectedRuleCount() int {
	total := 0
	for _, set := range v.SourceSets {
		for _, rule := range set {
			if strings.Contains(rule, "THEN OUTLIER") {
				total++
			}
		}
	}
	return total
}

// asList accepts the shapes validation output arrives in
func asList(output interface{}) ([]interface{}, bool) {
	switch v := output.(type) {
	case []interface{}:
		return v, true
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items, true
	default:
		return nil, false
	}
}
