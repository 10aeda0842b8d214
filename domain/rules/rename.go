package rules

import (
	"fmt"
	"strings"
)

// RenameFeatures rewrites positional placeholder names of the form
// feature_N to the dataset's column headers, where N indexes into columns
// in their original order. Replacement is a literal substring rewrite
// applied in ascending index order, matching how the placeholders were
// assigned at training time. Placeholders beyond the column count are left
// untouched.
func RenameFeatures(set RuleSet, columns []string) RuleSet {
	renamed := make(RuleSet, 0, len(set))
	for _, r := range set {
		text := r.Text
		var conds []Condition
		if r.Conditions != nil {
			conds = make([]Condition, len(r.Conditions))
			copy(conds, r.Conditions)
		}

		for i, col := range columns {
			placeholder := fmt.Sprintf("feature_%d", i)
			text = strings.ReplaceAll(text, placeholder, col)
			for j := range conds {
				conds[j].Feature = strings.ReplaceAll(conds[j].Feature, placeholder, col)
			}
		}

		renamed = append(renamed, Rule{Conditions: conds, Label: r.Label, Text: text})
	}
	return renamed
}
