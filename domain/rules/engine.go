package rules

import (
	"strings"

	"ruletree/domain/core"
	"ruletree/domain/dataset"
)

// OutlierFlag is the boolean column Apply writes onto the frame
const OutlierFlag = "outlier"

// ApplyReport summarizes one application pass over a frame
type ApplyReport struct {
	Flags       []bool            `json:"flags"`
	RowsFlagged int               `json:"rows_flagged"`
	Applied     int               `json:"applied"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
}

// Apply evaluates every OUTLIER rule against the frame and writes the
// accumulated verdict into the frame's "outlier" flag column. The flag
// starts false for every row and rules accumulate with OR, so rule order
// never changes the outcome. INLIER rules are not consulted. Conjuncts
// that fail to parse narrow nothing and are reported as diagnostics; the
// only hard error is a parsed condition naming a column the frame does not
// have.
func Apply(set RuleSet, frame *dataset.Frame) (*ApplyReport, error) {
	report := &ApplyReport{}
	flags := make([]bool, frame.Rows())

	for idx, rule := range set {
		if !strings.Contains(rule.Text, thenOutlier) {
			continue
		}

		condPart := strings.SplitN(rule.Text, thenOutlier, 2)[0]
		condPart = strings.TrimSpace(strings.ReplaceAll(condPart, "IF", ""))

		mask := make([]bool, frame.Rows())
		for i := range mask {
			mask[i] = true
		}

		for _, fragment := range strings.Split(condPart, "AND") {
			cond, ok := ParseCondition(fragment)
			if !ok {
				report.Diagnostics = append(report.Diagnostics, core.NewDiagnostic(
					core.DiagSkippedCondition,
					"rule %d: conjunct %q did not parse and narrowed nothing",
					idx+1, strings.TrimSpace(fragment)))
				continue
			}

			values, ok := frame.Column(cond.Feature)
			if !ok {
				return nil, core.NewColumnNotFoundError(cond.Feature)
			}

			for i, v := range values {
				if mask[i] && !cond.Evaluate(v) {
					mask[i] = false
				}
			}
		}

		report.Applied++
		for i, matched := range mask {
			if matched {
				flags[i] = true
			}
		}
	}

	for _, flagged := range flags {
		if flagged {
			report.RowsFlagged++
		}
	}
	report.Flags = flags
	frame.SetFlag(OutlierFlag, flags)
	return report, nil
}
