package tree

import (
	"regexp"
	"strconv"
	"strings"

	"ruletree/domain/core"
	"ruletree/domain/rules"
)

// indentUnit is one depth step in the pipe-indented dump format
const indentUnit = "|   "

var (
	// splitLinePattern matches an internal split such as
	// "|   |--- feature_8 <= 462.55". Only placeholder feature names
	// appear in this dialect.
	splitLinePattern = regexp.MustCompile(`^\s*\|(?P<indent>[|\s-]+)\s+(?P<feature>feature_\d+)\s*(?P<op><=|>|>=)\s*(?P<value>[0-9.]+)\s*$`)

	// leafLinePattern matches a leaf such as
	// "|   |   |--- weights: [0.00, 6.00] class: 1.0"
	leafLinePattern = regexp.MustCompile(`^\s*\|(?P<indent>[|\s-]+)\s+weights:\s*\[(?P<w0>[0-9.]+),\s*(?P<w1>[0-9.]+)\]\s+class:\s*(?P<cls>[0-9.]+)\s*$`)
)

// IndentParser reads the pipe-indented dump format shared by the optimal
// and greedy tree trainers. It walks lines top to bottom keeping a stack of
// split conditions: a line's depth truncates the stack before the line's
// own condition is pushed, and each leaf line snapshots the stack into one
// rule. Class 0.0 leaves are inliers, everything else is an outlier.
type IndentParser struct{}

func (p *IndentParser) Parse(text string) (*Result, error) {
	result := &Result{Rules: rules.RuleSet{}}
	var stack []rules.Condition

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for lineNo, line := range lines {
		depth := strings.Count(line, indentUnit)

		if m := splitLinePattern.FindStringSubmatch(line); m != nil {
			if depth < len(stack) {
				stack = stack[:depth]
			}
			threshold, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, core.NewDiagnostic(
					core.DiagSkippedLine, "line %d: threshold %q is not a number", lineNo+1, m[4]))
				continue
			}
			stack = append(stack, rules.Condition{
				Feature:      m[2],
				Operator:     rules.Operator(m[3]),
				Threshold:    threshold,
				RawThreshold: m[4],
			})
			continue
		}

		if m := leafLinePattern.FindStringSubmatch(line); m != nil {
			if depth < len(stack) {
				stack = stack[:depth]
			}
			cls, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, core.NewDiagnostic(
					core.DiagDroppedLeaf, "line %d: class %q is not a number", lineNo+1, m[4]))
				continue
			}
			label := rules.LabelOutlier
			if cls == 0 {
				label = rules.LabelInlier
			}
			conditions := append([]rules.Condition(nil), stack...)
			result.Rules = append(result.Rules, rules.NewRule(conditions, label))
			continue
		}

		if strings.TrimSpace(line) != "" {
			result.Diagnostics = append(result.Diagnostics, core.NewDiagnostic(
				core.DiagSkippedLine, "line %d matched no tree pattern: %q", lineNo+1, strings.TrimSpace(line)))
		}
	}

	return result, nil
}
