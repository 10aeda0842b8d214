package core

import "fmt"

// DiagnosticCode classifies input the engine skipped instead of failing on
type DiagnosticCode string

const (
	// DiagSkippedLine records a tree line matching no known pattern.
	DiagSkippedLine DiagnosticCode = "skipped_line"
	// DiagDroppedLeaf records a leaf whose value is not a verdict literal.
	DiagDroppedLeaf DiagnosticCode = "dropped_leaf"
	// DiagMissingBranch records a split node with a missing child subtree.
	DiagMissingBranch DiagnosticCode = "missing_branch"
	// DiagSkippedCondition records a rule conjunct that did not parse and
	// therefore narrowed nothing during application.
	DiagSkippedCondition DiagnosticCode = "skipped_condition"
)

// Diagnostic records a piece of input that was skipped or degraded during a
// best-effort operation. Parsers and the rule engine collect diagnostics
// alongside their results instead of aborting.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Message string         `json:"message"`
}

// NewDiagnostic creates a diagnostic with a formatted message
func NewDiagnostic(code DiagnosticCode, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}

// String returns "code: message"
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}
