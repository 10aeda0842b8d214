package tree

import (
	"ruletree/domain/core"
	"ruletree/domain/rules"
)

// Algorithm tags the trainer whose textual tree dump is being parsed. The
// caller supplies the tag when requesting a parser; dialects are never
// sniffed from the dump text itself.
type Algorithm string

const (
	AlgorithmFIGS        Algorithm = "FIGS"
	AlgorithmOptimalTree Algorithm = "OptimalTree"
	AlgorithmGreedyTree  Algorithm = "GreedyTree"
)

// Result carries the rules extracted from one tree dump plus diagnostics
// for every piece of input the parser skipped or could not make sense of.
// Parsing is best effort: malformed input degrades the result, it never
// aborts it.
type Result struct {
	Rules       rules.RuleSet     `json:"rules"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
}

// Parser extracts decision rules from one dialect of tree dump
type Parser interface {
	Parse(text string) (*Result, error)
}

// ForAlgorithm returns the parser handling a trainer's dump dialect. The
// optimal and greedy trainers share the pipe-indented format; the summed
// tree trainer uses the recursive tab format.
func ForAlgorithm(alg Algorithm) (Parser, error) {
	switch alg {
	case AlgorithmFIGS:
		return &RecursiveParser{}, nil
	case AlgorithmOptimalTree, AlgorithmGreedyTree:
		return &IndentParser{}, nil
	default:
		return nil, core.NewUnknownAlgorithmError(string(alg))
	}
}

// UsesFeaturePlaceholders reports whether a trainer's dumps reference
// columns as feature_<i> placeholders instead of real column names. The
// summed tree trainer writes real names; the indent dialects do not.
func UsesFeaturePlaceholders(alg Algorithm) bool {
	return alg == AlgorithmOptimalTree || alg == AlgorithmGreedyTree
}
