package tree

import (
	"strings"
	"unicode"

	"ruletree/domain/core"
	"ruletree/domain/rules"
)

// Markers in the recursive dump format
const (
	figsHeaderLines = 5
	figsRootMarker  = "(Tree #0 root)"
	figsSplitMarker = "(split)"
	figsOutlierLeaf = "Val: 1.000 (leaf)"
	figsInlierLeaf  = "Val: 0.000 (leaf)"
)

// figsNode is one node in the parsed dump. Children index into the arena;
// -1 means no child on that side.
type figsNode struct {
	value string
	left  int32
	right int32
	root  bool
}

// lineToken is one dump line split into its tab depth and remaining body
type lineToken struct {
	tabs int
	body string
}

// at renders the token as it reads once level leading characters have been
// consumed. Inside a subtree every line has notionally lost one character
// per ancestor; lines shallower than the level lose body characters
// instead, which is exactly how over-indented input degrades.
func (t lineToken) at(level int) string {
	if level <= t.tabs {
		return strings.Repeat("\t", t.tabs-level) + t.body
	}
	over := level - t.tabs
	if over >= len(t.body) {
		return ""
	}
	return t.body[over:]
}

// boundary reports whether the token starts a child subtree at this level
func (t lineToken) boundary(level int) bool {
	return !strings.HasPrefix(t.at(level), "\t")
}

// RecursiveParser reads the summed-tree dump format: a fixed five line
// banner, then one node per line with children indented one tab deeper
// than their parent. A split's second child boundary divides its line range
// into left and right subtrees; with a single boundary the whole range
// becomes a unary left child. The right branch keeps the split condition as
// written and the left branch takes its inversion.
type RecursiveParser struct{}

func (p *RecursiveParser) Parse(text string) (*Result, error) {
	result := &Result{Rules: rules.RuleSet{}}

	lines := strings.Split(text, "\n")
	if len(lines) <= figsHeaderLines {
		result.Diagnostics = append(result.Diagnostics, core.NewDiagnostic(
			core.DiagSkippedLine, "dump has no tree lines after the %d banner lines", figsHeaderLines))
		return result, nil
	}
	lines = lines[figsHeaderLines:]

	tokens := make([]lineToken, len(lines))
	for i, line := range lines {
		tabs := 0
		for tabs < len(line) && line[tabs] == '\t' {
			tabs++
		}
		tokens[i] = lineToken{tabs: tabs, body: line[tabs:]}
	}

	builder := &figsBuilder{tokens: tokens}
	root := builder.build(0, len(tokens), 0)
	result.Diagnostics = append(result.Diagnostics, builder.diagnostics...)

	extractor := &figsExtractor{arena: builder.arena}
	extractor.walkFromRoot(root)
	result.Rules = append(result.Rules, extractor.out...)
	result.Diagnostics = append(result.Diagnostics, extractor.diagnostics...)
	return result, nil
}

// figsBuilder assembles the node arena from tokenized lines
type figsBuilder struct {
	tokens      []lineToken
	arena       []figsNode
	diagnostics []core.Diagnostic
}

func (b *figsBuilder) push(n figsNode) int32 {
	b.arena = append(b.arena, n)
	return int32(len(b.arena) - 1)
}

// build assembles the node for tokens[lo:hi] viewed at the given level and
// returns its arena index, or -1 for an empty range
func (b *figsBuilder) build(lo, hi, level int) int32 {
	if lo >= hi {
		b.diagnostics = append(b.diagnostics, core.NewDiagnostic(
			core.DiagMissingBranch, "split at depth %d has an empty branch", level))
		return -1
	}

	first := b.tokens[lo].at(level)
	trimmed := strings.TrimSpace(first)
	if !strings.HasSuffix(trimmed, figsRootMarker) && !strings.HasSuffix(trimmed, figsSplitMarker) {
		return b.push(figsNode{value: first, left: -1, right: -1})
	}

	value := strings.ReplaceAll(first, figsRootMarker, "")
	value = strings.ReplaceAll(value, figsSplitMarker, "")
	value = strings.TrimRightFunc(value, unicode.IsSpace)

	idx := b.push(figsNode{
		value: value,
		left:  -1,
		right: -1,
		root:  strings.HasSuffix(trimmed, figsRootMarker),
	})

	childLevel := level + 1
	var boundaries []int
	for i := lo + 1; i < hi; i++ {
		if b.tokens[i].boundary(childLevel) {
			boundaries = append(boundaries, i)
		}
	}

	if len(boundaries) > 1 {
		split := boundaries[1]
		left := b.build(lo+1, split, childLevel)
		right := b.build(split, hi, childLevel)
		b.arena[idx].left = left
		b.arena[idx].right = right
	} else {
		b.arena[idx].left = b.build(lo+1, hi, childLevel)
	}
	return idx
}

// figsExtractor turns root-to-leaf paths into rule texts. The rule prefix
// grows one condition per split; only the exact verdict leaf literals emit
// rules, any other leaf value is dropped with a diagnostic.
type figsExtractor struct {
	arena       []figsNode
	out         rules.RuleSet
	diagnostics []core.Diagnostic
}

func (e *figsExtractor) walkFromRoot(root int32) {
	if root < 0 {
		return
	}
	e.walk(root, "")
}

func (e *figsExtractor) walk(idx int32, prefix string) {
	if idx < 0 {
		e.diagnostics = append(e.diagnostics, core.NewDiagnostic(
			core.DiagMissingBranch, "no subtree under prefix %q, its paths emit no rules", prefix))
		return
	}
	node := e.arena[idx]

	switch {
	case node.root:
		e.walk(node.left, "IF "+invertCondition(node.value))
		e.walk(node.right, "IF "+node.value)
	case node.left >= 0:
		e.walk(node.left, prefix+" AND "+invertCondition(node.value))
		e.walk(node.right, prefix+" AND "+node.value)
	default:
		switch node.value {
		case figsOutlierLeaf:
			e.out = append(e.out, rules.FromText(prefix+" THEN OUTLIER"))
		case figsInlierLeaf:
			e.out = append(e.out, rules.FromText(prefix+" THEN INLIER"))
		default:
			e.diagnostics = append(e.diagnostics, core.NewDiagnostic(
				core.DiagDroppedLeaf, "leaf %q is not a verdict literal", node.value))
		}
	}
}

// invertCondition flips the comparison in a split condition so the left
// branch reads as the complement of the right. Ordering matters: the
// compound operators must be checked before their single character
// prefixes.
func invertCondition(condition string) string {
	switch {
	case strings.Contains(condition, " >= "):
		return strings.ReplaceAll(condition, " >= ", " < ")
	case strings.Contains(condition, " <= "):
		return strings.ReplaceAll(condition, " <= ", " > ")
	case strings.Contains(condition, " > "):
		return strings.ReplaceAll(condition, " > ", " <= ")
	case strings.Contains(condition, " < "):
		return strings.ReplaceAll(condition, " < ", " >= ")
	}
	return condition
}
