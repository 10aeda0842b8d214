package review

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Patterns for the fallback scan over unfenced oracle output
var (
	numberedRulePattern = regexp.MustCompile(`^\d+\.\s*"IF.*THEN OUTLIER"`)
	quotedRulePattern   = regexp.MustCompile(`^"IF.*THEN OUTLIER"`)
	tickedRulePattern   = regexp.MustCompile(`^'IF.*THEN OUTLIER'`)
	embeddedRulePattern = regexp.MustCompile(`"(IF.*THEN OUTLIER)"`)
)

// ExtractRules pulls rule texts out of free-form oracle output. Fenced code
// blocks are tried first, each as a JSON array, then as an object carrying
// a new_rules array, then line by line. Only when no block yields a single
// rule does the raw text itself get scanned for bare, numbered or quoted
// rule lines. Extraction never fails; output with nothing extractable
// yields an empty slice.
func ExtractRules(raw string) []string {
	extracted := []string{}

	for _, block := range fencedBlocks(raw) {
		extracted = append(extracted, rulesFromBlock(block)...)
	}
	if len(extracted) > 0 {
		return extracted
	}
	return rulesFromPlainText(raw)
}

// fencedBlocks returns the literal content of every fenced code block,
// whatever its info string says
func fencedBlocks(raw string) []string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(raw))

	var blocks []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if block, ok := node.(*ast.CodeBlock); ok && entering && block.IsFenced {
			blocks = append(blocks, strings.TrimSpace(string(block.Literal)))
		}
		return ast.GoToNext
	})
	return blocks
}

// rulesFromBlock extracts rules from one fenced block. JSON shapes win;
// anything else falls back to scanning the block's lines.
func rulesFromBlock(block string) []string {
	var decoded interface{}
	if err := json.Unmarshal([]byte(block), &decoded); err == nil {
		switch v := decoded.(type) {
		case []interface{}:
			return filterRuleStrings(v)
		case map[string]interface{}:
			if newRules, ok := v["new_rules"].([]interface{}); ok {
				return filterRuleStrings(newRules)
			}
		}
	}

	var extracted []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, `"`) && isRuleText(line):
			extracted = append(extracted, strings.Trim(strings.Trim(line, `"`), `'`))
		case strings.HasPrefix(line, "IF ") && strings.Contains(line, "THEN OUTLIER"):
			extracted = append(extracted, line)
		}
	}
	return extracted
}

// rulesFromPlainText scans raw text line by line for rule shapes
func rulesFromPlainText(raw string) []string {
	extracted := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "IF ") && strings.Contains(line, "THEN OUTLIER"):
			extracted = append(extracted, line)
		case numberedRulePattern.MatchString(line):
			if m := embeddedRulePattern.FindStringSubmatch(line); m != nil {
				extracted = append(extracted, m[1])
			}
		case quotedRulePattern.MatchString(line) || tickedRulePattern.MatchString(line):
			extracted = append(extracted, strings.Trim(strings.Trim(line, `"`), `'`))
		}
	}
	return extracted
}

// filterRuleStrings keeps the entries that read as OUTLIER rules
func filterRuleStrings(items []interface{}) []string {
	extracted := []string{}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if isRuleText(s) {
			extracted = append(extracted, s)
		}
	}
	return extracted
}

func isRuleText(s string) bool {
	return strings.Contains(s, "IF ") && strings.Contains(s, "THEN OUTLIER")
}
