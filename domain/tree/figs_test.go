package tree

import (
	"reflect"
	"strings"
	"testing"

	"ruletree/domain/core"
	"ruletree/internal/testkit"
)

const summedBanner = "> ------------------------------\n" +
	"> FIGS-Fast Interpretable Greedy-Tree Sums:\n" +
	"> \tPredictions are made by summing the \"Val\" over all trees\n" +
	"> ------------------------------\n"

func TestRecursiveParseFullDump(t *testing.T) {
	parser := &RecursiveParser{}
	result, err := parser.Parse(testkit.SummedTreeDump)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !reflect.DeepEqual(result.Rules.Texts(), testkit.SummedTreeRules) {
		t.Errorf("Rules = %v, want %v", result.Rules.Texts(), testkit.SummedTreeRules)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, clean dump should produce none", result.Diagnostics)
	}
}

func TestRecursiveParseBannerOnly(t *testing.T) {
	parser := &RecursiveParser{}
	result, err := parser.Parse(summedBanner + "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Rules) != 0 {
		t.Errorf("Rules = %v, want none", result.Rules.Texts())
	}
	if len(result.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %v, want one for the missing tree", result.Diagnostics)
	}
}

func TestRecursiveParseUnarySplit(t *testing.T) {
	dump := summedBanner + "\n" +
		"truck speed <= 120.500 (Tree #0 root)\n" +
		"\tVal: 1.000 (leaf)"

	parser := &RecursiveParser{}
	result, err := parser.Parse(dump)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// the lone subtree hangs off the inverted left branch; the missing
	// right branch is reported, not fatal
	want := []string{"IF truck speed > 120.500 THEN OUTLIER"}
	if !reflect.DeepEqual(result.Rules.Texts(), want) {
		t.Errorf("Rules = %v, want %v", result.Rules.Texts(), want)
	}

	found := false
	for _, d := range result.Diagnostics {
		if d.Code == core.DiagMissingBranch {
			found = true
		}
	}
	if !found {
		t.Errorf("Diagnostics = %v, want a missing branch report", result.Diagnostics)
	}
}

func TestRecursiveParseForeignRootIsNotARoot(t *testing.T) {
	dump := summedBanner + "\n" +
		"truck speed <= 120.500 (Tree #1 root)\n" +
		"\tVal: 1.000 (leaf)\n" +
		"\tVal: 0.000 (leaf)"

	parser := &RecursiveParser{}
	result, err := parser.Parse(dump)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// only tree #0 carries the root marker; anything else reads as a leaf
	// whose value is no verdict literal
	if len(result.Rules) != 0 {
		t.Errorf("Rules = %v, want none", result.Rules.Texts())
	}
	if len(result.Diagnostics) == 0 {
		t.Error("expected a dropped leaf diagnostic")
	}
	if result.Diagnostics[0].Code != core.DiagDroppedLeaf {
		t.Errorf("diagnostic code = %q", result.Diagnostics[0].Code)
	}
}

func TestRecursiveParseDropsUnknownLeafValues(t *testing.T) {
	dump := summedBanner + "\n" +
		"truck speed <= 120.500 (Tree #0 root)\n" +
		"\tVal: 0.500 (leaf)\n" +
		"\tVal: 1.000 (leaf)"

	parser := &RecursiveParser{}
	result, err := parser.Parse(dump)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// the fractional leaf is dropped silently from the rules, loudly from
	// the diagnostics; the right branch still extracts
	want := []string{"IF truck speed <= 120.500 THEN OUTLIER"}
	if !reflect.DeepEqual(result.Rules.Texts(), want) {
		t.Errorf("Rules = %v, want %v", result.Rules.Texts(), want)
	}

	found := false
	for _, d := range result.Diagnostics {
		if d.Code == core.DiagDroppedLeaf && strings.Contains(d.Message, "Val: 0.500 (leaf)") {
			found = true
		}
	}
	if !found {
		t.Errorf("Diagnostics = %v, want a dropped leaf naming the value", result.Diagnostics)
	}
}

func TestRecursiveParseBareLeaf(t *testing.T) {
	dump := summedBanner + "\n" + "Val: 1.000 (leaf)"

	parser := &RecursiveParser{}
	result, err := parser.Parse(dump)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// a dump reduced to one leaf has no conditions to prefix
	want := []string{" THEN OUTLIER"}
	if !reflect.DeepEqual(result.Rules.Texts(), want) {
		t.Errorf("Rules = %v, want %v", result.Rules.Texts(), want)
	}
}

func TestInvertCondition(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"truck speed >= 100.000", "truck speed < 100.000"},
		{"truck speed <= 100.000", "truck speed > 100.000"},
		{"truck speed > 100.000", "truck speed <= 100.000"},
		{"truck speed < 100.000", "truck speed >= 100.000"},
		{"no operator here", "no operator here"},
	}
	for _, tt := range tests {
		if got := invertCondition(tt.in); got != tt.want {
			t.Errorf("invertCondition(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInvertConditionIsAnInvolution(t *testing.T) {
	conditions := []string{
		"truck speed >= 100.000",
		"truck speed <= 100.000",
		"truck speed > 100.000",
		"truck speed < 100.000",
	}
	for _, c := range conditions {
		if got := invertCondition(invertCondition(c)); got != c {
			t.Errorf("double inversion of %q = %q", c, got)
		}
	}
}

func TestForAlgorithm(t *testing.T) {
	tests := []struct {
		alg     Algorithm
		want    interface{}
		wantErr bool
	}{
		{AlgorithmFIGS, &RecursiveParser{}, false},
		{AlgorithmOptimalTree, &IndentParser{}, false},
		{AlgorithmGreedyTree, &IndentParser{}, false},
		{Algorithm("IsolationForest"), nil, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			parser, err := ForAlgorithm(tt.alg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error for an unknown algorithm")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForAlgorithm failed: %v", err)
			}
			if reflect.TypeOf(parser) != reflect.TypeOf(tt.want) {
				t.Errorf("parser type = %T, want %T", parser, tt.want)
			}
		})
	}
}
