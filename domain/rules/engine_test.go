package rules

import (
	"errors"
	"reflect"
	"testing"

	"ruletree/domain/core"
	"ruletree/domain/dataset"
)

func speedFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	frame, err := dataset.FromColumns([]string{"speed"}, map[string][]float64{
		"speed": {100, 130, 90},
	})
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}
	return frame
}

func TestApplyFlagsMatchingRows(t *testing.T) {
	frame := speedFrame(t)
	set := FromTexts([]string{"IF $speed$ > 120 THEN OUTLIER"})

	report, err := Apply(set, frame)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	want := []bool{false, true, false}
	if !reflect.DeepEqual(report.Flags, want) {
		t.Errorf("Flags = %v, want %v", report.Flags, want)
	}
	if report.RowsFlagged != 1 {
		t.Errorf("RowsFlagged = %d, want 1", report.RowsFlagged)
	}

	flag, ok := frame.Flag(OutlierFlag)
	if !ok {
		t.Fatal("outlier flag column missing from frame")
	}
	if !reflect.DeepEqual(flag, want) {
		t.Errorf("frame flag = %v, want %v", flag, want)
	}
}

func TestApplyAccumulatesWithOr(t *testing.T) {
	texts := []string{
		"IF $speed$ > 120 THEN OUTLIER",
		"IF $speed$ < 95 THEN OUTLIER",
	}
	reversed := []string{texts[1], texts[0]}
	want := []bool{false, true, true}

	for _, order := range [][]string{texts, reversed} {
		frame := speedFrame(t)
		report, err := Apply(FromTexts(order), frame)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if !reflect.DeepEqual(report.Flags, want) {
			t.Errorf("order %v: Flags = %v, want %v", order, report.Flags, want)
		}
	}
}

func TestApplyIgnoresInlierRules(t *testing.T) {
	frame := speedFrame(t)
	set := FromTexts([]string{"IF $speed$ > 0 THEN INLIER"})

	report, err := Apply(set, frame)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if report.Applied != 0 {
		t.Errorf("Applied = %d, INLIER rules must not be consulted", report.Applied)
	}
	if report.RowsFlagged != 0 {
		t.Errorf("RowsFlagged = %d, want 0", report.RowsFlagged)
	}
}

func TestApplySkipsUnparsableConjuncts(t *testing.T) {
	frame := speedFrame(t)
	set := FromTexts([]string{"IF $speed$ > 120 AND humidity is high THEN OUTLIER"})

	report, err := Apply(set, frame)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// the unparsable conjunct narrows nothing, the parsed one still applies
	want := []bool{false, true, false}
	if !reflect.DeepEqual(report.Flags, want) {
		t.Errorf("Flags = %v, want %v", report.Flags, want)
	}
	if len(report.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly one", report.Diagnostics)
	}
	if report.Diagnostics[0].Code != core.DiagSkippedCondition {
		t.Errorf("diagnostic code = %q", report.Diagnostics[0].Code)
	}
}

func TestApplyUnknownColumnIsHardError(t *testing.T) {
	frame := speedFrame(t)
	set := FromTexts([]string{"IF $pressure$ > 1 THEN OUTLIER"})

	_, err := Apply(set, frame)
	if err == nil {
		t.Fatal("Apply should fail on a parsed condition naming an unknown column")
	}
	if !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestApplyEmptyRuleSetLeavesAllRowsClean(t *testing.T) {
	frame := speedFrame(t)
	report, err := Apply(RuleSet{}, frame)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if report.RowsFlagged != 0 {
		t.Errorf("RowsFlagged = %d, want 0", report.RowsFlagged)
	}
	// the flag column exists even when nothing matched
	if _, ok := frame.Flag(OutlierFlag); !ok {
		t.Error("outlier flag column should exist after an empty apply")
	}
}

func TestApplyTelemetryRuleWithContradictoryBounds(t *testing.T) {
	frame, err := dataset.FromColumns(
		[]string{
			"Total no. compaction cycles with p>150 bar",
			"Distance [km]",
			"Total fuel consumed [dm3]",
		},
		map[string][]float64{
			"Total no. compaction cycles with p>150 bar": {30, 243, 500},
			"Distance [km]":                              {136, 136, 0.09},
			"Total fuel consumed [dm3]":                  {425, 400, 430},
		},
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}

	rule := "IF $Total no. compaction cycles with p>150 bar$ > 391.500" +
		" AND $Distance [km]$ <= 135.750" +
		" AND $Total fuel consumed [dm3]$ > 473.900" +
		" AND $Total fuel consumed [dm3]$ <= 67.000 THEN OUTLIER"

	report, err := Apply(FromTexts([]string{rule}), frame)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if report.RowsFlagged != 0 {
		t.Errorf("RowsFlagged = %d, contradictory bounds can match nothing", report.RowsFlagged)
	}
	if len(report.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, every conjunct should parse", report.Diagnostics)
	}
}
