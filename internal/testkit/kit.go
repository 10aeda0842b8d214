// Package testkit provides shared fixtures for tests: a small telemetry
// frame, canonical tree dumps for both dump dialects and scripted oracle
// replies. Domain packages keep their own inline fixtures; testkit serves
// the app, adapter and command layers.
package testkit

import (
	"ruletree/domain/dataset"
)

// TruckFrame builds the seven column telemetry frame used across tests.
// Row 1 is the usual suspect: high speed, many cycles, long idle.
func TruckFrame() (*dataset.Frame, error) {
	columns := []string{
		"truck speed",
		"Total no. compaction cycles",
		"Total no. compaction cycles with p>150 bar",
		"Distance [km]",
		"Motohours stop (idle) [h]",
		"Total fuel consumed [dm3]",
		"Motohours (PTO engaged) [h]",
	}
	return dataset.FromColumns(columns, map[string][]float64{
		"truck speed":                 {100, 130, 90},
		"Total no. compaction cycles": {50, 110, 101},
		"Total no. compaction cycles with p>150 bar": {30, 243, 500},
		"Distance [km]":               {136, 136, 0.09},
		"Motohours stop (idle) [h]":   {0.25, 10, 9.9},
		"Total fuel consumed [dm3]":   {425, 400, 430},
		"Motohours (PTO engaged) [h]": {3, 2.8, 2.9},
	})
}

// TelemetryTreeDump is a full pipe-indented dump as the optimal and greedy
// trainers print it. Split thresholds and leaf weights are kept verbatim so
// extraction can be asserted byte for byte.
const TelemetryTreeDump = `|--- feature_8 <= 462.55
|   |--- feature_5 <= 83.50
|   |   |--- feature_8 <= 247.35
|   |   |   |--- weights: [0.00, 6.00] class: 1.0
|   |   |--- feature_8 >  247.35
|   |   |   |--- weights: [6.00, 0.00] class: 0.0
|   |--- feature_5 >  83.50
|   |   |--- feature_7 <= 279.00
|   |   |   |--- feature_4 <= 222.10
|   |   |   |   |--- feature_3 <= 4.35
|   |   |   |   |   |--- feature_7 <= 242.50
|   |   |   |   |   |   |--- weights: [0.00, 151.00] class: 1.0
|   |   |   |   |   |--- feature_7 >  242.50
|   |   |   |   |   |   |--- feature_6 <= 303.50
|   |   |   |   |   |   |   |--- weights: [1.00, 0.00] class: 0.0
|   |   |   |   |   |   |--- feature_6 >  303.50
|   |   |   |   |   |   |   |--- weights: [0.00, 9.00] class: 1.0
|   |   |   |   |--- feature_3 >  4.35
|   |   |   |   |   |--- feature_0 <= 7.65
|   |   |   |   |   |   |--- weights: [1.00, 0.00] class: 0.0
|   |   |   |   |   |--- feature_0 >  7.65
|   |   |   |   |   |   |--- weights: [0.00, 2.00] class: 1.0
|   |   |   |--- feature_4 >  222.10
|   |   |   |   |--- weights: [1.00, 0.00] class: 0.0
|   |   |--- feature_7 >  279.00
|   |   |   |--- feature_4 <= 61.30
|   |   |   |   |--- feature_5 <= 518.00
|   |   |   |   |   |--- weights: [1.00, 0.00] class: 0.0
|   |   |   |   |--- feature_5 >  518.00
|   |   |   |   |   |--- feature_8 <= 300.20
|   |   |   |   |   |   |--- weights: [0.00, 6.00] class: 1.0
|   |   |   |   |   |--- feature_8 >  300.20
|   |   |   |   |   |   |--- weights: [1.00, 0.00] class: 0.0
|   |   |   |--- feature_4 >  61.30
|   |   |   |   |--- weights: [4.00, 0.00] class: 0.0
|--- feature_8 >  462.55
|   |--- weights: [11.00, 0.00] class: 0.0`

// TelemetryTreeRules is the exact rule sequence TelemetryTreeDump extracts
// to, in leaf order.
var TelemetryTreeRules = []string{
	"IF feature_8 <= 462.55 AND feature_5 <= 83.50 AND feature_8 <= 247.35 THEN OUTLIER",
	"IF feature_8 <= 462.55 AND feature_5 <= 83.50 AND feature_8 > 247.35 THEN INLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 <= 279.00 AND feature_4 <= 222.10 AND feature_3 <= 4.35 AND feature_7 <= 242.50 THEN OUTLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 <= 279.00 AND feature_4 <= 222.10 AND feature_3 <= 4.35 AND feature_7 > 242.50 AND feature_6 <= 303.50 THEN INLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 <= 279.00 AND feature_4 <= 222.10 AND feature_3 <= 4.35 AND feature_7 > 242.50 AND feature_6 > 303.50 THEN OUTLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 <= 279.00 AND feature_4 <= 222.10 AND feature_3 > 4.35 AND feature_0 <= 7.65 THEN INLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 <= 279.00 AND feature_4 <= 222.10 AND feature_3 > 4.35 AND feature_0 > 7.65 THEN OUTLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 <= 279.00 AND feature_4 > 222.10 THEN INLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 > 279.00 AND feature_4 <= 61.30 AND feature_5 <= 518.00 THEN INLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 > 279.00 AND feature_4 <= 61.30 AND feature_5 > 518.00 AND feature_8 <= 300.20 THEN OUTLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 > 279.00 AND feature_4 <= 61.30 AND feature_5 > 518.00 AND feature_8 > 300.20 THEN INLIER",
	"IF feature_8 <= 462.55 AND feature_5 > 83.50 AND feature_7 > 279.00 AND feature_4 > 61.30 THEN INLIER",
	"IF feature_8 > 462.55 THEN INLIER",
}

// SummedTreeDump is a recursive dialect dump: a five line banner, then the
// tree with one tab per depth level. The trainer already substitutes real
// column names in this dialect.
const SummedTreeDump = `> ------------------------------
> FIGS-Fast Interpretable Greedy-Tree Sums:
> 	Predictions are made by summing the "Val" over all trees
> ------------------------------

truck speed <= 120.500 (Tree #0 root)
	Total no. compaction cycles <= 105.500 (split)
		Val: 0.000 (leaf)
		Val: 1.000 (leaf)
	Val: 1.000 (leaf)`

// SummedTreeRules is the exact rule sequence SummedTreeDump extracts to.
// Left branches carry the inverted split condition.
var SummedTreeRules = []string{
	"IF truck speed > 120.500 AND Total no. compaction cycles > 105.500 THEN INLIER",
	"IF truck speed > 120.500 AND Total no. compaction cycles <= 105.500 THEN OUTLIER",
	"IF truck speed <= 120.500 THEN OUTLIER",
}

// Oracle reply fixtures for merge and repair tests.
const (
	// MergedRulesReply is a well formed reply: a fenced JSON array of rules.
	MergedRulesReply = "```json\n[\n  \"IF $truck speed$ > 120.000 km/h THEN OUTLIER\",\n  \"IF $Total no. compaction cycles$ > 105.500 THEN OUTLIER\"\n]\n```"

	// DisjunctionReply violates the no-OR policy and needs one repair pass.
	DisjunctionReply = "```json\n[\"IF $truck speed$ > 120.000 km/h OR $Distance [km]$ > 500.000 km THEN OUTLIER\"]\n```"

	// ProseReply carries no extractable rules at all.
	ProseReply = "I could not merge the rule sets, the inputs contradict each other."
)
