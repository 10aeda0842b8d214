package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ruletree/domain/core"
	"ruletree/domain/dataset"
	"ruletree/domain/rules"
	"ruletree/domain/tree"
	"ruletree/internal"
)

// ExtractRequest names the trainer whose dump is being read. Columns are
// only consulted for dialects that write feature_<i> placeholders.
type ExtractRequest struct {
	Algorithm tree.Algorithm
	TreeText  string
	Columns   []string
}

// ExtractResult carries the extracted rules plus everything the parser
// skipped on the way
type ExtractResult struct {
	Rules       rules.RuleSet
	Diagnostics []core.Diagnostic
	RuntimeMs   int64
}

// ApplyRequest pairs a rule set with the frame it should label
type ApplyRequest struct {
	Rules []string
	Frame *dataset.Frame
}

// BatchApplyRequest applies one rule set across several frames, keyed by
// source name
type BatchApplyRequest struct {
	Rules  []string
	Frames map[string]*dataset.Frame
}

// BatchApplyResult holds the per-frame outcomes under their source names
type BatchApplyResult struct {
	Results   map[string]*ApplyResult
	RuntimeMs int64
}

// ApplyResult describes one relabeling pass: the cleaned frame with its
// outlier flag written, the -1/+1 training labels derived from it, and
// the counts a caller needs to judge the pass.
type ApplyResult struct {
	Frame       *dataset.Frame
	Labels      []float64
	RowsDropped int
	RowsFlagged int
	Applied     int
	Diagnostics []core.Diagnostic
	RuleSetHash core.RuleSetHash
	RuntimeMs   int64
}

// RelabelService turns tree dumps into rules and rules into training
// labels
type RelabelService struct {
	logger *internal.Logger
}

// NewRelabelService creates a relabel service
func NewRelabelService(logger *internal.Logger) *RelabelService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RelabelService{logger: logger}
}

// ExtractRules parses one trainer's tree dump into decision rules. For
// the placeholder dialects the feature_<i> tokens are rewritten to the
// request's column names; the summed tree dialect already carries real
// names and is left alone.
func (s *RelabelService) ExtractRules(req ExtractRequest) (*ExtractResult, error) {
	startTime := time.Now()

	// 1. Pick the parser for the trainer's dump dialect
	parser, err := tree.ForAlgorithm(req.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to select tree parser: %w", err)
	}

	// 2. Extract rules, collecting diagnostics for skipped input
	parsed, err := parser.Parse(req.TreeText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s tree: %w", req.Algorithm, err)
	}

	// 3. Rewrite feature placeholders where the dialect uses them
	extracted := parsed.Rules
	if tree.UsesFeaturePlaceholders(req.Algorithm) && len(req.Columns) > 0 {
		extracted = rules.RenameFeatures(extracted, req.Columns)
	}

	s.logger.Info("Extracted %d rules from %s tree (%d diagnostics)",
		len(extracted), req.Algorithm, len(parsed.Diagnostics))

	return &ExtractResult{
		Rules:       extracted,
		Diagnostics: parsed.Diagnostics,
		RuntimeMs:   time.Since(startTime).Milliseconds(),
	}, nil
}

// ApplyAndRelabel drops incomplete rows, evaluates the rules against
// what remains and converts the resulting outlier flag into -1/+1
// training labels. Rows flagged by any rule become -1.
func (s *RelabelService) ApplyAndRelabel(req ApplyRequest) (*ApplyResult, error) {
	startTime := time.Now()

	if req.Frame == nil || req.Frame.Rows() == 0 {
		return nil, core.ErrEmptyDataset
	}

	// 1. Drop rows with missing values before evaluating anything
	clean, dropped := req.Frame.DropNulls()
	if clean.Rows() == 0 {
		return nil, fmt.Errorf("%w after dropping %d incomplete rows", core.ErrEmptyDataset, dropped)
	}

	// 2. Apply the rules, writing the outlier flag onto the clean frame
	set := rules.FromTexts(req.Rules)
	report, err := rules.Apply(set, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to apply rules: %w", err)
	}

	// 3. Convert the flag into the -1/+1 encoding trainers refit on
	labels, err := clean.Relabel(rules.OutlierFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to relabel frame: %w", err)
	}

	s.logger.Info("Applied %d of %d rules: %d of %d rows flagged, %d rows dropped for missing values",
		report.Applied, len(set), report.RowsFlagged, clean.Rows(), dropped)

	return &ApplyResult{
		Frame:       clean,
		Labels:      labels,
		RowsDropped: dropped,
		RowsFlagged: report.RowsFlagged,
		Applied:     report.Applied,
		Diagnostics: report.Diagnostics,
		RuleSetHash: core.ComputeRuleSetHash(req.Rules),
		RuntimeMs:   time.Since(startTime).Milliseconds(),
	}, nil
}

// ApplyBatch relabels several frames with the same rule set, one goroutine
// per frame. A failing frame fails the batch, named after its source.
func (s *RelabelService) ApplyBatch(ctx context.Context, req BatchApplyRequest) (*BatchApplyResult, error) {
	startTime := time.Now()

	var mu sync.Mutex
	results := make(map[string]*ApplyResult, len(req.Frames))

	g, gctx := errgroup.WithContext(ctx)
	for name, frame := range req.Frames {
		name, frame := name, frame // per-iteration copy; go directive predates Go 1.22 loopvar semantics
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.ApplyAndRelabel(ApplyRequest{Rules: req.Rules, Frame: frame})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Batch apply relabeled %d frames", len(results))

	return &BatchApplyResult{
		Results:   results,
		RuntimeMs: time.Since(startTime).Milliseconds(),
	}, nil
}
