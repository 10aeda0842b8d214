package app

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"ruletree/ai"
	"ruletree/domain/core"
	"ruletree/domain/review"
	"ruletree/internal"
	"ruletree/internal/config"
	"ruletree/ports"
)

// Merge outcome statuses
const (
	MergeStatusResolved  = "resolved"
	MergeStatusExhausted = "exhausted"
	MergeStatusFailed    = "failed"
)

// MergeRequest carries the rule sets to combine. Task overrides the
// built-in merge task when set.
type MergeRequest struct {
	RuleSets [][]string
	Task     *ai.TaskSpec
}

// MergeAudit records how a merge went: which model saw which prompt,
// how many repair rounds it took and where it ended up
type MergeAudit struct {
	RunID        core.RunID
	StartedAt    core.Timestamp
	Model        string
	Temperature  float64
	MaxTokens    int
	PromptHash   core.PromptHash
	ResponseHash core.ResponseHash
	Iterations   int
	Status       string
	Errors       []string
}

// MergeResult contains the merged rules with the audit trail
type MergeResult struct {
	Rules     []string
	Audit     MergeAudit
	RuntimeMs int64
}

// MergeService asks the oracle to combine rule sets and repairs its
// output until it passes validation or the repair budget runs out
type MergeService struct {
	oracle ports.OracleClient
	cfg    *config.Config
	logger *internal.Logger
}

// NewMergeService creates a merge service
func NewMergeService(oracle ports.OracleClient, cfg *config.Config, logger *internal.Logger) *MergeService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MergeService{
		oracle: oracle,
		cfg:    cfg,
		logger: logger,
	}
}

// Merge combines the request's rule sets into one validated set. It does
// not fail: oracle errors and unrepairable output degrade to an empty
// rule list with the audit explaining what happened.
func (s *MergeService) Merge(ctx context.Context, req MergeRequest) *MergeResult {
	startTime := time.Now()

	task := ai.DefaultMergeTask()
	if req.Task != nil {
		task = *req.Task
	}

	renderedTask := ai.RenderTask(task, map[string]string{
		ai.RuleSetsPlaceholder: marshalRuleSets(req.RuleSets),
	})
	prompt := ai.ComposePrompt(task, renderedTask)

	audit := MergeAudit{
		RunID:       core.NewRunID(),
		StartedAt:   core.Now(),
		Model:       s.cfg.Oracle.Model,
		Temperature: s.cfg.Oracle.Temperature,
		MaxTokens:   s.cfg.Oracle.MaxTokens,
		PromptHash:  core.NewPromptHash([]byte(prompt)),
	}

	s.logger.Info("Merging %d rule sets with model %s", len(req.RuleSets), audit.Model)

	reply, err := s.oracle.ChatCompletion(ctx, s.cfg.Oracle.Model, prompt, s.cfg.Oracle.MaxTokens)
	if err != nil {
		s.logger.Error("Oracle call failed: %v", err)
		audit.Status = MergeStatusFailed
		audit.Errors = []string{err.Error()}
		return &MergeResult{
			Rules:     []string{},
			Audit:     audit,
			RuntimeMs: time.Since(startTime).Milliseconds(),
		}
	}
	audit.ResponseHash = core.NewResponseHash([]byte(reply))

	validator := review.NewValidator(req.RuleSets...)
	rules, status, iterations, validationErrors := s.resolve(ctx, validator, renderedTask, reply)

	audit.Iterations = iterations
	audit.Status = status
	audit.Errors = validationErrors

	if status == MergeStatusResolved {
		s.logger.Info("Rules validation successful after %d iteration(s), %d rules", iterations, len(rules))
	} else {
		s.logger.Warn("Merge ended %s after %d iteration(s)", status, iterations)
	}

	return &MergeResult{
		Rules:     rules,
		Audit:     audit,
		RuntimeMs: time.Since(startTime).Milliseconds(),
	}
}

// resolve runs the extract-validate-repair loop over oracle replies.
// Each invalid reply earns one repair prompt until the budget runs out.
func (s *MergeService) resolve(ctx context.Context, validator *review.Validator, renderedTask, reply string) (rules []string, status string, iterations int, validationErrors []string) {
	maxRepairs := s.cfg.Merge.MaxRepairIterations

	for repairs := 0; ; repairs++ {
		iterations++
		rules = review.ExtractRules(reply)
		report := validator.Validate(rules)
		if report.Valid {
			return rules, MergeStatusResolved, iterations, nil
		}

		errorMsg := strings.Join(report.Errors, "\n")
		s.logger.Warn("Validation errors: %s", errorMsg)

		if repairs >= maxRepairs {
			return []string{}, MergeStatusExhausted, iterations, report.Errors
		}

		next, err := s.oracle.ChatCompletion(ctx, s.cfg.Oracle.Model, fixTaskPrompt(errorMsg, renderedTask, rules), s.cfg.Oracle.MaxTokens)
		if err != nil {
			s.logger.Error("Oracle repair call failed: %v", err)
			return []string{}, MergeStatusFailed, iterations, append(report.Errors, err.Error())
		}
		reply = next
	}
}

// fixTaskPrompt builds the repair prompt from the validation errors, the
// original task and the rules as they currently stand
func fixTaskPrompt(errorMsg, renderedTask string, rules []string) string {
	return "Fix the following validation issues in the rules:\n" + errorMsg + "\n\n" +
		"Original task: " + renderedTask + "\n\n" +
		"Current rules output:\n" + marshalRulesIndent(rules) + "\n\n" +
		"Please provide a corrected set of rules that address all the validation issues." +
		"Remember that ALL rules must:\n" +
		"1. Follow the pattern 'IF ... THEN OUTLIER'\n" +
		"2. Not contain 'OR' (split into separate rules)\n" +
		"3. Not contain 'INLIER'\n" +
		"4. Include all non-contradictory rules from both input sets\n" +
		"5. Have no inconsistencies or contradictions"
}

// marshalRuleSets serializes the input sets without HTML escaping, which
// would mangle the comparison operators inside rule texts
func marshalRuleSets(sets [][]string) string {
	if len(sets) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sets); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// marshalRulesIndent serializes rules for the repair prompt
func marshalRulesIndent(rules []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rules); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}
