package app

import (
	"context"
	"errors"
	"testing"

	"ruletree/adapters/oracle"
	"ruletree/ai"
	"ruletree/internal/config"
	"ruletree/internal/testkit"

	"github.com/stretchr/testify/assert"
)

func mergeTestConfig() *config.Config {
	return &config.Config{
		Oracle: config.OracleConfig{Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 4000},
		Merge:  config.MergeConfig{MaxRepairIterations: 3},
	}
}

func truckRuleSets() [][]string {
	return [][]string{
		{"IF $truck speed$ > 120.000 km/h THEN OUTLIER"},
		{"IF $Total no. compaction cycles$ > 105.500 THEN OUTLIER"},
	}
}

func TestMergeResolvesOnFirstValidReply(t *testing.T) {
	mock := &oracle.MockOracleClient{}
	svc := NewMergeService(mock, mergeTestConfig(), nil)

	result := svc.Merge(context.Background(), MergeRequest{RuleSets: truckRuleSets()})

	assert.Equal(t, MergeStatusResolved, result.Audit.Status)
	assert.Equal(t, 1, result.Audit.Iterations)
	assert.Equal(t, 1, mock.Calls)
	assert.Len(t, result.Rules, 2)
	assert.Empty(t, result.Audit.Errors)

	// Audit captures the run identity and what the oracle saw
	assert.NotEmpty(t, result.Audit.RunID.String())
	assert.False(t, result.Audit.StartedAt.IsZero())
	assert.Equal(t, "gpt-4o-mini", result.Audit.Model)
	assert.Equal(t, 4000, result.Audit.MaxTokens)
	assert.Equal(t, 0.1, result.Audit.Temperature)
	assert.NotEmpty(t, result.Audit.PromptHash.String())
	assert.NotEmpty(t, result.Audit.ResponseHash.String())

	// The prompt carries the task persona and the serialized input sets
	assert.Contains(t, mock.Prompts[0], "You are Chief Quality Assurance Engineer.")
	assert.Contains(t, mock.Prompts[0], `Rule sets to combine: [["IF $truck speed$ > 120.000 km/h THEN OUTLIER"]`)
}

func TestMergeRepairsInvalidReply(t *testing.T) {
	mock := &oracle.MockOracleClient{
		Responses: []string{testkit.DisjunctionReply, testkit.MergedRulesReply},
	}
	svc := NewMergeService(mock, mergeTestConfig(), nil)

	result := svc.Merge(context.Background(), MergeRequest{RuleSets: truckRuleSets()})

	assert.Equal(t, MergeStatusResolved, result.Audit.Status)
	assert.Equal(t, 2, result.Audit.Iterations)
	assert.Equal(t, 2, mock.Calls)
	assert.Equal(t, []string{
		"IF $truck speed$ > 120.000 km/h THEN OUTLIER",
		"IF $Total no. compaction cycles$ > 105.500 THEN OUTLIER",
	}, result.Rules)

	// The repair prompt names the violation and shows the offending rules
	// with comparison operators intact
	repair := mock.Prompts[1]
	assert.Contains(t, repair, "Fix the following validation issues in the rules:")
	assert.Contains(t, repair, "Rule 1 contains 'OR' which is not allowed:")
	assert.Contains(t, repair, "Original task: ")
	assert.Contains(t, repair, `"IF $truck speed$ > 120.000 km/h OR $Distance [km]$ > 500.000 km THEN OUTLIER"`)
	assert.Contains(t, repair, "Remember that ALL rules must:")
}

func TestMergeExhaustsRepairBudget(t *testing.T) {
	mock := &oracle.MockOracleClient{
		Responses: []string{testkit.ProseReply, testkit.ProseReply, testkit.ProseReply, testkit.ProseReply},
	}
	svc := NewMergeService(mock, mergeTestConfig(), nil)

	result := svc.Merge(context.Background(), MergeRequest{RuleSets: truckRuleSets()})

	assert.Equal(t, MergeStatusExhausted, result.Audit.Status)
	assert.Equal(t, 4, result.Audit.Iterations)
	assert.Equal(t, 4, mock.Calls)
	assert.Empty(t, result.Rules)
	assert.Contains(t, result.Audit.Errors, "No rules found in the output.")
}

func TestMergeFailsWhenOracleErrors(t *testing.T) {
	mock := &oracle.MockOracleClient{Error: errors.New("oracle unavailable")}
	svc := NewMergeService(mock, mergeTestConfig(), nil)

	result := svc.Merge(context.Background(), MergeRequest{RuleSets: truckRuleSets()})

	assert.Equal(t, MergeStatusFailed, result.Audit.Status)
	assert.Equal(t, 0, result.Audit.Iterations)
	assert.Equal(t, 1, mock.Calls)
	assert.Empty(t, result.Rules)
	assert.Equal(t, []string{"oracle unavailable"}, result.Audit.Errors)
}

func TestMergeCompletenessWarningTriggersRepair(t *testing.T) {
	// Six source rules but the first reply only carries two, which trips
	// the completeness warning; the second reply restores enough rules.
	sources := [][]string{
		{
			"IF $truck speed$ > 120.000 km/h THEN OUTLIER",
			"IF $Distance [km]$ > 500.000 km THEN OUTLIER",
			"IF $Total fuel consumed [dm3]$ > 450.000 dm3 THEN OUTLIER",
		},
		{
			"IF $Total no. compaction cycles$ > 105.500 THEN OUTLIER",
			"IF $Motohours stop (idle) [h]$ > 9.500 h THEN OUTLIER",
			"IF $Total mass [kg]$ > 3000.000 kg THEN OUTLIER",
		},
	}
	enough := "```json\n[\"IF $truck speed$ > 120.000 km/h THEN OUTLIER\", " +
		"\"IF $Total no. compaction cycles$ > 105.500 THEN OUTLIER\", " +
		"\"IF $Total mass [kg]$ > 3000.000 kg THEN OUTLIER\"]\n```"
	mock := &oracle.MockOracleClient{Responses: []string{testkit.MergedRulesReply, enough}}
	svc := NewMergeService(mock, mergeTestConfig(), nil)

	result := svc.Merge(context.Background(), MergeRequest{RuleSets: sources})

	assert.Equal(t, MergeStatusResolved, result.Audit.Status)
	assert.Equal(t, 2, result.Audit.Iterations)
	assert.Len(t, result.Rules, 3)
	assert.Contains(t, mock.Prompts[1], "Warning: Output has significantly fewer rules (2) than expected.")
}

func TestMergeUsesCustomTask(t *testing.T) {
	task := ai.DefaultMergeTask()
	task.Role = "Fleet Rules Auditor"
	task.Description = "Combine without losing coverage: {RULE_SETS_JSON}"

	mock := &oracle.MockOracleClient{}
	svc := NewMergeService(mock, mergeTestConfig(), nil)

	result := svc.Merge(context.Background(), MergeRequest{RuleSets: truckRuleSets(), Task: &task})

	assert.Equal(t, MergeStatusResolved, result.Audit.Status)
	assert.Contains(t, mock.Prompts[0], "You are Fleet Rules Auditor.")
	assert.Contains(t, mock.Prompts[0], `Combine without losing coverage: [["IF $truck speed$`)
}
