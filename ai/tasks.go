package ai

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ruletree/domain/core"
)

// TaskSpec describes one oracle task: the persona the model plays and
// the work it is asked to do. Description may carry {PLACEHOLDER}
// markers filled at render time.
type TaskSpec struct {
	Role           string `yaml:"role"`
	Goal           string `yaml:"goal"`
	Backstory      string `yaml:"backstory"`
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
}

// RuleSetsPlaceholder marks where the serialized input rule sets land in
// a merge task description
const RuleSetsPlaceholder = "RULE_SETS_JSON"

const defaultMergeDescription = "Given two provided sets of rules, merge the sets into one set of rules following this thought process:\n" +
	"1. Ensure the combined set of rules are consistent and comprehensive.\n" +
	"2. Ensure there are no inconsistencies in the combined set of rules.\n" +
	"3. Ensure there are no contradictions in the combined set of rules.\n" +
	"4. Ensure there is no skipped information in the combined set of rules, meaning under no circumstances any rule should be skipped or not included in the final output, given particular rule is not contradictory/inconsistent.\n" +
	"5. Only rules describing given example being \"OUTLIER\" are to be saved. Rules for \"INLIER\" should be removed from the combined set.\n\n" +
	"Note that:\n" +
	"- Your task is to not modify particular rules under any circumstances\n" +
	"- You must not use \"OR\" under any circumstances, split the rules into separate ones in such case - follow example:\n\n" +
	"###EXAMPLE:\n" +
	"Incorrect: [\"IF Total no. compaction cycles > 100 AND (Total no. compaction cycles with p>100 bar < 10 OR Total fuel consumed [dm3] > 40) THEN OUTLIER\"]\n" +
	"Correct: [  \"IF Total no. compaction cycles > 100 AND Total no. compaction cycles with p>100 bar < 10 THEN OUTLIER\", \n" +
	"            \"IF Total no. compaction cycles > 100 AND Total fuel consumed [dm3] > 40 THEN OUTLIER\" ]\n" +
	"###END OF EXAMPLE\n\n" +
	"Rule sets to combine: {" + RuleSetsPlaceholder + "}"

// DefaultMergeTask returns the built-in merge task: a QA engineer
// persona combining two rule sets into one contradiction-free set
func DefaultMergeTask() TaskSpec {
	return TaskSpec{
		Role: "Chief Quality Assurance Engineer",
		Goal: "Create rules set without any contradictions.",
		Backstory: "You have a background in both quality assurance and truck operation. " +
			"You are intelligent being with knowledge about how to create rules set without any contradictions. " +
			"You are known for your prudence, and you won't let any contradiction or skipped information slip through your fingers.",
		Description: defaultMergeDescription,
		ExpectedOutput: "Set of rules merged from two sets of rules, with no contradictions, " +
			"inconsistencies or skipped information without any rules depicting \"INLIER\".",
	}
}

// LoadTaskSpec reads a task override from a YAML file. Fields absent from
// the file keep their built-in defaults, so an override may replace just
// the description.
func LoadTaskSpec(path string) (*TaskSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", core.ErrTaskNotFound, path)
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}

	spec := DefaultMergeTask()
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	return &spec, nil
}

// RenderTask fills every {KEY} marker in the task description
func RenderTask(spec TaskSpec, replacements map[string]string) string {
	rendered := spec.Description
	for key, value := range replacements {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}
	return rendered
}

// ComposePrompt builds the single prompt the oracle receives: persona,
// goal, the rendered task and the expected output contract
func ComposePrompt(spec TaskSpec, renderedTask string) string {
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(spec.Role)
	b.WriteString(". ")
	b.WriteString(spec.Backstory)
	b.WriteString("\n\nYour goal: ")
	b.WriteString(spec.Goal)
	b.WriteString("\n\n")
	b.WriteString(renderedTask)
	b.WriteString("\n\nExpected output: ")
	b.WriteString(spec.ExpectedOutput)
	return b.String()
}
